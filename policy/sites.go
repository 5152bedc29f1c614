package policy

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/roles"
)

// SiteOpts tunes construction site selection.
type SiteOpts struct {
	JoinWithin  int // bonus for joining builders already at work within this range
	MaxJoiners  int // builders per site before crowding is penalised
	KeepCurrent int // keep the current site unless the best beats it by more than this
}

var DefaultSiteOpts = SiteOpts{JoinWithin: 20, MaxJoiners: 2, KeepCurrent: 150}

func assignedBuilders(v *colony.View, siteID, except string) int {
	n := 0
	for _, m := range v.Role(roles.Builder) {
		if m.Name() == except || !m.Mem.Working {
			continue
		}
		if m.Mem.BuildTargetID == siteID {
			n++
		}
	}
	return n
}

func nearSource(v *colony.View, p model.Pos, r int) bool {
	for _, s := range v.State.Sources {
		if p.Range(s.Pos) <= r {
			return true
		}
	}
	return false
}

// ScoreSite ranks a construction site for a builder. Higher is better.
func ScoreSite(v *colony.View, m *colony.Member, site *model.Site, o SiteOpts) int {
	dist := m.Unit.Pos.Range(site.Pos)
	score := colony.SitePriority(site.Type)

	if site.Type == model.StructureContainer && nearSource(v, site.Pos, 2) {
		score += 600
	}
	switch remaining := site.ProgressTotal - site.Progress; {
	case remaining <= 200:
		score += 250
	case remaining <= 500:
		score += 100
	}

	assigned := assignedBuilders(v, site.ID, m.Name())
	if assigned > 0 && dist <= o.JoinWithin {
		score += 250 + min(assigned, 2)*75
	}
	if assigned >= o.MaxJoiners {
		score -= (assigned - (o.MaxJoiners - 1)) * 400
	}
	return score - dist*10
}

// SelectBuildSite picks the site m should build, sticking with currentID
// while it stays close to the best option.
func SelectBuildSite(v *colony.View, m *colony.Member, currentID string, o SiteOpts) *model.Site {
	var best *model.Site
	bestScore := 0
	for i := range v.State.Sites {
		s := &v.State.Sites[i]
		sc := ScoreSite(v, m, s, o)
		if best == nil || sc > bestScore {
			best, bestScore = s, sc
		}
	}
	if best == nil {
		return nil
	}
	if cur := v.Site(currentID); cur != nil && ScoreSite(v, m, cur, o) >= bestScore-o.KeepCurrent {
		return cur
	}
	return best
}
