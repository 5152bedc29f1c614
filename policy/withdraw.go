package policy

import (
	"math"
	"slices"
	"sort"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/model"
)

// TargetKind tells a dropped pile apart from a structure store.
type TargetKind int

const (
	TargetDropped TargetKind = iota + 1
	TargetStore
)

// Target is an energy withdraw target. Exactly one of Dropped and Store is
// set, matching Kind.
type Target struct {
	Kind    TargetKind
	Dropped *model.Dropped
	Store   *model.Structure
}

func (t Target) ID() string {
	if t.Kind == TargetDropped {
		return t.Dropped.ID
	}
	return t.Store.ID
}

func (t Target) Pos() model.Pos {
	if t.Kind == TargetDropped {
		return t.Dropped.Pos
	}
	return t.Store.Pos
}

// Amount is the energy currently held by the target.
func (t Target) Amount() int {
	if t.Kind == TargetDropped {
		return t.Dropped.Amount
	}
	return t.Store.Energy
}

// ResolveTarget looks a cached withdraw id back up in the view.
func ResolveTarget(v *colony.View, id string) (Target, bool) {
	if d := v.Dropped(id); d != nil {
		return Target{Kind: TargetDropped, Dropped: d}, true
	}
	if s := v.Structure(id); s != nil {
		return Target{Kind: TargetStore, Store: s}, true
	}
	return Target{}, false
}

// WithdrawPolicy narrows which energy holders a unit may draw from.
type WithdrawPolicy struct {
	IncludeDropped bool
	MinDropped     int
	Structures     []string
	PreferPos      *model.Pos
	PreferRange    int // ignored when PreferPos is nil
	PreferOnly     bool

	ExcludeLinkRoles []colony.LinkRole
	PreferLinkRoles  []colony.LinkRole
}

// Weights are the scoring constants for store targets.
type Weights struct {
	ClaimPenalty       float64 `yaml:"claim_penalty"`
	EnergyBonusCap     float64 `yaml:"energy_bonus_cap"`
	EnergyBonusDivisor float64 `yaml:"energy_bonus_divisor"`
	PreferredLinkBonus float64 `yaml:"preferred_link_bonus"`
}

var DefaultWeights = Weights{
	ClaimPenalty:       5,
	EnergyBonusCap:     10,
	EnergyBonusDivisor: 200,
	PreferredLinkBonus: 100,
}

// DefaultStructures are the store types a withdraw may target.
var DefaultStructures = []string{model.StructureContainer, model.StructureStorage, model.StructureLink}

// DefaultWithdrawPolicy draws from any store or dropped pile, skipping links
// that sit next to a source.
func DefaultWithdrawPolicy() WithdrawPolicy {
	return WithdrawPolicy{
		IncludeDropped:   true,
		MinDropped:       20,
		Structures:       DefaultStructures,
		ExcludeLinkRoles: []colony.LinkRole{colony.LinkSource},
	}
}

func (p WithdrawPolicy) inPreferRange(pos model.Pos) bool {
	if p.PreferPos == nil {
		return true
	}
	return p.PreferPos.Range(pos) <= p.PreferRange
}

func (p WithdrawPolicy) allowed(v *colony.View, s *model.Structure) bool {
	types := p.Structures
	if len(types) == 0 {
		types = DefaultStructures
	}
	if !slices.Contains(types, s.Type) || s.Energy <= 0 {
		return false
	}
	if s.Type == model.StructureLink && slices.Contains(p.ExcludeLinkRoles, v.LinkRoleOf(s.ID)) {
		return false
	}
	if p.PreferOnly && !p.inPreferRange(s.Pos) {
		return false
	}
	return true
}

// Score ranks a store target for a unit. Lower is better.
func Score(distance, claimants, stored int, preferredLink bool, w Weights) float64 {
	bonus := 0.0
	if w.EnergyBonusDivisor > 0 {
		bonus = math.Min(w.EnergyBonusCap, float64(stored)/w.EnergyBonusDivisor)
	}
	score := float64(distance) + w.ClaimPenalty*float64(claimants) - bonus
	if preferredLink {
		score -= w.PreferredLinkBonus
	}
	return score
}

// SelectWithdrawTarget picks where m should draw energy from. Dropped energy
// above the policy minimum wins outright. Otherwise every allowed store is
// scored and the lowest score wins, ties broken by id.
func SelectWithdrawTarget(v *colony.View, m *colony.Member, p WithdrawPolicy, w Weights) (Target, bool) {
	from := m.Unit.Pos

	if p.IncludeDropped {
		var best *model.Dropped
		for i := range v.State.Dropped {
			d := &v.State.Dropped[i]
			if d.Amount < p.MinDropped || !p.inPreferRange(d.Pos) {
				continue
			}
			if best == nil || closer(from, d.Pos, d.ID, best.Pos, best.ID) {
				best = d
			}
		}
		if best != nil {
			return Target{Kind: TargetDropped, Dropped: best}, true
		}
	}

	type scored struct {
		s     *model.Structure
		score float64
	}
	var cands []scored
	for i := range v.State.Structures {
		s := &v.State.Structures[i]
		if !p.allowed(v, s) {
			continue
		}
		preferred := s.Type == model.StructureLink && slices.Contains(p.PreferLinkRoles, v.LinkRoleOf(s.ID))
		cands = append(cands, scored{
			s:     s,
			score: Score(from.Range(s.Pos), v.Claimants(s.ID), s.Energy, preferred, w),
		})
	}
	if len(cands) == 0 {
		return Target{}, false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score < cands[j].score
		}
		return cands[i].s.ID < cands[j].s.ID
	})
	return Target{Kind: TargetStore, Store: cands[0].s}, true
}

// closer reports whether a is nearer to from than b, falling back to id
// order on equal range.
func closer(from, a model.Pos, aID string, b model.Pos, bID string) bool {
	ra, rb := from.Range(a), from.Range(b)
	if ra != rb {
		return ra < rb
	}
	return aID < bID
}

// FairShare is how much a single claimant should withdraw so concurrent
// claimants split a limited store instead of racing to drain it.
func FairShare(free, stored, claimants int) int {
	if claimants < 1 {
		claimants = 1
	}
	share := (stored + claimants - 1) / claimants
	return max(1, min(free, share))
}
