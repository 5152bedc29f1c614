package spawning

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

// upgradeCandidate is an undersized unit worth replacing.
type upgradeCandidate struct {
	spec    *roles.Spec
	member  *colony.Member
	maxCost int
	deficit int
}

// bestUpgrade picks the non-retiring unit furthest below its role's maximum
// loadout. Ties go to the unit with less time left.
func (p *Planner) bestUpgrade(v *colony.View, d *demands) *upgradeCandidate {
	var best *upgradeCandidate
	for _, spec := range p.Roles.Specs() {
		if p.Exempt[spec.Name] || d.of(spec).Target() <= 0 {
			continue
		}
		maxCost := MaxCost(v, spec)
		for _, m := range v.Census(spec.Name) {
			cost := UnitCost(m)
			if cost >= maxCost {
				continue
			}
			deficit := maxCost - cost
			if best == nil || deficit > best.deficit ||
				(deficit == best.deficit && m.TTL() < best.member.TTL()) {
				best = &upgradeCandidate{spec: spec, member: m, maxCost: maxCost, deficit: deficit}
			}
		}
	}
	return best
}

// planUpgrade records which unit to replace and, when the colony can afford
// the replacement now, the spawn intent that carries the old unit's binding.
func (p *Planner) planUpgrade(v *colony.View, d *demands, plan *memory.Plan) {
	best := p.bestUpgrade(v, d)
	if best == nil {
		return
	}
	blocked := v.State.EnergyAvailable < best.maxCost
	plan.Upgrade = &memory.UpgradeIntent{
		Role:            best.spec.Name,
		RetireUnit:      best.member.Name(),
		RequiredEnergy:  best.maxCost,
		BlockedByEnergy: blocked,
	}
	if blocked {
		return
	}

	intent := &memory.SpawnIntent{
		Kind:           memory.IntentCount,
		Role:           best.spec.Name,
		Memory:         best.member.Mem.Binding,
		RequiredEnergy: best.maxCost,
		Reason:         memory.ReasonUpgrade,
	}
	if key := policy.RequestKey(best.spec.Name, best.member.Mem); key != "" {
		intent.Key = key
		intent.NameHint = keyHint(key)
		if len(d.of(best.spec).Slots) > 0 {
			intent.Kind = memory.IntentRequest
		}
	}
	plan.Spawn = intent
}

// keyHint shortens a request key for use in a unit name.
func keyHint(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[len(key)-4:]
}
