package policy

import (
	"slices"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/roles"
)

// EnergySinks are structures that burn energy for colony functions other
// than spawning.
var EnergySinks = []string{
	model.StructureTower,
	model.StructureLab,
	model.StructurePowerSpawn,
	model.StructureNuker,
	model.StructureFactory,
}

// DepositPolicy is an ordered list of structure type tiers. The first tier
// with any free capacity supplies the target.
type DepositPolicy struct {
	Tiers [][]string
}

// CriticalSpawnEnergy is the available energy under which movers refill
// spawns and extensions before anything else.
const CriticalSpawnEnergy = 300

func DefaultDepositPolicy() DepositPolicy {
	return DepositPolicy{Tiers: [][]string{
		{model.StructureSpawn, model.StructureExtension},
		EnergySinks,
		{model.StructureStorage},
	}}
}

// DepositPolicyFor returns the tiers a role deposits through. Movers keep
// spawns topped up and feed sinks ahead of extensions unless the colony is
// short on spawn energy.
func DepositPolicyFor(v *colony.View, role string) DepositPolicy {
	if role != roles.Mover {
		return DefaultDepositPolicy()
	}
	critical := min(CriticalSpawnEnergy, v.State.EnergyCapacity)
	if v.State.EnergyAvailable < critical {
		return DefaultDepositPolicy()
	}
	return DepositPolicy{Tiers: [][]string{
		{model.StructureSpawn},
		EnergySinks,
		{model.StructureExtension},
		{model.StructureStorage},
	}}
}

// SelectDepositTarget returns the nearest structure with free capacity in
// the first non-empty tier.
func SelectDepositTarget(v *colony.View, m *colony.Member, p DepositPolicy) *model.Structure {
	from := m.Unit.Pos
	for _, tier := range p.Tiers {
		var best *model.Structure
		for i := range v.State.Structures {
			s := &v.State.Structures[i]
			if !slices.Contains(tier, s.Type) || s.FreeCapacity() <= 0 {
				continue
			}
			if best == nil || closer(from, s.Pos, s.ID, best.Pos, best.ID) {
				best = s
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

// AcquirePolicy is how a role gets energy when it has none.
type AcquirePolicy struct {
	Withdraw     WithdrawPolicy
	AllowHarvest bool
	// HarvestOnlyWithoutMiners restricts harvesting to colonies that have no
	// active miners.
	HarvestOnlyWithoutMiners bool
}

// AcquirePolicyFor returns the energy acquisition rules for role. Only
// harvesters chase dropped energy; everyone else sticks to stores.
func AcquirePolicyFor(role string) AcquirePolicy {
	w := DefaultWithdrawPolicy()
	w.IncludeDropped = false

	switch role {
	case roles.Mover:
		w.PreferLinkRoles = []colony.LinkRole{colony.LinkStorage}
		return AcquirePolicy{Withdraw: w}
	case roles.Harvester:
		w.IncludeDropped = true
		return AcquirePolicy{Withdraw: w, AllowHarvest: true}
	case roles.Miner:
		return AcquirePolicy{Withdraw: w, AllowHarvest: true}
	}
	return AcquirePolicy{Withdraw: w, AllowHarvest: true, HarvestOnlyWithoutMiners: true}
}

// CanHarvest applies the role's harvest restriction to the colony.
func (a AcquirePolicy) CanHarvest(v *colony.View) bool {
	if !a.AllowHarvest {
		return false
	}
	if !a.HarvestOnlyWithoutMiners {
		return true
	}
	return len(v.Census(roles.Miner)) == 0
}
