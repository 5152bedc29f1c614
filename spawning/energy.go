// Package spawning decides what a colony produces next, which units it
// decommissions, and turns the decision into a spawn command.
package spawning

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

// SpawnPlan is the loadout a role would get if spawned right now.
type SpawnPlan struct {
	Body        []model.BodyPart
	Cost        int
	MaxCost     int
	UnderTarget bool
	Blocked     bool
}

// PlanForRole sizes a unit of spec. A role under its target is sized to the
// energy available now so production resumes sooner; otherwise it is sized
// to full capacity.
func PlanForRole(v *colony.View, spec *roles.Spec, d policy.Demand) SpawnPlan {
	target := d.Target()
	under := target > 0 && v.ActiveCount(spec.Name) < target

	budget := v.State.EnergyCapacity
	if under {
		budget = v.State.EnergyAvailable
	}
	body := spec.Body(budget)
	cost := model.BodyCost(body)
	return SpawnPlan{
		Body:        body,
		Cost:        cost,
		MaxCost:     MaxCost(v, spec),
		UnderTarget: under,
		Blocked:     v.State.EnergyAvailable < max(cost, spec.MinEnergy),
	}
}

// PlanForUpgrade sizes the replacement for a planned upgrade. It always uses
// full capacity so the new unit costs what the upgrade promised.
func PlanForUpgrade(v *colony.View, spec *roles.Spec) SpawnPlan {
	body := spec.Body(v.State.EnergyCapacity)
	cost := model.BodyCost(body)
	return SpawnPlan{
		Body:    body,
		Cost:    cost,
		MaxCost: cost,
		Blocked: v.State.EnergyAvailable < max(cost, spec.MinEnergy),
	}
}

// MaxCost is the price of the largest loadout the colony could ever afford
// for spec at its current capacity.
func MaxCost(v *colony.View, spec *roles.Spec) int {
	return model.BodyCost(spec.Body(v.State.EnergyCapacity))
}

// UnitCost is what m cost to spawn. Units without a recorded cost are priced
// from their body.
func UnitCost(m *colony.Member) int {
	if m.Mem.SpawnCost > 0 {
		return m.Mem.SpawnCost
	}
	return model.BodyCost(m.Unit.Body)
}
