// Package policy holds the pure decision functions shared by the planner and
// the unit behaviors: role demand, request keys and energy target choice.
package policy

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/roles"
)

// Demand is what a colony wants from one role this tick. When Slots is
// non-empty it overrides Count.
type Demand struct {
	Count int
	Slots []roles.Request
}

// Target is the role's target population.
func (d Demand) Target() int {
	if len(d.Slots) > 0 {
		return len(d.Slots)
	}
	return d.Count
}

// Keys returns the slot keys in order.
func (d Demand) Keys() []string {
	out := make([]string, len(d.Slots))
	for i, s := range d.Slots {
		out[i] = s.Key
	}
	return out
}

// DemandFor evaluates spec against the view.
func DemandFor(v *colony.View, spec *roles.Spec) Demand {
	if reqs := spec.RequestsFor(v); len(reqs) > 0 {
		return Demand{Slots: reqs}
	}
	return Demand{Count: spec.Desired(v)}
}

// RequestKey returns the slot key a unit occupies, or "" for roles that
// are not slot bound.
func RequestKey(role string, u *memory.Unit) string {
	switch role {
	case roles.Miner:
		return u.SourceID
	case roles.Mover:
		if u.MoverSourceID != "" {
			return u.MoverSourceID
		}
		return u.RequestKey
	}
	return ""
}
