package behavior

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/policy"
)

// gather fills m with energy: stores near its work anchor first, then any
// store, then harvesting when the role is allowed to.
func (r *Runner) gather(v *colony.View, m *colony.Member) step {
	acq := policy.AcquirePolicyFor(m.Role())
	if t, ok := r.withdrawTarget(v, m, acq.Withdraw); ok {
		return r.withdraw(v, m, t)
	}
	if acq.CanHarvest(v) && m.Unit.Parts(model.Work) > 0 {
		if src := r.harvestSource(v, m); src != nil {
			return r.approach(v, m, src.Pos, touchRange, MoodHarvest, nil,
				ipc.TypeHarvest, ipc.HarvestCommand{Unit: m.Name(), SourceID: src.ID})
		}
	}
	return step{Mood: MoodIdle}
}

// withdrawTarget keeps the unit's existing claim while the target still
// holds energy, otherwise selects and claims a new one.
func (r *Runner) withdrawTarget(v *colony.View, m *colony.Member, p policy.WithdrawPolicy) (policy.Target, bool) {
	if id := m.Mem.WithdrawID; id != "" {
		if t, ok := policy.ResolveTarget(v, id); ok && t.Amount() > 0 {
			return t, true
		}
		m.Mem.WithdrawID = ""
	}

	at := anchor(v, m)
	near := p
	near.PreferPos = &at
	near.PreferRange = r.WithdrawWithin
	near.PreferOnly = true

	t, ok := policy.SelectWithdrawTarget(v, m, near, r.Weights)
	if !ok {
		t, ok = policy.SelectWithdrawTarget(v, m, p, r.Weights)
	}
	if ok {
		m.Mem.WithdrawID = t.ID()
	}
	return t, ok
}

func (r *Runner) withdraw(v *colony.View, m *colony.Member, t policy.Target) step {
	lost := func() { m.Mem.WithdrawID = "" }
	if t.Kind == policy.TargetDropped {
		return r.approach(v, m, t.Pos(), touchRange, MoodWithdraw, lost,
			ipc.TypePickup, ipc.PickupCommand{Unit: m.Name(), TargetID: t.ID()})
	}
	amount := policy.FairShare(m.Unit.FreeCapacity(), t.Amount(), v.Claimants(t.ID()))
	return r.approach(v, m, t.Pos(), touchRange, MoodWithdraw, lost,
		ipc.TypeWithdraw, ipc.WithdrawCommand{Unit: m.Name(), TargetID: t.ID(), Amount: amount})
}

// harvestSource picks the active source closest to the work anchor within
// HarvestWithin, falling back to the one closest to the unit.
func (r *Runner) harvestSource(v *colony.View, m *colony.Member) *model.Source {
	at := anchor(v, m)
	var near, closest *model.Source
	for i := range v.State.Sources {
		s := &v.State.Sources[i]
		if s.Energy <= 0 {
			continue
		}
		if d := at.Range(s.Pos); d <= r.HarvestWithin && (near == nil || d < at.Range(near.Pos)) {
			near = s
		}
		if closest == nil || m.Unit.Pos.Range(s.Pos) < m.Unit.Pos.Range(closest.Pos) {
			closest = s
		}
	}
	if near != nil {
		return near
	}
	return closest
}
