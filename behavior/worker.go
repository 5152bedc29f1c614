package behavior

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/fsm"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

type WorkerState string

const (
	WorkerGather WorkerState = "gather"
	WorkerWork   WorkerState = "work"
)

// Action ranges, in tiles.
const (
	touchRange   = 1
	controlRange = 3
)

func workerState(m *colony.Member) WorkerState {
	if m.Mem.Working {
		return WorkerWork
	}
	return WorkerGather
}

// flipWorking toggles the working flag when the unit is full or empty. Claims
// and cached deposits belong to the phase being left.
func flipWorking(m *colony.Member) {
	mem := m.Mem
	switch {
	case mem.Working && m.Unit.Carry == 0:
		mem.Working = false
		mem.DepositID = ""
	case !mem.Working && m.Unit.FreeCapacity() == 0:
		mem.Working = true
		mem.WithdrawID = ""
	}
}

// runWorker alternates between gathering energy and spending it.
func (r *Runner) runWorker(v *colony.View, m *colony.Member) step {
	return fsm.Run(m.Mem, fsm.Machine[WorkerState, step]{
		IsValid: fsm.OneOf(WorkerGather, WorkerWork),
		Initial: func() WorkerState { return workerState(m) },
		Switch: func(WorkerState) WorkerState {
			flipWorking(m)
			return workerState(m)
		},
		Run: func(s WorkerState) step {
			if s == WorkerWork {
				return r.work(v, m)
			}
			return r.gather(v, m)
		},
	})
}

func (r *Runner) work(v *colony.View, m *colony.Member) step {
	switch m.Role() {
	case roles.Harvester:
		if s := r.depositTarget(v, m); s != nil {
			return r.deposit(v, m, s)
		}
		return r.upgrade(v, m)
	case roles.Mover:
		if s := r.depositTarget(v, m); s != nil {
			return r.deposit(v, m, s)
		}
		return step{Mood: MoodIdle}
	case roles.Builder:
		if res, ok := r.build(v, m); ok {
			return res
		}
		if res, ok := r.repair(v, m); ok {
			return res
		}
	}
	return r.upgrade(v, m)
}

// approach moves m within range of pos and issues cmd once there. lost runs
// when the target turns out to be unreachable.
func (r *Runner) approach(v *colony.View, m *colony.Member, pos model.Pos, within int, mood string, lost func(), typ string, cmd any) step {
	res, err := r.moveTo(v, m, pos, within)
	switch {
	case err != nil:
		return step{Mood: mood, Err: err}
	case res == MoveUnreachable:
		if lost != nil {
			lost()
		}
		return step{Mood: MoodIdle}
	case res == MoveMoving:
		return step{Mood: mood}
	}
	return step{Mood: mood, Err: r.Sender.Send(typ, cmd)}
}

func (r *Runner) depositTarget(v *colony.View, m *colony.Member) *model.Structure {
	if id := m.Mem.DepositID; id != "" {
		if s := v.Structure(id); s != nil && s.FreeCapacity() > 0 {
			return s
		}
		m.Mem.DepositID = ""
	}
	s := policy.SelectDepositTarget(v, m, policy.DepositPolicyFor(v, m.Role()))
	if s != nil {
		m.Mem.DepositID = s.ID
	}
	return s
}

func (r *Runner) deposit(v *colony.View, m *colony.Member, s *model.Structure) step {
	return r.approach(v, m, s.Pos, touchRange, MoodDeposit,
		func() { m.Mem.DepositID = "" },
		ipc.TypeTransfer, ipc.TransferCommand{Unit: m.Name(), TargetID: s.ID})
}

func (r *Runner) build(v *colony.View, m *colony.Member) (step, bool) {
	site := policy.SelectBuildSite(v, m, m.Mem.BuildTargetID, r.Sites)
	if site == nil {
		m.Mem.BuildTargetID = ""
		return step{}, false
	}
	m.Mem.BuildTargetID = site.ID
	return r.approach(v, m, site.Pos, controlRange, MoodBuild,
		func() { m.Mem.BuildTargetID = "" },
		ipc.TypeBuild, ipc.BuildCommand{Unit: m.Name(), SiteID: site.ID}), true
}

func (r *Runner) repair(v *colony.View, m *colony.Member) (step, bool) {
	target := nearest(m.Unit.Pos, v.DamagedStructures(r.Repair))
	if target == nil {
		return step{}, false
	}
	return r.approach(v, m, target.Pos, controlRange, MoodRepair, nil,
		ipc.TypeRepair, ipc.RepairCommand{Unit: m.Name(), TargetID: target.ID}), true
}

func (r *Runner) upgrade(v *colony.View, m *colony.Member) step {
	c := v.State.Controller
	if c == nil {
		return step{Mood: MoodIdle}
	}
	return r.approach(v, m, *c, controlRange, MoodUpgrade, nil,
		ipc.TypeUpgrade, ipc.UpgradeCommand{Unit: m.Name()})
}

// anchor is where a unit does its work, used to prefer nearby energy.
func anchor(v *colony.View, m *colony.Member) model.Pos {
	switch m.Role() {
	case roles.Mover:
		if seat := minerSeat(v, m.Mem.MoverSourceID); seat != nil {
			return seat.Pos
		}
	case roles.Builder:
		if s := v.Site(m.Mem.BuildTargetID); s != nil {
			return s.Pos
		}
	case roles.Upgrader:
		if c := v.State.Controller; c != nil {
			return *c
		}
	}
	return m.Unit.Pos
}
