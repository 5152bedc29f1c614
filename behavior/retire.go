package behavior

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/policy"
)

// recycleMargin is how many ticks of slack a retiring unit needs beyond the
// walk to its spawn before it bothers heading there to be recycled.
const recycleMargin = 10

// runRetire is the terminal behavior. Cargo goes home first, then the unit
// is recycled or parked out of the way to expire.
func (r *Runner) runRetire(v *colony.View, m *colony.Member) step {
	if m.Unit.Carry > 0 {
		return r.unload(v, m)
	}

	spawn := nearest(m.Unit.Pos, v.Spawns())
	if spawn == nil {
		return step{Mood: MoodIdle}
	}
	dist := m.Unit.Pos.Range(spawn.Pos)
	if dist <= 1 {
		err := r.Sender.Send(ipc.TypeRecycle, ipc.RecycleCommand{SpawnID: spawn.ID, Unit: m.Name()})
		return step{Mood: MoodRecycle, Err: err}
	}
	if m.TTL() > dist+recycleMargin {
		_, err := r.moveTo(v, m, spawn.Pos, 1)
		return step{Mood: MoodRecycle, Err: err}
	}

	park := parkingSpot(v, m.Unit.Pos, spawn.Pos)
	_, err := r.moveTo(v, m, park, 0)
	return step{Mood: MoodPark, Err: err}
}

func (r *Runner) unload(v *colony.View, m *colony.Member) step {
	target := policy.SelectDepositTarget(v, m, policy.DepositPolicy{
		Tiers: [][]string{{model.StructureSpawn, model.StructureExtension}},
	})
	if target == nil {
		target = policy.SelectDepositTarget(v, m, policy.DepositPolicyFor(v, m.Role()))
	}
	if target == nil {
		err := r.Sender.Send(ipc.TypeDrop, ipc.DropCommand{Unit: m.Name()})
		return step{Mood: MoodDrop, Err: err}
	}
	res, err := r.moveTo(v, m, target.Pos, 1)
	switch {
	case err != nil:
		return step{Mood: MoodDeposit, Err: err}
	case res == MoveArrived:
		err = r.Sender.Send(ipc.TypeTransfer, ipc.TransferCommand{Unit: m.Name(), TargetID: target.ID})
	case res == MoveUnreachable:
		err = r.Sender.Send(ipc.TypeDrop, ipc.DropCommand{Unit: m.Name()})
		return step{Mood: MoodDrop, Err: err}
	}
	return step{Mood: MoodDeposit, Err: err}
}

// parkingSpot is the walkable tile next to the graveyard marker closest to
// from, or the tile diagonally below the spawn when the colony has none.
func parkingSpot(v *colony.View, from, spawn model.Pos) model.Pos {
	if g := v.State.Graveyard; g != nil {
		var best *model.Pos
		for _, p := range v.State.Terrain.OpenAround(*g) {
			p := p
			if p == *g {
				continue
			}
			if best == nil || from.Range(p) < from.Range(*best) {
				best = &p
			}
		}
		if best != nil {
			return *best
		}
	}
	return model.Pos{X: spawn.X + 1, Y: spawn.Y + 1}
}

func nearest(from model.Pos, structures []*model.Structure) *model.Structure {
	var best *model.Structure
	for _, s := range structures {
		if best == nil || from.Range(s.Pos) < from.Range(best.Pos) {
			best = s
		}
	}
	return best
}
