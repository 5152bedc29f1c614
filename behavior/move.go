package behavior

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/model"
)

// MoveOpts are the stuck-recovery thresholds, in consecutive ticks without
// a position change.
type MoveOpts struct {
	RepathAt      int `yaml:"repath_at"`
	NudgeAt       int `yaml:"nudge_at"`
	UnreachableAt int `yaml:"unreachable_at"`
}

var DefaultMoveOpts = MoveOpts{RepathAt: 3, NudgeAt: 5, UnreachableAt: 8}

type MoveResult int

const (
	MoveArrived MoveResult = iota
	MoveMoving
	MoveUnreachable
)

// moveTo walks m toward target until it is within the given range. The last
// position and stuck counter live in the unit's memory, so recovery carries
// across ticks. An unreachable result resets the counter; the caller is
// expected to drop whatever target it was heading for.
func (r *Runner) moveTo(v *colony.View, m *colony.Member, target model.Pos, within int) (MoveResult, error) {
	mem := m.Mem
	key := m.Unit.Pos.Key()
	if m.Unit.Pos.Range(target) <= within {
		mem.LastPos = key
		mem.Stuck = 0
		return MoveArrived, nil
	}

	if mem.LastPos == key {
		mem.Stuck++
	} else {
		mem.Stuck = 0
	}
	mem.LastPos = key

	if mem.Stuck >= r.Move.UnreachableAt {
		mem.Stuck = 0
		return MoveUnreachable, nil
	}

	err := r.Sender.Send(ipc.TypeMove, ipc.MoveCommand{
		Unit:   m.Name(),
		X:      target.X,
		Y:      target.Y,
		Repath: mem.Stuck >= r.Move.RepathAt,
	})
	if err != nil {
		return MoveMoving, err
	}
	if mem.Stuck >= r.Move.NudgeAt {
		err = r.Sender.Send(ipc.TypeNudge, ipc.NudgeCommand{
			Unit:      m.Name(),
			Direction: 1 + v.Tick%8,
		})
	}
	return MoveMoving, err
}
