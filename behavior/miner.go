package behavior

import (
	"log/slog"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/fsm"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
)

type MinerState string

const (
	MinerMissingSourceID MinerState = "missing_source_id"
	MinerBadSource       MinerState = "bad_source"
	MinerMissingStorage  MinerState = "missing_storage"
	MinerMoveToStorage   MinerState = "move_to_storage"
	MinerMine            MinerState = "mine"
)

// minerSeat is the container a miner stands on while it works its source.
// Links cannot be stood on, so only containers qualify.
func minerSeat(v *colony.View, sourceID string) *model.Structure {
	for _, s := range v.StorageUnits(sourceID) {
		if s.Type == model.StructureContainer {
			return s
		}
	}
	return nil
}

func minerState(v *colony.View, m *colony.Member) MinerState {
	id := m.Mem.SourceID
	if id == "" {
		return MinerMissingSourceID
	}
	if v.Source(id) == nil {
		return MinerBadSource
	}
	seat := minerSeat(v, id)
	if seat == nil {
		return MinerMissingStorage
	}
	if m.Unit.Pos != seat.Pos {
		return MinerMoveToStorage
	}
	return MinerMine
}

// runMiner parks the miner on its source's container and harvests into it.
func (r *Runner) runMiner(v *colony.View, m *colony.Member) step {
	return fsm.Run(m.Mem, fsm.Machine[MinerState, step]{
		IsValid: fsm.OneOf(MinerMissingSourceID, MinerBadSource, MinerMissingStorage, MinerMoveToStorage, MinerMine),
		Initial: func() MinerState { return minerState(v, m) },
		Switch:  func(MinerState) MinerState { return minerState(v, m) },
		Run: func(s MinerState) step {
			switch s {
			case MinerMissingSourceID:
				return step{Mood: MoodNoSource}
			case MinerBadSource:
				if m.Mem.MarkRetire(memory.RetireBadSource, v.Tick) {
					slog.Info("unit retired",
						"colony", v.Name(),
						"unit", m.Name(),
						"role", m.Role(),
						"reason", memory.RetireBadSource,
						"source", m.Mem.SourceID,
					)
				}
				return step{Mood: MoodBadSource}
			case MinerMissingStorage:
				return step{Mood: MoodNoStorage}
			case MinerMoveToStorage:
				_, err := r.moveTo(v, m, minerSeat(v, m.Mem.SourceID).Pos, 0)
				return step{Mood: MoodMove, Err: err}
			}
			err := r.Sender.Send(ipc.TypeHarvest, ipc.HarvestCommand{Unit: m.Name(), SourceID: m.Mem.SourceID})
			return step{Mood: MoodMine, Err: err}
		},
	})
}
