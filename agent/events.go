package agent

import (
	"fmt"
	"sort"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/policy"
)

// EventKind identifies a change between two consecutive colony snapshots
// worth journaling.
type EventKind string

const (
	EventUnitSpawned  EventKind = "unit_spawned"
	EventUnitExpired  EventKind = "unit_expired" // gone while retiring
	EventUnitLost     EventKind = "unit_lost"    // gone while still in service
	EventEnergyCrisis EventKind = "energy_crisis"
)

type Event struct {
	Kind   EventKind `json:"kind"`
	Tick   int       `json:"tick"`
	Colony string    `json:"colony"`
	Unit   string    `json:"unit,omitempty"`
	Role   string    `json:"role,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

type unitInfo struct {
	role     string
	retiring bool
}

// colonySnapshot captures the diffable fields of a colony at the end of a
// tick. The agent keeps one per colony and compares it with the next tick.
type colonySnapshot struct {
	units    map[string]unitInfo
	energy   int
	critical bool
}

// crisisLevel is the energy under which the colony cannot reliably afford
// a replacement worker.
func crisisLevel(capacity int) int {
	return min(policy.CriticalSpawnEnergy, capacity)
}

func takeSnapshot(v *colony.View) colonySnapshot {
	snap := colonySnapshot{
		units:    make(map[string]unitInfo, len(v.Members())),
		energy:   v.State.EnergyAvailable,
		critical: v.State.EnergyAvailable < crisisLevel(v.State.EnergyCapacity),
	}
	for _, m := range v.Members() {
		snap.units[m.Name()] = unitInfo{role: m.Role(), retiring: m.Retiring()}
	}
	return snap
}

// detectEvents compares the colony against the previous snapshot. Returns
// nil if prev is nil (first tick seen for this colony).
func detectEvents(v *colony.View, prev *colonySnapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event
	cur := takeSnapshot(v)

	for _, name := range sortedNames(cur.units) {
		if _, existed := prev.units[name]; existed {
			continue
		}
		events = append(events, Event{
			Kind:   EventUnitSpawned,
			Tick:   v.Tick,
			Colony: v.Name(),
			Unit:   name,
			Role:   cur.units[name].role,
		})
	}

	for _, name := range sortedNames(prev.units) {
		if _, alive := cur.units[name]; alive {
			continue
		}
		info := prev.units[name]
		kind := EventUnitLost
		if info.retiring {
			kind = EventUnitExpired
		}
		events = append(events, Event{
			Kind:   kind,
			Tick:   v.Tick,
			Colony: v.Name(),
			Unit:   name,
			Role:   info.role,
		})
	}

	// Only the transition into a crisis is reported, not every tick of it.
	if cur.critical && !prev.critical {
		events = append(events, Event{
			Kind:   EventEnergyCrisis,
			Tick:   v.Tick,
			Colony: v.Name(),
			Detail: fmt.Sprintf("energy %d→%d, below %d", prev.energy, cur.energy, crisisLevel(v.State.EnergyCapacity)),
		})
	}
	return events
}

func sortedNames(units map[string]unitInfo) []string {
	names := make([]string, 0, len(units))
	for n := range units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
