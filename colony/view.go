// Package colony builds the per-tick index over one colony's snapshot and
// the sidecar's memory. Everything downstream reads the world through it.
package colony

import (
	"sort"

	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
)

// Member pairs a live unit with its memory record.
type Member struct {
	Unit *model.Unit
	Mem  *memory.Unit
}

func (m *Member) Name() string   { return m.Unit.Name }
func (m *Member) Role() string   { return m.Mem.Role }
func (m *Member) TTL() int       { return m.Unit.TicksToLive }
func (m *Member) Retiring() bool { return m.Mem.Retiring() }

// Usable reports whether the unit has finished spawning, so its lifetime
// is meaningful for retirement decisions.
func (m *Member) Usable() bool { return !m.Unit.Spawning }

// View is built once per colony per tick. Retirement markers written through
// Member.Mem are visible to every later query in the same tick.
type View struct {
	State *model.ColonyState
	Book  *memory.Book
	Tick  int

	members    []*Member
	byName     map[string]*Member
	byRole     map[string][]*Member
	structures map[string]*model.Structure
	byType     map[string][]*model.Structure
	sources    map[string]*model.Source
	dropped    map[string]*model.Dropped
	sites      map[string]*model.Site
	storeUnits map[string][]*model.Structure // source id → adjacent container/link
	linkRoles  map[string]LinkRole
}

// Build indexes state against book. Units without a memory record get an
// empty one, which leaves them roleless until something claims them.
func Build(state *model.ColonyState, book *memory.Book, tick int) *View {
	v := &View{
		State:      state,
		Book:       book,
		Tick:       tick,
		byName:     make(map[string]*Member, len(state.Units)),
		byRole:     make(map[string][]*Member),
		structures: make(map[string]*model.Structure, len(state.Structures)),
		byType:     make(map[string][]*model.Structure),
		sources:    make(map[string]*model.Source, len(state.Sources)),
		dropped:    make(map[string]*model.Dropped, len(state.Dropped)),
		sites:      make(map[string]*model.Site, len(state.Sites)),
		storeUnits: make(map[string][]*model.Structure),
		linkRoles:  make(map[string]LinkRole),
	}

	for i := range state.Units {
		u := &state.Units[i]
		mem := book.Unit(u.Name)
		if mem.Home == "" {
			mem.Home = state.Name
		}
		m := &Member{Unit: u, Mem: mem}
		v.members = append(v.members, m)
		v.byName[u.Name] = m
		if mem.Role != "" {
			v.byRole[mem.Role] = append(v.byRole[mem.Role], m)
		}
	}

	for i := range state.Structures {
		s := &state.Structures[i]
		v.structures[s.ID] = s
		v.byType[s.Type] = append(v.byType[s.Type], s)
	}
	for i := range state.Sources {
		v.sources[state.Sources[i].ID] = &state.Sources[i]
	}
	for i := range state.Dropped {
		v.dropped[state.Dropped[i].ID] = &state.Dropped[i]
	}
	for i := range state.Sites {
		v.sites[state.Sites[i].ID] = &state.Sites[i]
	}

	for i := range state.Sources {
		src := &state.Sources[i]
		// Links first so a source with both prefers handing energy to the link.
		for _, typ := range []string{model.StructureLink, model.StructureContainer} {
			for _, s := range v.byType[typ] {
				if s.Pos.Range(src.Pos) <= 1 {
					v.storeUnits[src.ID] = append(v.storeUnits[src.ID], s)
				}
			}
		}
	}
	for _, l := range v.byType[model.StructureLink] {
		v.linkRoles[l.ID] = v.classifyLink(l)
	}
	return v
}

func (v *View) Name() string { return v.State.Name }

// Members returns every live unit in the colony.
func (v *View) Members() []*Member { return v.members }

func (v *View) Member(name string) *Member { return v.byName[name] }

// Role returns the members currently carrying the role tag, including
// retiring and spawning units.
func (v *View) Role(role string) []*Member { return v.byRole[role] }

// ActiveCount counts planning-active units of role.
func (v *View) ActiveCount(role string) int {
	n := 0
	for _, m := range v.byRole[role] {
		if m.Mem.PlanningActive() {
			n++
		}
	}
	return n
}

// Census returns non-retiring, fully spawned units of role sorted by
// name. This is the population the retirement manager reasons about.
func (v *View) Census(role string) []*Member {
	var out []*Member
	for _, m := range v.byRole[role] {
		if m.Retiring() || !m.Usable() {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (v *View) Structure(id string) *model.Structure { return v.structures[id] }
func (v *View) Source(id string) *model.Source       { return v.sources[id] }
func (v *View) Dropped(id string) *model.Dropped     { return v.dropped[id] }
func (v *View) Site(id string) *model.Site           { return v.sites[id] }

// OfType returns structures of the given types in snapshot order.
func (v *View) OfType(types ...string) []*model.Structure {
	var out []*model.Structure
	for _, t := range types {
		out = append(out, v.byType[t]...)
	}
	return out
}

// Spawns returns the colony's production facilities.
func (v *View) Spawns() []*model.Structure { return v.byType[model.StructureSpawn] }

// IdleSpawn returns the first spawn not already producing a unit.
func (v *View) IdleSpawn() *model.Structure {
	for _, s := range v.Spawns() {
		if !s.Busy {
			return s
		}
	}
	return nil
}

// StorageUnits returns the links and containers adjacent to a source.
func (v *View) StorageUnits(sourceID string) []*model.Structure {
	return v.storeUnits[sourceID]
}

func (v *View) hasContainer(sourceID string) bool {
	for _, s := range v.storeUnits[sourceID] {
		if s.Type == model.StructureContainer {
			return true
		}
	}
	return false
}

// SourcesWithContainer lists sources that already have a storage buffer, in
// snapshot order. These are the slots for dedicated miners.
func (v *View) SourcesWithContainer() []*model.Source {
	var out []*model.Source
	for i := range v.State.Sources {
		src := &v.State.Sources[i]
		if v.hasContainer(src.ID) {
			out = append(out, src)
		}
	}
	return out
}

// ContainersReady reports whether every source has a container next to it.
func (v *View) ContainersReady() bool {
	for i := range v.State.Sources {
		if !v.hasContainer(v.State.Sources[i].ID) {
			return false
		}
	}
	return true
}

// ActivePipelines returns the container-backed sources that have an active
// miner bound to them.
func (v *View) ActivePipelines() []*model.Source {
	mined := make(map[string]bool)
	for _, m := range v.byRole["miner"] {
		if m.Retiring() || m.Mem.SourceID == "" {
			continue
		}
		mined[m.Mem.SourceID] = true
	}
	var out []*model.Source
	for _, src := range v.SourcesWithContainer() {
		if mined[src.ID] {
			out = append(out, src)
		}
	}
	return out
}

// Claimants counts units in the colony that still have room for energy and
// have written targetID as their withdraw claim.
func (v *View) Claimants(targetID string) int {
	n := 0
	for _, m := range v.members {
		if m.Unit.FreeCapacity() == 0 {
			continue
		}
		if m.Mem.WithdrawID == targetID {
			n++
		}
	}
	return n
}
