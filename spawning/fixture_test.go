package spawning

import (
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

type fixture struct {
	st   *model.ColonyState
	book *memory.Book
}

// newFixture builds a level 2 colony with the given sources. Sources listed
// in withContainer get an adjacent container.
func newFixture(available, capacity int, sources []string, withContainer ...string) *fixture {
	st := &model.ColonyState{
		Name:            "W1N1",
		EnergyAvailable: available,
		EnergyCapacity:  capacity,
		ControllerLevel: 2,
		Controller:      &model.Pos{X: 25, Y: 25},
		Structures: []model.Structure{
			{ID: "spawn1", Type: model.StructureSpawn, Pos: model.Pos{X: 20, Y: 20}},
		},
	}
	for i, id := range sources {
		pos := model.Pos{X: 5 + i*10, Y: 5}
		st.Sources = append(st.Sources, model.Source{ID: id, Pos: pos})
	}
	for _, id := range withContainer {
		for _, src := range st.Sources {
			if src.ID == id {
				st.Structures = append(st.Structures, model.Structure{
					ID:   "c-" + id,
					Type: model.StructureContainer,
					Pos:  model.Pos{X: src.Pos.X, Y: src.Pos.Y + 1},
				})
			}
		}
	}
	return &fixture{st: st, book: memory.NewBook()}
}

func (f *fixture) unit(name, role string, ttl int, edit func(*memory.Unit)) {
	f.st.Units = append(f.st.Units, model.Unit{Name: name, TicksToLive: ttl})
	mem := f.book.Unit(name)
	mem.Role = role
	if edit != nil {
		edit(mem)
	}
}

func (f *fixture) view(tick int) *colony.View {
	return colony.Build(f.st, f.book, tick)
}

func bound(source string) func(*memory.Unit) {
	return func(u *memory.Unit) { u.SourceID = source }
}

func cost(c int) func(*memory.Unit) {
	return func(u *memory.Unit) { u.SpawnCost = c }
}

func testPlanner() *Planner {
	return NewPlanner(roles.MustDefault(), []string{roles.Scout})
}

func testRetirer() *Retirer {
	return NewRetirer(roles.MustDefault(), []string{roles.Scout}, DefaultNearDeathTTL)
}

func demandOf(n int) policy.Demand { return policy.Demand{Count: n} }
