package colony

import (
	"testing"

	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
)

func testColony() *model.ColonyState {
	return &model.ColonyState{
		Name:            "W1N1",
		EnergyAvailable: 300,
		EnergyCapacity:  550,
		ControllerLevel: 3,
		Controller:      &model.Pos{X: 25, Y: 25},
		Sources: []model.Source{
			{ID: "s1", Pos: model.Pos{X: 5, Y: 5}},
			{ID: "s2", Pos: model.Pos{X: 40, Y: 40}},
		},
		Structures: []model.Structure{
			{ID: "spawn1", Type: model.StructureSpawn, Pos: model.Pos{X: 20, Y: 20}},
			{ID: "c1", Type: model.StructureContainer, Pos: model.Pos{X: 6, Y: 5}, Energy: 500, Capacity: 2000},
			{ID: "l1", Type: model.StructureLink, Pos: model.Pos{X: 5, Y: 6}},
			{ID: "l2", Type: model.StructureLink, Pos: model.Pos{X: 27, Y: 27}},
			{ID: "st", Type: model.StructureStorage, Pos: model.Pos{X: 15, Y: 15}},
			{ID: "l3", Type: model.StructureLink, Pos: model.Pos{X: 16, Y: 16}},
			{ID: "l4", Type: model.StructureLink, Pos: model.Pos{X: 10, Y: 30}},
		},
		Units: []model.Unit{
			{Name: "miner-a", TicksToLive: 500},
			{Name: "miner-b", TicksToLive: 30, Spawning: true},
			{Name: "h1", TicksToLive: 100, Carry: 10, CarryCapacity: 50},
			{Name: "h2", TicksToLive: 100, Carry: 50, CarryCapacity: 50},
		},
	}
}

func TestBuildIndexes(t *testing.T) {
	book := memory.NewBook()
	book.Unit("miner-a").Role = "miner"
	book.Unit("miner-a").SourceID = "s1"
	book.Unit("miner-b").Role = "miner"
	book.Unit("h1").Role = "harvester"

	v := Build(testColony(), book, 10)

	if got := len(v.Members()); got != 4 {
		t.Fatalf("expected 4 members, got %d", got)
	}
	if m := v.Member("h2"); m == nil || m.Mem.Home != "W1N1" {
		t.Error("unknown unit should get a record homed to the colony")
	}
	if got := len(v.Role("miner")); got != 2 {
		t.Errorf("miner role size = %d, want 2", got)
	}
	census := v.Census("miner")
	if len(census) != 1 || census[0].Name() != "miner-a" {
		t.Errorf("census should exclude spawning units, got %d members", len(census))
	}
	if v.IdleSpawn() == nil || v.IdleSpawn().ID != "spawn1" {
		t.Error("expected spawn1 to be idle")
	}
}

func TestActiveCountIncludesNearDeathRetirees(t *testing.T) {
	book := memory.NewBook()
	book.Unit("h1").Role = "harvester"
	book.Unit("h1").MarkRetire(memory.RetireNearDeath, 1)
	book.Unit("h2").Role = "harvester"
	book.Unit("h2").MarkRetire(memory.RetireExcess, 1)

	v := Build(testColony(), book, 2)
	if got := v.ActiveCount("harvester"); got != 1 {
		t.Errorf("ActiveCount = %d, want 1", got)
	}
	if got := len(v.Census("harvester")); got != 0 {
		t.Errorf("census should hold no retiring units, got %d", got)
	}
}

func TestContainersAndPipelines(t *testing.T) {
	book := memory.NewBook()
	book.Unit("miner-a").Role = "miner"
	book.Unit("miner-a").SourceID = "s1"

	v := Build(testColony(), book, 1)
	if v.ContainersReady() {
		t.Error("s2 has no container, so containers should not be ready")
	}
	with := v.SourcesWithContainer()
	if len(with) != 1 || with[0].ID != "s1" {
		t.Fatalf("SourcesWithContainer = %v, want [s1]", with)
	}
	units := v.StorageUnits("s1")
	if len(units) != 2 || units[0].ID != "l1" || units[1].ID != "c1" {
		t.Errorf("storage units should list the link before the container, got %d", len(units))
	}
	pipes := v.ActivePipelines()
	if len(pipes) != 1 || pipes[0].ID != "s1" {
		t.Errorf("ActivePipelines = %v, want [s1]", pipes)
	}

	book.Unit("miner-a").MarkRetire(memory.RetireExcess, 1)
	v = Build(testColony(), book, 2)
	if got := len(v.ActivePipelines()); got != 0 {
		t.Errorf("retiring miner should not keep a pipeline active, got %d", got)
	}
}

func TestLinkRoles(t *testing.T) {
	v := Build(testColony(), memory.NewBook(), 1)
	tests := map[string]LinkRole{
		"l1": LinkSource,
		"l2": LinkController,
		"l3": LinkStorage,
		"l4": LinkHub,
		"c1": "",
	}
	for id, want := range tests {
		if got := v.LinkRoleOf(id); got != want {
			t.Errorf("LinkRoleOf(%s) = %q, want %q", id, got, want)
		}
	}
}

func TestClaimants(t *testing.T) {
	book := memory.NewBook()
	book.Unit("h1").WithdrawID = "c1"
	book.Unit("h2").WithdrawID = "c1" // full, so not counted
	book.Unit("miner-a").WithdrawID = "c1"

	v := Build(testColony(), book, 1)
	// miner-a has zero carry capacity and therefore no free space.
	if got := v.Claimants("c1"); got != 1 {
		t.Errorf("Claimants(c1) = %d, want 1", got)
	}
}

func TestRepairsNeeded(t *testing.T) {
	st := testColony()
	st.Structures = append(st.Structures,
		model.Structure{ID: "r1", Type: model.StructureRoad, Hits: 1000, HitsMax: 5000},
		model.Structure{ID: "r2", Type: model.StructureRoad, Hits: 4900, HitsMax: 5000},
	)
	v := Build(st, memory.NewBook(), 1)
	if v.RepairsNeeded(DefaultRepairOpts) {
		t.Error("4000 missing hits should stay under the threshold")
	}
	if got := len(v.DamagedStructures(DefaultRepairOpts)); got != 1 {
		t.Errorf("DamagedStructures = %d, want 1", got)
	}

	st.Structures = append(st.Structures,
		model.Structure{ID: "cx", Type: model.StructureContainer, Hits: 100000, HitsMax: 250000},
	)
	v = Build(st, memory.NewBook(), 1)
	if !v.RepairsNeeded(DefaultRepairOpts) {
		t.Error("damaged container should trigger repairs")
	}
}

func TestValuableSites(t *testing.T) {
	st := testColony()
	st.Sites = []model.Site{
		{ID: "a", Type: model.StructureExtension},
		{ID: "b", Type: model.StructureRoad},
		{ID: "c", Type: "rampart"},
		{ID: "d", Type: "observer"},
	}
	v := Build(st, memory.NewBook(), 1)
	if got := v.ValuableSites(); got != 2 {
		t.Errorf("ValuableSites = %d, want 2", got)
	}
}
