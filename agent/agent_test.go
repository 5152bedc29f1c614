package agent

import (
	"context"
	"testing"

	"github.com/nstehr/warren/warren-core/config"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/roles"
	"github.com/nstehr/warren/warren-core/telemetry"
)

type recordJournal struct {
	recs []telemetry.Record
}

func (j *recordJournal) Write(v any) error {
	j.recs = append(j.recs, v.(telemetry.Record))
	return nil
}

func (j *recordJournal) kinds(kind string) []telemetry.Record {
	var out []telemetry.Record
	for _, r := range j.recs {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func newAgent(t *testing.T, store memory.Store) (*Agent, *ipc.Recorder, *recordJournal) {
	t.Helper()
	return newSessionAgent(t, store, "sess-1")
}

func newSessionAgent(t *testing.T, store memory.Store, session string) (*Agent, *ipc.Recorder, *recordJournal) {
	t.Helper()
	rec := &ipc.Recorder{}
	j := &recordJournal{}
	a := New(rec, session, Options{
		Config:  config.Default(),
		Roles:   roles.MustDefault(),
		Store:   store,
		Journal: j,
	})
	return a, rec, j
}

func worldEnvelope(t *testing.T, ws model.WorldState) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(ipc.TypeWorldState, ws)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func starterColony() model.ColonyState {
	return model.ColonyState{
		Name:            "W1N1",
		EnergyAvailable: 300,
		EnergyCapacity:  300,
		ControllerLevel: 1,
		Sources:         []model.Source{{ID: "s1", Pos: model.Pos{X: 10, Y: 10}, Energy: 3000}},
		Structures: []model.Structure{
			{ID: "spawn1", Type: model.StructureSpawn, Pos: model.Pos{X: 20, Y: 20}, Energy: 300, Capacity: 300},
			{ID: "c1", Type: model.StructureContainer, Pos: model.Pos{X: 10, Y: 11}, Capacity: 2000},
		},
	}
}

func TestHandleHello(t *testing.T) {
	a, _, _ := newAgent(t, nil)
	env, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{Player: "alice"})

	resp, err := a.HandleHello(env)
	if err != nil {
		t.Fatalf("HandleHello: %v", err)
	}
	var ack ipc.AckMessage
	if err := resp.Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if resp.Type != ipc.TypeAck || ack.Status != "ok" || ack.Session != "sess-1" {
		t.Errorf("ack = %s %+v", resp.Type, ack)
	}
	if a.Player != "alice" {
		t.Errorf("player = %q", a.Player)
	}
}

func TestHandleWorldStateBootstrapsColony(t *testing.T) {
	store := &memory.MemStore{}
	a, rec, j := newAgent(t, store)

	resp, err := a.HandleWorldState(worldEnvelope(t, model.WorldState{
		Tick:     5,
		Colonies: []model.ColonyState{starterColony()},
	}))
	if err != nil {
		t.Fatalf("HandleWorldState: %v", err)
	}

	var ack ipc.AckMessage
	if err := resp.Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Tick != 5 || ack.Commands != 1 {
		t.Errorf("ack = %+v, want tick 5 with 1 command", ack)
	}
	if len(rec.OfType(ipc.TypeSpawn)) != 1 {
		t.Fatalf("expected the bootstrap spawn, got %d envelopes", len(rec.Sent))
	}

	saved, _ := store.Load(context.Background(), "sess-1")
	mem := saved.Units["harvester-5"]
	if mem == nil || mem.Role != roles.Harvester || mem.Home != "W1N1" {
		t.Errorf("spawned unit memory = %+v", mem)
	}
	if len(j.kinds("spawn")) != 1 || len(j.kinds("stats")) != 1 {
		t.Errorf("journal = %+v", j.recs)
	}
}

func TestHandleWorldStateDiffsAndPrunes(t *testing.T) {
	store := &memory.MemStore{}
	seed := memory.NewBook()
	old := seed.Unit("h-old")
	old.Role = roles.Harvester
	old.Home = "W1N1"
	old.MarkRetire(memory.RetireExcess, 1)
	live := seed.Unit("h-live")
	live.Role = roles.Harvester
	live.Home = "W1N1"
	_ = store.Save(context.Background(), "sess-1", seed)

	a, _, j := newAgent(t, store)

	first := starterColony()
	first.Units = []model.Unit{
		{Name: "h-old", Pos: model.Pos{X: 20, Y: 21}, TicksToLive: 40},
		{Name: "h-live", Pos: model.Pos{X: 11, Y: 11}, TicksToLive: 900},
	}
	if _, err := a.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 10, Colonies: []model.ColonyState{first}})); err != nil {
		t.Fatal(err)
	}

	second := starterColony()
	second.Units = []model.Unit{{Name: "h-new", Pos: model.Pos{X: 20, Y: 19}, TicksToLive: 1500, Spawning: true}}
	if _, err := a.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 11, Colonies: []model.ColonyState{second}})); err != nil {
		t.Fatal(err)
	}

	want := map[string]EventKind{
		"h-old":  EventUnitExpired,
		"h-live": EventUnitLost,
		"h-new":  EventUnitSpawned,
	}
	seen := make(map[string]EventKind)
	for _, kind := range []EventKind{EventUnitExpired, EventUnitLost, EventUnitSpawned} {
		for _, r := range j.kinds(string(kind)) {
			seen[r.Data.(Event).Unit] = kind
		}
	}
	for unit, kind := range want {
		if seen[unit] != kind {
			t.Errorf("%s: event %q, want %q", unit, seen[unit], kind)
		}
	}

	saved, _ := store.Load(context.Background(), "sess-1")
	for _, gone := range []string{"h-old", "h-live"} {
		if _, ok := saved.Units[gone]; ok {
			t.Errorf("memory of %s should have been pruned", gone)
		}
	}
	if saved.Tick != 11 {
		t.Errorf("book tick = %d, want 11", saved.Tick)
	}
}

func TestHandleWorldStateRejectsGarbage(t *testing.T) {
	a, _, _ := newAgent(t, nil)
	if _, err := a.HandleWorldState(ipc.Envelope{Type: ipc.TypeWorldState, Data: []byte("{")}); err == nil {
		t.Error("malformed world state should fail")
	}
}

func hello(t *testing.T, a *Agent, player string) {
	t.Helper()
	env, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{Player: player})
	if _, err := a.HandleHello(env); err != nil {
		t.Fatal(err)
	}
}

func TestConnectionsKeepSeparateMemory(t *testing.T) {
	store := &memory.MemStore{}
	alice, _, _ := newSessionAgent(t, store, "sess-a")
	bob, _, _ := newSessionAgent(t, store, "sess-b")
	hello(t, alice, "alice")
	hello(t, bob, "bob")

	home := starterColony()
	home.Units = []model.Unit{{Name: "old", Pos: model.Pos{X: 30, Y: 30}, TicksToLive: 800}}
	if _, err := alice.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 20, Colonies: []model.ColonyState{home}})); err != nil {
		t.Fatal(err)
	}
	alice.book.Units["old"].Role = roles.Harvester
	alice.book.Units["old"].MarkRetire(memory.RetireExcess, 20)

	other := starterColony()
	other.Name = "W5N5"
	if _, err := bob.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 20, Colonies: []model.ColonyState{other}})); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 21, Colonies: []model.ColonyState{home}})); err != nil {
		t.Fatal(err)
	}

	mem := alice.book.Units["old"]
	if mem == nil || mem.Role != roles.Harvester || mem.Retire == nil || mem.Retire.Reason != memory.RetireExcess {
		t.Errorf("alice's retiree after bob's tick = %+v", mem)
	}
	if _, ok := bob.book.Units["old"]; ok {
		t.Error("bob's memory should not contain alice's unit")
	}

	saved, _ := store.Load(context.Background(), "alice")
	if saved.Units["old"] == nil || saved.Units["old"].Retire == nil {
		t.Errorf("stored retiree = %+v", saved.Units["old"])
	}
	theirs, _ := store.Load(context.Background(), "bob")
	if _, ok := theirs.Units["old"]; ok {
		t.Error("alice's unit leaked into bob's stored memory")
	}
}

func TestTerrainIsRememberedAcrossTicks(t *testing.T) {
	a, _, _ := newAgent(t, nil)

	first := starterColony()
	first.Terrain = &model.TerrainGrid{Cols: 50, Rows: 50, Grid: make([]model.TerrainType, 50*50)}
	first.Terrain.Grid[5*50+5] = model.Wall
	if _, err := a.HandleWorldState(worldEnvelope(t, model.WorldState{Tick: 1, Colonies: []model.ColonyState{first}})); err != nil {
		t.Fatal(err)
	}

	second := starterColony()
	if _, err := a.runColony(&second, 2); err != nil {
		t.Fatal(err)
	}
	if second.Terrain == nil || second.Terrain.At(5, 5) != model.Wall {
		t.Error("later snapshots should reuse the terrain from the first")
	}
}

func TestRetransmittedTickKeepsPlan(t *testing.T) {
	a, rec, _ := newAgent(t, nil)
	ws := model.WorldState{Tick: 5, Colonies: []model.ColonyState{starterColony()}}

	if _, err := a.HandleWorldState(worldEnvelope(t, ws)); err != nil {
		t.Fatal(err)
	}
	plan := a.book.Colonies["W1N1"].Plan
	if _, err := a.HandleWorldState(worldEnvelope(t, ws)); err != nil {
		t.Fatal(err)
	}

	if a.book.Colonies["W1N1"].Plan != plan {
		t.Error("the same tick should reuse its plan")
	}
	if n := len(rec.OfType(ipc.TypeSpawn)); n != 1 {
		t.Errorf("spawn commands = %d, want 1", n)
	}
}
