package telemetry

import (
	"bufio"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/roles"
)

func testView(tick int) *colony.View {
	st := &model.ColonyState{
		Name:            "W1N1",
		EnergyAvailable: 420,
		EnergyCapacity:  550,
		ControllerLevel: 2,
		Controller:      &model.Pos{X: 25, Y: 25},
		Sources: []model.Source{
			{ID: "s1", Pos: model.Pos{X: 5, Y: 5}},
			{ID: "s2", Pos: model.Pos{X: 15, Y: 5}},
		},
		Structures: []model.Structure{
			{ID: "spawn1", Type: model.StructureSpawn, Pos: model.Pos{X: 20, Y: 20}},
			{ID: "c1", Type: model.StructureContainer, Pos: model.Pos{X: 5, Y: 6}},
			{ID: "c2", Type: model.StructureContainer, Pos: model.Pos{X: 15, Y: 6}},
		},
		Units: []model.Unit{
			{Name: "miner-a", TicksToLive: 900},
			{Name: "h-old", TicksToLive: 300},
		},
	}
	book := memory.NewBook()
	miner := book.Unit("miner-a")
	miner.Role = roles.Miner
	miner.SourceID = "s1"
	h := book.Unit("h-old")
	h.Role = roles.Harvester
	h.MarkRetire(memory.RetireExcess, tick-1)
	book.Colony("W1N1").Plan = &memory.Plan{Tick: tick}
	return colony.Build(st, book, tick)
}

func TestCompute(t *testing.T) {
	st := Compute(testView(40), roles.MustDefault())

	if st.Tick != 40 || st.Colony != "W1N1" || st.Energy != 420 || st.Capacity != 550 {
		t.Errorf("header = %+v", st)
	}
	if st.Plan == nil {
		t.Error("current plan should be included")
	}
	tests := []struct {
		role string
		want RoleStats
	}{
		{roles.Miner, RoleStats{Current: 1, Target: 2}},
		{roles.Harvester, RoleStats{Current: 0, Target: 0, Retiring: 1}},
		{roles.Mover, RoleStats{Current: 0, Target: 1}},
	}
	for _, tc := range tests {
		if got := st.Roles[tc.role]; got != tc.want {
			t.Errorf("%s = %+v, want %+v", tc.role, got, tc.want)
		}
	}
	if len(st.PendingRequests) != 1 || st.PendingRequests[roles.Miner] != 1 {
		t.Errorf("pending = %v, want miner: 1", st.PendingRequests)
	}
}

func TestRecorderCachesPerTick(t *testing.T) {
	rec := NewRecorder(roles.MustDefault())
	v := testView(40)

	first := rec.Stats(v)
	v.State.EnergyAvailable = 10
	if got := rec.Stats(v); got.Energy != first.Energy {
		t.Errorf("same-tick read recomputed: energy %d, want %d", got.Energy, first.Energy)
	}

	next := testView(41)
	next.State.EnergyAvailable = 10
	if got := rec.Stats(next); got.Energy != 10 || got.Tick != 41 {
		t.Errorf("new tick should recompute, got %+v", got)
	}
	if snap := rec.Snapshot(); len(snap) != 1 || snap[0].Tick != 41 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func readJournal(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	var out []Record
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestJournalRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir, "warren")
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	j.now = func() time.Time { return clock }

	for _, r := range []Record{
		{Kind: "stats", Tick: 1, Colony: "W1N1"},
		{Kind: "unit_spawned", Tick: 2, Colony: "W1N1"},
	} {
		if err := j.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	clock = clock.Add(2 * time.Minute)
	if err := j.Write(Record{Kind: "stats", Tick: 3, Colony: "W1N1"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	if !strings.HasSuffix(files[0], "warren-2026-03-01-10.jsonl.zst") {
		t.Errorf("first file = %s", files[0])
	}
	if got := readJournal(t, files[0]); len(got) != 2 || got[1].Kind != "unit_spawned" {
		t.Errorf("first hour = %+v", got)
	}
	if got := readJournal(t, files[1]); len(got) != 1 || got[0].Tick != 3 {
		t.Errorf("second hour = %+v", got)
	}
}

func TestHubStreamsToClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(Mux(hub, NewRecorder(roles.MustDefault())))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := hub.Publish(Record{Kind: "stats", Tick: 7, Colony: "W1N1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Record
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Tick != 7 || got.Kind != "stats" {
		t.Errorf("received %+v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never left")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
