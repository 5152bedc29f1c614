package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/warren/warren-core/behavior"
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/config"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
	"github.com/nstehr/warren/warren-core/roles"
	"github.com/nstehr/warren/warren-core/spawning"
	"github.com/nstehr/warren/warren-core/telemetry"
)

const storeTimeout = 5 * time.Second

// Journal and Publisher are the telemetry sinks. Either may be nil.
type Journal interface {
	Write(v any) error
}

type Publisher interface {
	Publish(v any) error
}

// Options wires an Agent to the process-wide pieces it shares with other
// connections.
type Options struct {
	Config  config.Config
	Roles   *roles.Registry
	Store   memory.Store
	Stats   *telemetry.Recorder
	Journal Journal
	Hub     Publisher
}

// Agent runs the colony economy for a single host connection.
type Agent struct {
	conn    ipc.Sender
	session string
	Player  string

	planner *spawning.Planner
	retirer *spawning.Retirer
	spawner *spawning.Spawner
	runner  *behavior.Runner

	store   memory.Store
	stats   *telemetry.Recorder
	journal Journal
	hub     Publisher

	book      *memory.Book
	snapshots map[string]*colonySnapshot
	terrain   map[string]*model.TerrainGrid
}

func New(conn ipc.Sender, session string, opts Options) *Agent {
	cfg := opts.Config
	planner := spawning.NewPlanner(opts.Roles, cfg.Exempt)
	planner.Bootstrap = cfg.Bootstrap
	planner.Foundation = cfg.Foundation

	runner := behavior.NewRunner(conn)
	runner.Move = cfg.Move
	runner.Weights = cfg.Weights

	stats := opts.Stats
	if stats == nil {
		stats = telemetry.NewRecorder(opts.Roles)
	}
	store := opts.Store
	if store == nil {
		store = &memory.MemStore{}
	}
	return &Agent{
		conn:      conn,
		session:   session,
		planner:   planner,
		retirer:   spawning.NewRetirer(opts.Roles, cfg.Exempt, cfg.NearDeathTTL),
		spawner:   &spawning.Spawner{Roles: opts.Roles, Sender: conn},
		runner:    runner,
		store:     store,
		stats:     stats,
		journal:   opts.Journal,
		hub:       opts.Hub,
		snapshots: make(map[string]*colonySnapshot),
		terrain:   make(map[string]*model.TerrainGrid),
	}
}

// HandleHello completes the handshake so the host knows the sidecar is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}
	a.Player = hello.Player
	slog.Info("player identified", "player", a.Player, "session", a.session)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Session: a.session})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// owner keys this connection's memory in the store. Connections that never
// said hello fall back to their session.
func (a *Agent) owner() string {
	if a.Player != "" {
		return a.Player
	}
	return a.session
}

// countingSender tallies the commands issued during one world state.
type countingSender struct {
	next ipc.Sender
	n    int
}

func (c *countingSender) Send(msgType string, data any) error {
	if err := c.next.Send(msgType, data); err != nil {
		return err
	}
	c.n++
	return nil
}

// HandleWorldState runs one tick for every colony in the snapshot, prunes
// memory of units that no longer exist and saves it.
func (a *Agent) HandleWorldState(env ipc.Envelope) (*ipc.Envelope, error) {
	var ws model.WorldState
	if err := json.Unmarshal(env.Data, &ws); err != nil {
		return nil, fmt.Errorf("unmarshal WorldState: %w", err)
	}

	if a.book == nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		book, err := a.store.Load(ctx, a.owner())
		cancel()
		if err != nil {
			return nil, fmt.Errorf("load memory: %w", err)
		}
		a.book = book
	}
	a.book.Tick = ws.Tick

	sender := &countingSender{next: a.conn}
	a.spawner.Sender = sender
	a.runner.Sender = sender

	alive := make(map[string]bool)
	homes := make(map[string]bool, len(ws.Colonies))
	for i := range ws.Colonies {
		st := &ws.Colonies[i]
		homes[st.Name] = true
		for _, u := range st.Units {
			alive[u.Name] = true
		}
		spawned, err := a.runColony(st, ws.Tick)
		if err != nil {
			slog.Error("colony tick failed", "colony", st.Name, "tick", ws.Tick, "error", err)
		}
		// The host reports a new unit from the next snapshot on.
		if spawned != "" {
			alive[spawned] = true
		}
	}
	if n := a.book.Prune(alive, homes); n > 0 {
		slog.Debug("pruned unit memory", "records", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := a.store.Save(ctx, a.owner(), a.book); err != nil {
		slog.Error("failed to save memory", "tick", ws.Tick, "error", err)
	}

	slog.Debug("world state processed",
		"player", a.Player,
		"tick", ws.Tick,
		"colonies", len(ws.Colonies),
		"commands", sender.n,
	)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{
		Status:   "ok",
		Session:  a.session,
		Tick:     ws.Tick,
		Commands: sender.n,
	})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// runColony is the per-colony pipeline: plan, retire, spawn, behaviors,
// then telemetry. It returns the name of the unit spawned this tick, if any.
func (a *Agent) runColony(st *model.ColonyState, tick int) (string, error) {
	// Terrain only arrives with the first snapshot of a colony.
	if st.Terrain != nil {
		a.terrain[st.Name] = st.Terrain
	} else {
		st.Terrain = a.terrain[st.Name]
	}
	v := colony.Build(st, a.book, tick)

	for _, ev := range detectEvents(v, a.snapshots[st.Name]) {
		slog.Info("colony event", "colony", ev.Colony, "kind", ev.Kind, "unit", ev.Unit, "role", ev.Role, "detail", ev.Detail)
		a.emit(telemetry.Record{Kind: string(ev.Kind), Tick: tick, Colony: st.Name, Data: ev})
	}

	// A retransmitted tick keeps the decision already made for it.
	plan := a.planner.CachedPlan(v)
	for _, r := range a.retirer.Run(v, plan) {
		a.emit(telemetry.Record{Kind: "unit_retired", Tick: tick, Colony: st.Name, Data: r})
	}

	name, err := a.spawner.Execute(v, plan.Spawn)
	switch {
	case errors.Is(err, spawning.ErrNoIdleSpawn):
		slog.Debug("spawn skipped", "colony", st.Name, "reason", err)
	case err != nil:
		slog.Warn("spawn rejected", "colony", st.Name, "role", plan.Spawn.Role, "error", err)
	case name != "":
		a.emit(telemetry.Record{Kind: "spawn", Tick: tick, Colony: st.Name, Data: plan.Spawn})
	}

	behaviorErr := a.runner.Tick(v)

	stats := a.stats.Stats(v)
	a.emit(telemetry.Record{Kind: "stats", Tick: tick, Colony: st.Name, Data: stats})

	snap := takeSnapshot(v)
	a.snapshots[st.Name] = &snap

	if behaviorErr != nil {
		return name, fmt.Errorf("behaviors: %w", behaviorErr)
	}
	return name, nil
}

func (a *Agent) emit(r telemetry.Record) {
	if a.journal != nil {
		if err := a.journal.Write(r); err != nil {
			slog.Warn("journal write failed", "kind", r.Kind, "error", err)
		}
	}
	if a.hub != nil {
		if err := a.hub.Publish(r); err != nil {
			slog.Warn("telemetry publish failed", "kind", r.Kind, "error", err)
		}
	}
}
