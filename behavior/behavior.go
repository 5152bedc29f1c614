// Package behavior drives individual units once the colony-level decisions
// for the tick are made. Every behavior is a small fsm.Machine whose result
// is the unit's mood tag and the error from issuing its commands.
package behavior

import (
	"errors"
	"log/slog"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

// Moods sent to the host as say commands.
const (
	MoodIdle      = "idle"
	MoodMove      = "move"
	MoodMine      = "mine"
	MoodHarvest   = "harvest"
	MoodWithdraw  = "withdraw"
	MoodDeposit   = "deposit"
	MoodBuild     = "build"
	MoodRepair    = "repair"
	MoodUpgrade   = "upgrade"
	MoodRecycle   = "recycle"
	MoodPark      = "park"
	MoodDrop      = "drop"
	MoodNoSource  = "no-source"
	MoodBadSource = "bad-source"
	MoodNoStorage = "no-storage"
)

// step is what one tick of a behavior produced.
type step struct {
	Mood string
	Err  error
}

// Runner runs the per-unit behaviors of one colony.
type Runner struct {
	Sender  ipc.Sender
	Move    MoveOpts
	Weights policy.Weights
	Sites   policy.SiteOpts
	Repair  colony.RepairOpts
	// WithdrawWithin is the radius of the prefer-only store search around a
	// unit's work anchor. HarvestWithin bounds the near-anchor source search.
	WithdrawWithin int
	HarvestWithin  int
}

func NewRunner(sender ipc.Sender) *Runner {
	return &Runner{
		Sender:         sender,
		Move:           DefaultMoveOpts,
		Weights:        policy.DefaultWeights,
		Sites:          policy.DefaultSiteOpts,
		Repair:         colony.DefaultRepairOpts,
		WithdrawWithin: 12,
		HarvestWithin:  3,
	}
}

// Tick runs every fully spawned unit of the colony. A unit's command errors
// are collected and do not stop the others.
func (r *Runner) Tick(v *colony.View) error {
	var errs []error
	for _, m := range v.Members() {
		if !m.Usable() {
			continue
		}
		if err := r.Run(v, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run advances one unit. Retiring units always run the terminal behavior.
func (r *Runner) Run(v *colony.View, m *colony.Member) error {
	var res step
	switch {
	case m.Retiring():
		res = r.runRetire(v, m)
	case m.Role() == roles.Miner:
		res = r.runMiner(v, m)
	case isWorker(m.Role()):
		res = r.runWorker(v, m)
	default:
		res = step{Mood: MoodIdle}
	}
	if err := r.say(m, res.Mood); err != nil {
		res.Err = errors.Join(res.Err, err)
	}
	if res.Err != nil {
		slog.Warn("unit command failed", "unit", m.Name(), "role", m.Role(), "error", res.Err)
	}
	return res.Err
}

// say reports the mood to the host only when it changed.
func (r *Runner) say(m *colony.Member, mood string) error {
	if mood == "" || mood == m.Mem.Mood {
		return nil
	}
	m.Mem.Mood = mood
	return r.Sender.Send(ipc.TypeSay, ipc.SayCommand{Unit: m.Name(), Text: mood})
}

func isWorker(role string) bool {
	switch role {
	case roles.Harvester, roles.Mover, roles.Builder, roles.Upgrader:
		return true
	}
	return false
}
