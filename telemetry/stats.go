// Package telemetry publishes what the economy is doing: per-colony stats,
// a compressed decision journal and a live websocket stream.
package telemetry

import (
	"sort"
	"sync"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

type RoleStats struct {
	Current  int `json:"current"`
	Target   int `json:"target"`
	Retiring int `json:"retiring"`
}

// ColonyStats is one colony's economy at the end of a tick.
type ColonyStats struct {
	Tick            int                  `json:"tick"`
	Colony          string               `json:"colony"`
	Energy          int                  `json:"energy"`
	Capacity        int                  `json:"capacity"`
	Roles           map[string]RoleStats `json:"roles"`
	PendingRequests map[string]int       `json:"pendingRequests"`
	Plan            *memory.Plan         `json:"plan,omitempty"`
}

// Compute summarises v. Demand is evaluated fresh so retirements made
// earlier in the tick are reflected.
func Compute(v *colony.View, reg *roles.Registry) ColonyStats {
	st := ColonyStats{
		Tick:            v.Tick,
		Colony:          v.Name(),
		Energy:          v.State.EnergyAvailable,
		Capacity:        v.State.EnergyCapacity,
		Roles:           make(map[string]RoleStats, len(reg.Specs())),
		PendingRequests: make(map[string]int),
		Plan:            v.Book.CurrentPlan(v.Name(), v.Tick),
	}

	for _, spec := range reg.Specs() {
		d := policy.DemandFor(v, spec)
		rs := RoleStats{Current: v.ActiveCount(spec.Name), Target: d.Target()}
		held := make(map[string]bool)
		for _, m := range v.Role(spec.Name) {
			if m.Retiring() {
				rs.Retiring++
				continue
			}
			if k := policy.RequestKey(spec.Name, m.Mem); k != "" {
				held[k] = true
			}
		}
		st.Roles[spec.Name] = rs

		if len(d.Slots) == 0 {
			continue
		}
		pending := 0
		for _, k := range d.Keys() {
			if !held[k] {
				pending++
			}
		}
		st.PendingRequests[spec.Name] = pending
	}
	return st
}

// Recorder caches each colony's stats for the tick they were computed on,
// so every reader in the same tick sees one consistent value.
type Recorder struct {
	Roles *roles.Registry

	mu       sync.RWMutex
	byColony map[string]ColonyStats
}

func NewRecorder(reg *roles.Registry) *Recorder {
	return &Recorder{Roles: reg, byColony: make(map[string]ColonyStats)}
}

// Stats returns the cached stats for v's colony, computing them on the
// first call of a tick.
func (r *Recorder) Stats(v *colony.View) ColonyStats {
	r.mu.RLock()
	st, ok := r.byColony[v.Name()]
	r.mu.RUnlock()
	if ok && st.Tick == v.Tick {
		return st
	}

	st = Compute(v, r.Roles)
	r.mu.Lock()
	r.byColony[v.Name()] = st
	r.mu.Unlock()
	return st
}

// Snapshot returns the latest stats of every colony, sorted by name.
func (r *Recorder) Snapshot() []ColonyStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ColonyStats, 0, len(r.byColony))
	for _, st := range r.byColony {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Colony < out[j].Colony })
	return out
}
