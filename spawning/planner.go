package spawning

import (
	"log/slog"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

// Planner computes the per-tick production plan for a colony.
type Planner struct {
	Roles *roles.Registry
	// Bootstrap is spawned when every Foundation role is empty.
	Bootstrap  string
	Foundation []string
	// Exempt roles are never picked for upgrade replacement.
	Exempt map[string]bool
}

func NewPlanner(reg *roles.Registry, exempt []string) *Planner {
	p := &Planner{
		Roles:      reg,
		Bootstrap:  roles.Harvester,
		Foundation: []string{roles.Harvester, roles.Miner, roles.Mover},
		Exempt:     make(map[string]bool, len(exempt)),
	}
	for _, r := range exempt {
		p.Exempt[r] = true
	}
	return p
}

// demands memoizes role demand for the duration of one Plan call. Inputs do
// not change while planning, so each role is evaluated at most once.
type demands struct {
	v     *colony.View
	cache map[string]policy.Demand
}

func (d *demands) of(spec *roles.Spec) policy.Demand {
	if got, ok := d.cache[spec.Name]; ok {
		return got
	}
	got := policy.DemandFor(d.v, spec)
	d.cache[spec.Name] = got
	return got
}

// Plan runs the bootstrap check and the three priority passes, stores the
// result as the colony's plan and returns it. At most one spawn intent is
// ever produced.
func (p *Planner) Plan(v *colony.View) *memory.Plan {
	plan := p.plan(v)
	v.Book.Colony(v.Name()).Plan = plan
	if plan.Spawn != nil {
		slog.Debug("spawn planned",
			"colony", v.Name(),
			"role", plan.Spawn.Role,
			"kind", plan.Spawn.Kind,
			"key", plan.Spawn.Key,
			"reason", plan.Spawn.Reason,
			"blocked", plan.Spawn.BlockedByEnergy,
			"required", plan.Spawn.RequiredEnergy,
		)
	}
	return plan
}

// CachedPlan returns the colony's stored plan if it was computed this tick,
// and plans afresh otherwise.
func (p *Planner) CachedPlan(v *colony.View) *memory.Plan {
	if plan := v.Book.CurrentPlan(v.Name(), v.Tick); plan != nil {
		return plan
	}
	return p.Plan(v)
}

func (p *Planner) plan(v *colony.View) *memory.Plan {
	plan := &memory.Plan{Tick: v.Tick}
	d := &demands{v: v, cache: make(map[string]policy.Demand)}

	if p.starved(v) {
		if spec := p.Roles.Get(p.Bootstrap); spec != nil {
			sp := PlanForRole(v, spec, d.of(spec))
			plan.Spawn = &memory.SpawnIntent{
				Kind:            memory.IntentCount,
				Role:            spec.Name,
				Memory:          spec.BindingFor(v),
				BlockedByEnergy: sp.Blocked,
				RequiredEnergy:  sp.Cost,
				Reason:          memory.ReasonMissing,
			}
			return plan
		}
	}

	// Missing roles first. A blocked intent still stops the search.
	for _, spec := range p.Roles.Specs() {
		dem := d.of(spec)
		if dem.Target() <= 0 || v.ActiveCount(spec.Name) > 0 {
			continue
		}
		if intent := p.buildIntent(v, spec, dem, memory.ReasonMissing); intent != nil {
			plan.Spawn = intent
			return plan
		}
	}

	for _, spec := range p.Roles.Specs() {
		if intent := p.buildIntent(v, spec, d.of(spec), memory.ReasonNormal); intent != nil {
			plan.Spawn = intent
			return plan
		}
	}

	if p.stable(v, d) {
		p.planUpgrade(v, d, plan)
	}
	return plan
}

func (p *Planner) starved(v *colony.View) bool {
	n := 0
	for _, role := range p.Foundation {
		n += v.ActiveCount(role)
	}
	return n == 0
}

// stable reports whether every role with a target has reached it.
func (p *Planner) stable(v *colony.View, d *demands) bool {
	for _, spec := range p.Roles.Specs() {
		target := d.of(spec).Target()
		if target > 0 && v.ActiveCount(spec.Name) < target {
			return false
		}
	}
	return true
}

// slotFilled reports whether a planning-active unit of role holds key.
func slotFilled(v *colony.View, role, key string) bool {
	for _, m := range v.Role(role) {
		if !m.Mem.PlanningActive() {
			continue
		}
		if policy.RequestKey(role, m.Mem) == key {
			return true
		}
	}
	return false
}

func (p *Planner) buildIntent(v *colony.View, spec *roles.Spec, d policy.Demand, reason memory.IntentReason) *memory.SpawnIntent {
	sp := PlanForRole(v, spec, d)

	for _, req := range d.Slots {
		if slotFilled(v, spec.Name, req.Key) {
			continue
		}
		return &memory.SpawnIntent{
			Kind:            memory.IntentRequest,
			Role:            spec.Name,
			Key:             req.Key,
			NameHint:        req.NameHint,
			Memory:          req.Memory,
			BlockedByEnergy: sp.Blocked,
			RequiredEnergy:  sp.Cost,
			Reason:          reason,
		}
	}

	if v.ActiveCount(spec.Name) < d.Count {
		return &memory.SpawnIntent{
			Kind:            memory.IntentCount,
			Role:            spec.Name,
			Memory:          spec.BindingFor(v),
			BlockedByEnergy: sp.Blocked,
			RequiredEnergy:  sp.Cost,
			Reason:          reason,
		}
	}
	return nil
}
