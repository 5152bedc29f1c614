package spawning

import (
	"log/slog"
	"sort"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

// DefaultNearDeathTTL is the lifetime at or below which a unit may be
// retired early in favour of a healthier peer.
const DefaultNearDeathTTL = 50

// Retired records one retirement decision.
type Retired struct {
	Unit   string              `json:"unit"`
	Role   string              `json:"role"`
	Reason memory.RetireReason `json:"reason"`
}

// Retirer marks units for decommission each tick.
type Retirer struct {
	Roles        *roles.Registry
	Exempt       map[string]bool
	NearDeathTTL int
}

func NewRetirer(reg *roles.Registry, exempt []string, nearDeathTTL int) *Retirer {
	r := &Retirer{
		Roles:        reg,
		Exempt:       make(map[string]bool, len(exempt)),
		NearDeathTTL: nearDeathTTL,
	}
	for _, role := range exempt {
		r.Exempt[role] = true
	}
	return r
}

// Run applies every retirement rule to the colony and returns the units it
// marked. Markers are written straight into the view's memory, so each rule
// sees the decisions of the ones before it.
func (r *Retirer) Run(v *colony.View, plan *memory.Plan) []Retired {
	var out []Retired
	mark := func(m *colony.Member, reason memory.RetireReason) {
		if !m.Mem.MarkRetire(reason, v.Tick) {
			return
		}
		slog.Info("unit retired",
			"colony", v.Name(),
			"unit", m.Name(),
			"role", m.Role(),
			"reason", reason,
			"ttl", m.TTL(),
		)
		out = append(out, Retired{Unit: m.Name(), Role: m.Role(), Reason: reason})
	}

	for _, spec := range r.Roles.Specs() {
		if r.Exempt[spec.Name] {
			continue
		}
		d := policy.DemandFor(v, spec)
		if len(d.Slots) > 0 {
			r.retireBySlots(v, spec.Name, d, mark)
			continue
		}

		census := v.Census(spec.Name)
		target := d.Target()
		if excess := len(census) - target; excess > 0 {
			byTTL(census)
			for _, m := range census[:excess] {
				mark(m, memory.RetireExcess)
			}
			continue
		}
		r.retireNearDeath(v, spec.Name, target, mark)
	}

	r.retirePlannedUpgrade(v, plan, mark)
	return out
}

func (r *Retirer) retireBySlots(v *colony.View, role string, d policy.Demand, mark func(*colony.Member, memory.RetireReason)) {
	wanted := make(map[string]bool, len(d.Slots))
	for _, k := range d.Keys() {
		wanted[k] = true
	}

	for _, m := range v.Census(role) {
		if key := policy.RequestKey(role, m.Mem); key == "" || !wanted[key] {
			mark(m, memory.RetireRequestMismatch)
		}
	}

	byKey := make(map[string][]*colony.Member)
	var keys []string
	for _, m := range v.Census(role) {
		key := policy.RequestKey(role, m.Mem)
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], m)
	}
	for _, key := range keys {
		group := byKey[key]
		if len(group) <= 1 {
			continue
		}
		// Keep the longest-lived unit.
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].TTL() != group[j].TTL() {
				return group[i].TTL() > group[j].TTL()
			}
			return group[i].Name() < group[j].Name()
		})
		for _, m := range group[1:] {
			mark(m, memory.RetireRequestDuplicate)
		}
	}

	if target := d.Target(); len(v.Census(role)) > target {
		r.retireNearDeath(v, role, target, mark)
	}
}

// retireNearDeath retires a dying unit only when a same-binding peer with
// strictly more time left is still in service. Candidates are visited in
// ascending (ttl, name) order and peers are checked against live markers,
// so of two dying peers only the shorter-lived one goes.
func (r *Retirer) retireNearDeath(v *colony.View, role string, target int, mark func(*colony.Member, memory.RetireReason)) {
	if target <= 0 {
		return
	}
	census := v.Census(role)
	if len(census) < target || len(census) <= 1 {
		return
	}
	byTTL(census)

	for _, m := range census {
		if m.Retiring() || m.TTL() > r.NearDeathTTL {
			continue
		}
		if r.hasPeer(v, role, m) {
			mark(m, memory.RetireNearDeath)
		}
	}
}

func (r *Retirer) hasPeer(v *colony.View, role string, me *colony.Member) bool {
	myKey := policy.RequestKey(role, me.Mem)
	for _, c := range v.Role(role) {
		if c == me || c.Retiring() || !c.Usable() {
			continue
		}
		if myKey != "" && policy.RequestKey(role, c.Mem) != myKey {
			continue
		}
		if c.TTL() > me.TTL() {
			return true
		}
	}
	return false
}

func (r *Retirer) retirePlannedUpgrade(v *colony.View, plan *memory.Plan, mark func(*colony.Member, memory.RetireReason)) {
	if plan == nil || plan.Upgrade == nil || plan.Upgrade.BlockedByEnergy {
		return
	}
	m := v.Member(plan.Upgrade.RetireUnit)
	if m == nil || m.Retiring() || !m.Usable() || r.Exempt[m.Role()] {
		return
	}
	mark(m, memory.RetirePlannedUpgrade)
}

// byTTL sorts members by remaining lifetime, shortest first, then by name.
func byTTL(ms []*colony.Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].TTL() != ms[j].TTL() {
			return ms[i].TTL() < ms[j].TTL()
		}
		return ms[i].Name() < ms[j].Name()
	})
}
