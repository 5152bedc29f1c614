// Package roles defines what each worker role is for: its loadout ladder,
// how many the colony wants, and the named slots it fills.
package roles

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/model"
)

const (
	Harvester = "harvester"
	Miner     = "miner"
	Mover     = "mover"
	Builder   = "builder"
	Upgrader  = "upgrader"
	Scout     = "scout"
)

// DefaultPriority is the strict order the planner walks roles in.
var DefaultPriority = []string{Harvester, Miner, Mover, Builder, Upgrader}

// Request is one named slot a role wants filled, such as a miner for a
// specific source.
type Request struct {
	Key      string
	NameHint string
	Memory   memory.Binding
}

// Spec is the static description of a role.
type Spec struct {
	Name       string
	MinEnergy  int
	Body       func(budget int) []model.BodyPart
	DesiredSrc string // expr source, evaluated against Env

	// Requests enumerates named slots. Roles without it use a plain count.
	Requests func(v *colony.View) []Request
	// CountBinding returns the binding imprinted on count spawns.
	CountBinding func(v *colony.View) memory.Binding

	program *vm.Program
}

// Desired evaluates the role's desired count against the view. Evaluation
// errors are logged and count as zero so a bad expression never spawns.
func (s *Spec) Desired(v *colony.View) int {
	if s.program == nil {
		return 0
	}
	out, err := vm.Run(s.program, Env{View: v})
	if err != nil {
		slog.Warn("desired expression error", "role", s.Name, "colony", v.Name(), "error", err)
		return 0
	}
	n, ok := out.(int)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// RequestsFor returns the role's slots, or nil for count roles.
func (s *Spec) RequestsFor(v *colony.View) []Request {
	if s.Requests == nil {
		return nil
	}
	return s.Requests(v)
}

// BindingFor returns the memory for a count spawn of this role.
func (s *Spec) BindingFor(v *colony.View) memory.Binding {
	if s.CountBinding == nil {
		return memory.Binding{}
	}
	return s.CountBinding(v)
}

// Defaults returns a fresh copy of the built-in role table.
func Defaults() []*Spec {
	return []*Spec{
		{
			Name:       Harvester,
			MinEnergy:  200,
			Body:       harvesterBody,
			DesiredSrc: `!ContainersReady() || ActiveCount("miner") == 0 ? 2 : 0`,
		},
		{
			Name:       Miner,
			MinEnergy:  300,
			Body:       minerBody,
			DesiredSrc: `0`,
			Requests:   minerRequests,
		},
		{
			Name:         Mover,
			MinEnergy:    250,
			Body:         moverBody,
			DesiredSrc:   `Min(ControllerLevel() >= 3 ? 2 : 1, ActivePipelines())`,
			CountBinding: leastServedPipeline,
		},
		{
			Name:      Builder,
			MinEnergy: 200,
			Body:      builderBody,
			DesiredSrc: `ValuableSites() > 10 ? 6 : (ValuableSites() > 5 ? 4 : (ValuableSites() > 0 ? 3 : ` +
				`((!ContainersReady() || RepairsNeeded()) ? 2 : 1)))`,
		},
		{
			Name:      Upgrader,
			MinEnergy: 200,
			Body:      upgraderBody,
			DesiredSrc: `ControllerLevel() == 0 ? 0 : (ControllerLevel() >= 6 ? 2 : ((Sites() > 0 || RepairsNeeded()) ? ` +
				`(EnergyCapacity() >= 800 ? 3 : (EnergyCapacity() >= 550 ? 2 : 1)) : ` +
				`(EnergyCapacity() >= 800 ? 6 : (EnergyCapacity() >= 550 ? 4 : 3))))`,
		},
	}
}

// Registry holds compiled role specs in planner priority order.
type Registry struct {
	order  []*Spec
	byName map[string]*Spec
}

// NewRegistry compiles the default role table with any desired-expression
// overrides applied, ordered by priority. Every role in priority must be
// known and every override must compile.
func NewRegistry(priority []string, overrides map[string]string) (*Registry, error) {
	known := make(map[string]*Spec)
	for _, s := range Defaults() {
		known[s.Name] = s
	}
	for role, src := range overrides {
		s, ok := known[role]
		if !ok {
			return nil, fmt.Errorf("desired override for unknown role %q", role)
		}
		s.DesiredSrc = src
	}

	r := &Registry{byName: make(map[string]*Spec, len(priority))}
	for _, name := range priority {
		s, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown role %q in priority", name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("role %q listed twice in priority", name)
		}
		prog, err := expr.Compile(s.DesiredSrc, expr.Env(Env{}), expr.AsInt())
		if err != nil {
			return nil, fmt.Errorf("compile desired for %q: %w", name, err)
		}
		s.program = prog
		r.order = append(r.order, s)
		r.byName[name] = s
	}
	return r, nil
}

// MustDefault builds the registry with no overrides. It panics if the
// built-in table fails to compile.
func MustDefault() *Registry {
	r, err := NewRegistry(DefaultPriority, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Specs returns the roles in priority order.
func (r *Registry) Specs() []*Spec { return r.order }

// Get returns the spec for role, or nil for roles the planner does not
// manage.
func (r *Registry) Get(role string) *Spec { return r.byName[role] }
