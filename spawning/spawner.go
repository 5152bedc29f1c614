package spawning

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/ipc"
	"github.com/nstehr/warren/warren-core/memory"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
)

var (
	ErrNameTaken   = errors.New("unit name already taken")
	ErrNoIdleSpawn = errors.New("no idle spawn")
)

// Spawner turns the colony's plan into at most one spawn command per tick.
type Spawner struct {
	Roles  *roles.Registry
	Sender ipc.Sender
}

// Execute spawns the unit described by intent. It returns the new unit's
// name, or "" with a nil error when there is nothing to do this tick. A
// rejected spawn is never retried within the tick; the next plan decides.
func (s *Spawner) Execute(v *colony.View, intent *memory.SpawnIntent) (string, error) {
	if intent == nil || intent.BlockedByEnergy {
		return "", nil
	}
	spec := s.Roles.Get(intent.Role)
	if spec == nil {
		return "", fmt.Errorf("spawn %s: unknown role", intent.Role)
	}
	spawn := v.IdleSpawn()
	if spawn == nil {
		return "", ErrNoIdleSpawn
	}

	var planned SpawnPlan
	if intent.Reason == memory.ReasonUpgrade {
		planned = PlanForUpgrade(v, spec)
	} else {
		planned = PlanForRole(v, spec, policy.DemandFor(v, spec))
	}
	if planned.Blocked {
		slog.Debug("spawn deferred",
			"colony", v.Name(),
			"role", spec.Name,
			"cost", planned.Cost,
			"energy", v.State.EnergyAvailable,
		)
		return "", nil
	}

	hint := intent.NameHint
	if hint == "" && intent.Key != "" {
		hint = keyHint(intent.Key)
	}
	name := UnitName(spec.Name, hint, v.Tick)
	if v.Member(name) != nil {
		return "", fmt.Errorf("spawn %s: %w", name, ErrNameTaken)
	}
	if _, known := v.Book.Units[name]; known {
		return "", fmt.Errorf("spawn %s: %w", name, ErrNameTaken)
	}

	cmd := ipc.SpawnCommand{SpawnID: spawn.ID, Name: name, Body: planned.Body}
	if err := s.Sender.Send(ipc.TypeSpawn, cmd); err != nil {
		return "", fmt.Errorf("spawn %s: %w", name, err)
	}

	mem := v.Book.Unit(name)
	*mem = memory.Unit{
		Role:      spec.Name,
		Home:      v.Name(),
		Binding:   spec.BindingFor(v).Merge(intent.Memory),
		SpawnCost: planned.Cost,
	}
	spawn.Busy = true

	slog.Info("unit spawned",
		"colony", v.Name(),
		"unit", name,
		"role", spec.Name,
		"kind", intent.Kind,
		"reason", intent.Reason,
		"cost", planned.Cost,
		"energy", v.State.EnergyAvailable,
	)
	return name, nil
}

// UnitName is role-[hint-]tick%1000.
func UnitName(role, hint string, tick int) string {
	if hint == "" {
		return fmt.Sprintf("%s-%d", role, tick%1000)
	}
	return fmt.Sprintf("%s-%s-%d", role, hint, tick%1000)
}
