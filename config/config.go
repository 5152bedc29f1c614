// Package config loads the sidecar's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/warren/warren-core/behavior"
	"github.com/nstehr/warren/warren-core/policy"
	"github.com/nstehr/warren/warren-core/roles"
	"github.com/nstehr/warren/warren-core/spawning"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Socket     string `yaml:"socket"`
	Database   string `yaml:"database"` // empty keeps memory in process only
	JournalDir string `yaml:"journal_dir"`
	Telemetry  string `yaml:"telemetry"` // listen address, empty disables

	Priority   []string `yaml:"priority"`
	Bootstrap  string   `yaml:"bootstrap"`
	Foundation []string `yaml:"foundation"`
	Exempt     []string `yaml:"exempt"`

	NearDeathTTL int               `yaml:"near_death_ttl"`
	Weights      policy.Weights    `yaml:"weights"`
	Move         behavior.MoveOpts `yaml:"move"`

	// Desired overrides a role's target expression.
	Desired map[string]string `yaml:"desired"`
}

func Default() Config {
	return Config{
		Socket:       "/tmp/warren.sock",
		JournalDir:   "journal",
		Telemetry:    ":8089",
		Priority:     slices.Clone(roles.DefaultPriority),
		Bootstrap:    roles.Harvester,
		Foundation:   []string{roles.Harvester, roles.Miner, roles.Mover},
		Exempt:       []string{roles.Scout},
		NearDeathTTL: spawning.DefaultNearDeathTTL,
		Weights:      policy.DefaultWeights,
		Move:         behavior.DefaultMoveOpts,
	}
}

// Load reads path over Default and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that cannot be caught later. Desired
// expressions are compiled by Registry.
func (c Config) Validate() error {
	if c.Socket == "" {
		return fmt.Errorf("%w: socket is required", ErrInvalid)
	}
	if len(c.Priority) == 0 {
		return fmt.Errorf("%w: priority is empty", ErrInvalid)
	}
	if !slices.Contains(c.Priority, c.Bootstrap) {
		return fmt.Errorf("%w: bootstrap role %q is not in priority", ErrInvalid, c.Bootstrap)
	}
	for _, r := range c.Foundation {
		if !slices.Contains(c.Priority, r) {
			return fmt.Errorf("%w: foundation role %q is not in priority", ErrInvalid, r)
		}
	}
	if c.NearDeathTTL < 0 {
		return fmt.Errorf("%w: near_death_ttl must not be negative", ErrInvalid)
	}
	m := c.Move
	if m.RepathAt <= 0 || m.NudgeAt < m.RepathAt || m.UnreachableAt < m.NudgeAt {
		return fmt.Errorf("%w: move thresholds must satisfy 0 < repath_at <= nudge_at <= unreachable_at", ErrInvalid)
	}
	if c.Weights.EnergyBonusDivisor < 0 {
		return fmt.Errorf("%w: energy_bonus_divisor must not be negative", ErrInvalid)
	}
	return nil
}

// Registry compiles the role table the config describes.
func (c Config) Registry() (*roles.Registry, error) {
	reg, err := roles.NewRegistry(c.Priority, c.Desired)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return reg, nil
}
