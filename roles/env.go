package roles

import "github.com/nstehr/warren/warren-core/colony"

// Env wraps a colony view and exposes helper methods callable from desired
// count expressions.
type Env struct {
	View *colony.View
}

func (e Env) ContainersReady() bool { return e.View.ContainersReady() }

// ActiveCount counts planning-active units of role.
func (e Env) ActiveCount(role string) int { return e.View.ActiveCount(role) }

func (e Env) ControllerLevel() int { return e.View.State.ControllerLevel }
func (e Env) EnergyCapacity() int  { return e.View.State.EnergyCapacity }
func (e Env) EnergyAvailable() int { return e.View.State.EnergyAvailable }

// ValuableSites counts construction sites worth staffing builders for.
func (e Env) ValuableSites() int { return e.View.ValuableSites() }

func (e Env) Sites() int { return len(e.View.State.Sites) }

func (e Env) RepairsNeeded() bool {
	return e.View.RepairsNeeded(colony.DefaultRepairOpts)
}

// ActivePipelines counts container-backed sources with an active miner.
func (e Env) ActivePipelines() int { return len(e.View.ActivePipelines()) }

func (e Env) Sources() int { return len(e.View.State.Sources) }

func (e Env) Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (e Env) Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
