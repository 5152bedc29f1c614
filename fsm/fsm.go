// Package fsm is the small state machine driver every unit behavior runs on.
// A machine separates picking the phase a unit is in from acting in it.
package fsm

// Slot is where a machine's current state is persisted between ticks.
type Slot interface {
	State() string
	SetState(string)
}

// Machine describes one behavior. S is the state tag, R the observable
// result of a tick's action.
type Machine[S ~string, R any] struct {
	IsValid func(S) bool
	Initial func() S
	Switch  func(S) S
	Run     func(S) R
}

// Run resolves the persisted state, falling back to Initial when it is
// missing or invalid, applies Switch, stores the result and runs it.
func Run[S ~string, R any](slot Slot, m Machine[S, R]) R {
	cur := S(slot.State())
	if cur == "" || !m.IsValid(cur) {
		cur = m.Initial()
	}
	next := m.Switch(cur)
	slot.SetState(string(next))
	return m.Run(next)
}

// OneOf builds an IsValid func accepting exactly the listed states.
func OneOf[S ~string](states ...S) func(S) bool {
	return func(s S) bool {
		for _, v := range states {
			if v == s {
				return true
			}
		}
		return false
	}
}
