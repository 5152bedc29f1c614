// Package memory holds the state the sidecar keeps between ticks: one typed
// record per unit and one per colony. The host never sees it.
package memory

// RetireReason explains why a unit was taken out of normal service.
type RetireReason string

const (
	RetireExcess           RetireReason = "excess"
	RetireRequestMismatch  RetireReason = "request-mismatch"
	RetireRequestDuplicate RetireReason = "request-duplicate"
	RetirePlannedUpgrade   RetireReason = "planned-upgrade"
	RetireInvalid          RetireReason = "invalid"
	RetireBadSource        RetireReason = "bad-source"
	RetireNearDeath        RetireReason = "near-death"
)

// Retirement is permanent once set.
type Retirement struct {
	Reason   RetireReason `json:"reason"`
	MarkedAt int          `json:"markedAt"`
}

// Binding ties a unit to a production pipeline. Which field is meaningful
// depends on the role.
type Binding struct {
	SourceID      string `json:"sourceId,omitempty"`
	MoverSourceID string `json:"moverSourceId,omitempty"`
	RequestKey    string `json:"requestKey,omitempty"`
}

// Merge overlays the non-empty fields of o onto b.
func (b Binding) Merge(o Binding) Binding {
	if o.SourceID != "" {
		b.SourceID = o.SourceID
	}
	if o.MoverSourceID != "" {
		b.MoverSourceID = o.MoverSourceID
	}
	if o.RequestKey != "" {
		b.RequestKey = o.RequestKey
	}
	return b
}

type Unit struct {
	Role      string      `json:"role"`
	Home      string      `json:"home,omitempty"`
	Working   bool        `json:"working"`
	SpawnCost int         `json:"spawnCost,omitempty"`
	Retire    *Retirement `json:"retire,omitempty"`
	Binding

	BuildTargetID string `json:"buildTargetId,omitempty"`
	WithdrawID    string `json:"withdrawId,omitempty"`
	DepositID     string `json:"depositId,omitempty"`

	FSMState string `json:"fsmState,omitempty"`
	LastPos  string `json:"lastPos,omitempty"`
	Stuck    int    `json:"stuck,omitempty"`
	Mood     string `json:"mood,omitempty"`
}

// Retiring reports whether the unit has been marked for decommission.
func (u *Unit) Retiring() bool { return u.Retire != nil }

// MarkRetire sets the retirement marker. It returns false without touching
// the existing marker if the unit is already retiring.
func (u *Unit) MarkRetire(reason RetireReason, tick int) bool {
	if u.Retire != nil {
		return false
	}
	u.Retire = &Retirement{Reason: reason, MarkedAt: tick}
	return true
}

// PlanningActive reports whether the unit still counts toward its role's
// target. A near-death retiree keeps counting until it expires so the
// planner does not order a second replacement for it.
func (u *Unit) PlanningActive() bool {
	return u.Retire == nil || u.Retire.Reason == RetireNearDeath
}

// State and SetState make Unit a slot for the FSM runtime.
func (u *Unit) State() string     { return u.FSMState }
func (u *Unit) SetState(s string) { u.FSMState = s }
