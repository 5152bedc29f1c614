package memory

// IntentKind distinguishes a named-slot fill from a plain count top-up.
type IntentKind string

const (
	IntentRequest IntentKind = "request"
	IntentCount   IntentKind = "count"
)

// IntentReason records which planner pass produced an intent.
type IntentReason string

const (
	ReasonMissing IntentReason = "missing"
	ReasonNormal  IntentReason = "normal"
	ReasonUpgrade IntentReason = "upgrade"
)

// SpawnIntent is the planner's single production decision for a tick.
type SpawnIntent struct {
	Kind            IntentKind   `json:"kind"`
	Role            string       `json:"role"`
	Key             string       `json:"key,omitempty"`
	NameHint        string       `json:"nameHint,omitempty"`
	Memory          Binding      `json:"memory"`
	BlockedByEnergy bool         `json:"blockedByEnergy"`
	RequiredEnergy  int          `json:"requiredEnergy"`
	Reason          IntentReason `json:"reason"`
}

// UpgradeIntent names the unit that should be replaced by a larger one.
type UpgradeIntent struct {
	Role            string `json:"role"`
	RetireUnit      string `json:"retireUnit"`
	RequiredEnergy  int    `json:"requiredEnergy"`
	BlockedByEnergy bool   `json:"blockedByEnergy"`
}

// Plan is valid only for the tick it was computed on.
type Plan struct {
	Tick    int            `json:"tick"`
	Spawn   *SpawnIntent   `json:"spawn,omitempty"`
	Upgrade *UpgradeIntent `json:"upgrade,omitempty"`
}

// ValidAt reports whether the plan may be reused on tick.
func (p *Plan) ValidAt(tick int) bool {
	return p != nil && p.Tick == tick
}

type Colony struct {
	Plan *Plan `json:"plan,omitempty"`
}
