package ipc

import "github.com/nstehr/warren/warren-core/model"

// Command type constants. The host executes each one against the named unit
// or structure during the next simulation step.
const (
	TypeSpawn    = "spawn"
	TypeMove     = "move"
	TypeNudge    = "nudge"
	TypeHarvest  = "harvest"
	TypeWithdraw = "withdraw"
	TypePickup   = "pickup"
	TypeTransfer = "transfer"
	TypeDrop     = "drop"
	TypeBuild    = "build"
	TypeRepair   = "repair"
	TypeUpgrade  = "upgrade"
	TypeRecycle  = "recycle"
	TypeSay      = "say"
)

type SpawnCommand struct {
	SpawnID string           `json:"spawn_id"`
	Name    string           `json:"name"`
	Body    []model.BodyPart `json:"body"`
}

type MoveCommand struct {
	Unit   string `json:"unit"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Repath bool   `json:"repath,omitempty"`
}

// NudgeCommand steps a unit one tile in a compass direction, 1 (north)
// through 8 (north-west) clockwise.
type NudgeCommand struct {
	Unit      string `json:"unit"`
	Direction int    `json:"direction"`
}

type HarvestCommand struct {
	Unit     string `json:"unit"`
	SourceID string `json:"source_id"`
}

type WithdrawCommand struct {
	Unit     string `json:"unit"`
	TargetID string `json:"target_id"`
	Amount   int    `json:"amount"`
}

type PickupCommand struct {
	Unit     string `json:"unit"`
	TargetID string `json:"target_id"`
}

type TransferCommand struct {
	Unit     string `json:"unit"`
	TargetID string `json:"target_id"`
}

type DropCommand struct {
	Unit string `json:"unit"`
}

type BuildCommand struct {
	Unit   string `json:"unit"`
	SiteID string `json:"site_id"`
}

type RepairCommand struct {
	Unit     string `json:"unit"`
	TargetID string `json:"target_id"`
}

type UpgradeCommand struct {
	Unit string `json:"unit"`
}

type RecycleCommand struct {
	SpawnID string `json:"spawn_id"`
	Unit    string `json:"unit"`
}

type SayCommand struct {
	Unit string `json:"unit"`
	Text string `json:"text"`
}
