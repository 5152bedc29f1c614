package model

import "fmt"

// WorldState is one tick of the host simulation: every colony the player
// controls, each with its own economy and roster.
type WorldState struct {
	Tick     int           `json:"tick"`
	Colonies []ColonyState `json:"colonies"`
}

type ColonyState struct {
	Name            string       `json:"name"`
	EnergyAvailable int          `json:"energyAvailable"`
	EnergyCapacity  int          `json:"energyCapacity"`
	ControllerLevel int          `json:"controllerLevel"`
	Controller      *Pos         `json:"controller,omitempty"`
	Sources         []Source     `json:"sources"`
	Structures      []Structure  `json:"structures"`
	Dropped         []Dropped    `json:"dropped"`
	Sites           []Site       `json:"sites"`
	Units           []Unit       `json:"units"`
	Graveyard       *Pos         `json:"graveyard,omitempty"`
	Terrain         *TerrainGrid `json:"terrain,omitempty"`
}

// Pos is a tile inside a colony's 50x50 grid.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Range is the Chebyshev distance, which is how many single-tile moves
// separate two positions when diagonals are allowed.
func (p Pos) Range(o Pos) int {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Key is a stable fingerprint used to detect a unit that has not moved.
func (p Pos) Key() string { return fmt.Sprintf("%d:%d", p.X, p.Y) }

type Unit struct {
	Name          string     `json:"name"`
	Pos           Pos        `json:"pos"`
	TicksToLive   int        `json:"ticksToLive"`
	Spawning      bool       `json:"spawning"`
	Body          []BodyPart `json:"body"`
	Carry         int        `json:"carry"`
	CarryCapacity int        `json:"carryCapacity"`
}

func (u Unit) FreeCapacity() int {
	free := u.CarryCapacity - u.Carry
	if free < 0 {
		return 0
	}
	return free
}

// Parts counts body parts of the given kind.
func (u Unit) Parts(p BodyPart) int {
	n := 0
	for _, b := range u.Body {
		if b == p {
			n++
		}
	}
	return n
}

// Structure type constants understood by the host.
const (
	StructureSpawn      = "spawn"
	StructureExtension  = "extension"
	StructureContainer  = "container"
	StructureStorage    = "storage"
	StructureLink       = "link"
	StructureTower      = "tower"
	StructureLab        = "lab"
	StructurePowerSpawn = "power_spawn"
	StructureNuker      = "nuker"
	StructureFactory    = "factory"
	StructureRoad       = "road"
)

type Structure struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Pos      Pos    `json:"pos"`
	Energy   int    `json:"energy"`
	Capacity int    `json:"capacity"`
	Hits     int    `json:"hits"`
	HitsMax  int    `json:"hitsMax"`
	Busy     bool   `json:"busy"` // spawns only: currently producing a unit
}

func (s Structure) FreeCapacity() int {
	free := s.Capacity - s.Energy
	if free < 0 {
		return 0
	}
	return free
}

type Source struct {
	ID     string `json:"id"`
	Pos    Pos    `json:"pos"`
	Energy int    `json:"energy"`
}

// Dropped is energy lying on the ground.
type Dropped struct {
	ID     string `json:"id"`
	Pos    Pos    `json:"pos"`
	Amount int    `json:"amount"`
}

// Site is a construction site.
type Site struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Pos           Pos    `json:"pos"`
	Progress      int    `json:"progress"`
	ProgressTotal int    `json:"progressTotal"`
}
