package colony

import "github.com/nstehr/warren/warren-core/model"

// LinkRole describes what a link sits next to.
type LinkRole string

const (
	LinkSource     LinkRole = "source"
	LinkController LinkRole = "controller"
	LinkStorage    LinkRole = "storage"
	LinkHub        LinkRole = "hub"
)

func (v *View) classifyLink(l *model.Structure) LinkRole {
	for i := range v.State.Sources {
		if l.Pos.Range(v.State.Sources[i].Pos) <= 2 {
			return LinkSource
		}
	}
	if c := v.State.Controller; c != nil && l.Pos.Range(*c) <= 3 {
		return LinkController
	}
	for _, st := range v.byType[model.StructureStorage] {
		if l.Pos.Range(st.Pos) <= 2 {
			return LinkStorage
		}
	}
	return LinkHub
}

// LinkRoleOf returns the role of a link, or "" for any other structure.
func (v *View) LinkRoleOf(id string) LinkRole { return v.linkRoles[id] }

// RepairOpts sets the thresholds used by RepairsNeeded.
type RepairOpts struct {
	ContainerBelow float64 // repair containers under this hit ratio
	RoadBelow      float64
	MinMissingHits int
	MinTargets     int
}

// DefaultRepairOpts matches the thresholds the builder and upgrader targets
// are tuned against.
var DefaultRepairOpts = RepairOpts{
	ContainerBelow: 0.9,
	RoadBelow:      0.4,
	MinMissingHits: 5000,
	MinTargets:     1,
}

// RepairsNeeded reports whether enough containers and roads are damaged to
// justify dedicated repair work.
func (v *View) RepairsNeeded(o RepairOpts) bool {
	missing, targets := 0, 0
	for _, s := range v.State.Structures {
		var below float64
		switch s.Type {
		case model.StructureContainer:
			below = o.ContainerBelow
		case model.StructureRoad:
			below = o.RoadBelow
		default:
			continue
		}
		if s.Hits <= 0 || s.HitsMax <= 0 {
			continue
		}
		if float64(s.Hits)/float64(s.HitsMax) >= below {
			continue
		}
		targets++
		missing += s.HitsMax - s.Hits
	}
	return targets >= o.MinTargets && missing >= o.MinMissingHits
}

// SitePriority is the base value of finishing a construction site of the
// given structure type.
func SitePriority(structureType string) int {
	switch structureType {
	case model.StructureContainer:
		return 1000
	case model.StructureSpawn:
		return 900
	case model.StructureExtension:
		return 750
	case model.StructureTower:
		return 700
	case model.StructureStorage:
		return 650
	case model.StructureRoad:
		return 150
	case "rampart":
		return 80
	case "wall":
		return 50
	}
	return 250
}

// ValuableSites counts construction sites worth staffing builders for.
func (v *View) ValuableSites() int {
	n := 0
	for _, s := range v.State.Sites {
		if SitePriority(s.Type) >= 250 {
			n++
		}
	}
	return n
}

// DamagedStructures returns containers and roads under the repair
// thresholds in snapshot order.
func (v *View) DamagedStructures(o RepairOpts) []*model.Structure {
	var out []*model.Structure
	for i := range v.State.Structures {
		s := &v.State.Structures[i]
		var below float64
		switch s.Type {
		case model.StructureContainer:
			below = o.ContainerBelow
		case model.StructureRoad:
			below = o.RoadBelow
		default:
			continue
		}
		if s.HitsMax > 0 && s.Hits > 0 && float64(s.Hits)/float64(s.HitsMax) < below {
			out = append(out, s)
		}
	}
	return out
}
