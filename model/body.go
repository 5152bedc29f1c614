package model

// BodyPart is one segment of a unit's loadout.
type BodyPart string

const (
	Work  BodyPart = "work"
	Carry BodyPart = "carry"
	Move  BodyPart = "move"
)

// CarryPerPart is how much energy a single carry part holds.
const CarryPerPart = 50

var partCost = map[BodyPart]int{
	Work:  100,
	Carry: 50,
	Move:  50,
}

// PartCost returns the energy needed to build one part. Unknown parts cost 0.
func PartCost(p BodyPart) int { return partCost[p] }

// BodyCost sums the cost of every part in body.
func BodyCost(body []BodyPart) int {
	total := 0
	for _, p := range body {
		total += partCost[p]
	}
	return total
}

// Body builds a loadout from part counts in work, carry, move order.
func Body(work, carry, move int) []BodyPart {
	out := make([]BodyPart, 0, work+carry+move)
	for i := 0; i < work; i++ {
		out = append(out, Work)
	}
	for i := 0; i < carry; i++ {
		out = append(out, Carry)
	}
	for i := 0; i < move; i++ {
		out = append(out, Move)
	}
	return out
}
