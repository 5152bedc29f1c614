package model

// TerrainType classifies a single tile of a colony grid.
type TerrainType byte

const (
	Plain TerrainType = 0
	Swamp TerrainType = 1 // walkable, slow
	Wall  TerrainType = 2 // impassable
)

// GridSize is the width and height of every colony grid.
const GridSize = 50

// TerrainGrid is a row-major tile grid, Grid[y*Cols + x]. The host sends it
// with the first snapshot of a colony and omits it afterwards.
type TerrainGrid struct {
	Cols int           `json:"cols"`
	Rows int           `json:"rows"`
	Grid []TerrainType `json:"grid"`
}

// At returns the terrain at (x, y). Tiles outside the grid, or past the end
// of a short Grid, are walls.
func (g *TerrainGrid) At(x, y int) TerrainType {
	if g == nil || len(g.Grid) == 0 {
		if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
			return Wall
		}
		return Plain
	}
	if x < 0 || x >= g.Cols || y < 0 || y >= g.Rows {
		return Wall
	}
	i := y*g.Cols + x
	if i >= len(g.Grid) {
		return Wall
	}
	return g.Grid[i]
}

// Walkable reports whether a unit can stand on p.
func (g *TerrainGrid) Walkable(p Pos) bool {
	return g.At(p.X, p.Y) != Wall
}

// OpenAround returns center (when walkable) and every walkable tile
// adjacent to it, in row-major order.
func (g *TerrainGrid) OpenAround(center Pos) []Pos {
	var out []Pos
	for y := center.Y - 1; y <= center.Y+1; y++ {
		for x := center.X - 1; x <= center.X+1; x++ {
			p := Pos{X: x, Y: y}
			if g.Walkable(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
