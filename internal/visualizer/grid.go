package visualizer

import "fmt"

type Color struct {
	R, G, B uint8
}

var White = Color{R: 255, G: 255, B: 255}

// Hex formats c as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Scale multiplies every channel by f, clamped to [0,1].
func (c Color) Scale(f float64) Color {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Grid is a rows x cols matrix of colours. Row 0 is the lowest level.
type Grid struct {
	rows, cols int
	cells      [][]Color
}

// NewGrid allocates every row separately so rows never alias.
func NewGrid(rows, cols int) *Grid {
	cells := make([][]Color, rows)
	for r := range cells {
		cells[r] = make([]Color, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) At(row, col int) Color {
	return g.cells[row][col]
}

func (g *Grid) set(row, col int, c Color) {
	g.cells[row][col] = c
}

// Snapshot returns a deep copy of the cells.
func (g *Grid) Snapshot() [][]Color {
	out := make([][]Color, g.rows)
	for r, row := range g.cells {
		out[r] = append([]Color(nil), row...)
	}
	return out
}
