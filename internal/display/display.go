// Package display holds the sinks a visualizer renders into.
package display

import "github.com/petems/loopviz/internal/visualizer"

// Nop discards every frame.
type Nop struct{}

func (Nop) Render(*visualizer.Grid) error        { return nil }
func (Nop) Fade(visualizer.Color, float64) error { return nil }

// Frame is the JSON shape pushed to websocket clients.
type Frame struct {
	Type  string       `json:"type"` // "grid" or "strip"
	Rows  int          `json:"rows,omitempty"`
	Cols  int          `json:"cols,omitempty"`
	Cells [][][3]uint8 `json:"cells,omitempty"`
	Color *[3]uint8    `json:"color,omitempty"`
	Coef  float64      `json:"coef,omitempty"`
}

// GridFrame encodes g row by row, lowest level first.
func GridFrame(g *visualizer.Grid) Frame {
	cells := make([][][3]uint8, g.Rows())
	for r := range cells {
		row := make([][3]uint8, g.Cols())
		for c := range row {
			cell := g.At(r, c)
			row[c] = [3]uint8{cell.R, cell.G, cell.B}
		}
		cells[r] = row
	}
	return Frame{Type: "grid", Rows: g.Rows(), Cols: g.Cols(), Cells: cells}
}

func StripFrame(c visualizer.Color, coef float64) Frame {
	rgb := [3]uint8{c.R, c.G, c.B}
	return Frame{Type: "strip", Color: &rgb, Coef: coef}
}
