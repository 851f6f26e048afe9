package display

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/petems/loopviz/internal/visualizer"
)

const (
	cellGlyph  = "██"
	stripWidth = 40
	cursorHome = "\x1b[H"
	clearLine  = "\r\x1b[2K"
)

// Terminal draws frames as coloured blocks. The top grid row is printed
// first so low levels sit at the bottom, like a bar meter.
type Terminal struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	home     bool
}

// NewTerminal writes to out. With home set every grid frame starts by moving
// the cursor to the top-left corner so frames overwrite each other.
func NewTerminal(out io.Writer, home bool) *Terminal {
	return &Terminal{
		out:      out,
		renderer: lipgloss.NewRenderer(out),
		home:     home,
	}
}

func (t *Terminal) Render(g *visualizer.Grid) error {
	var b strings.Builder
	if t.home {
		b.WriteString(cursorHome)
	}
	for r := g.Rows() - 1; r >= 0; r-- {
		for c := 0; c < g.Cols(); c++ {
			b.WriteString(t.block(g.At(r, c), cellGlyph))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Terminal) Fade(c visualizer.Color, coef float64) error {
	line := t.block(c.Scale(coef), strings.Repeat("█", stripWidth))
	_, err := io.WriteString(t.out, clearLine+line)
	return err
}

func (t *Terminal) block(c visualizer.Color, glyph string) string {
	return t.renderer.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(glyph)
}
