package visualizer

import (
	"fmt"
	"math"
	"time"

	"github.com/petems/loopviz/internal/spectrum"
	"github.com/rs/zerolog"
)

// Matrix lights a column of rows per band. Each tick every cell fades towards
// an ambient floor, then columns whose band clears the per-column dampening
// gain brightness on as many rows as the band's share of the range allows.
type Matrix struct {
	opts Options
	grid *Grid
	sink GridSink
	log  zerolog.Logger

	target Color
	floor  [3]int // per-channel ambient floor
	attack [3]int // per-channel increment for a lit cell
}

func NewMatrix(opts Options, sink GridSink, log zerolog.Logger) (*Matrix, error) {
	if err := opts.validateMatrix(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: matrix needs a grid sink", ErrInvalidOptions)
	}
	if sz, ok := sink.(Sizer); ok {
		rows, cols := sz.Dimensions()
		if rows != opts.Rows || cols != opts.Cols {
			return nil, fmt.Errorf("%w: sink is %dx%d, grid is %dx%d", ErrGridMismatch, rows, cols, opts.Rows, opts.Cols)
		}
	}

	m := &Matrix{
		opts: opts,
		grid: NewGrid(opts.Rows, opts.Cols),
		sink: sink,
		log:  log,
	}
	m.SetColor(opts.Color)
	return m, nil
}

// Grid exposes the current cells read-only.
func (m *Matrix) Grid() *Grid { return m.grid }

func (m *Matrix) Delay() time.Duration { return m.opts.Delay }

// Color returns the target colour.
func (m *Matrix) Color() Color { return m.target }

// SetColor changes the target colour and recomputes the ambient floor.
func (m *Matrix) SetColor(c Color) {
	m.target = c
	for i, ch := range channels(c) {
		m.floor[i] = ambientFloor(ch, m.opts.AmbientBrightness)
		m.attack[i] = int(math.Round(float64(ch) * (1 - m.opts.Fade)))
	}
}

// Step applies one tick. Bands beyond the end of the vector count as silence.
func (m *Matrix) Step(bands spectrum.Bands) {
	m.decay()

	damp, ceil := m.opts.Dampen, m.opts.Ceiling
	target := channels(m.target)
	for col := 0; col < m.grid.cols; col++ {
		value := 0.0
		if col < len(bands) {
			value = bands[col]
		}

		levels := m.levels(value, damp, ceil)
		for row := 0; row < levels; row++ {
			cell := channels(m.grid.At(row, col))
			for i := range cell {
				if cell[i] <= target[i] {
					cell[i] = min(cell[i]+m.attack[i], target[i])
				}
			}
			m.grid.set(row, col, fromChannels(cell))
		}

		damp *= m.opts.DampenBias
		ceil *= m.opts.CeilingBias
	}

	if err := m.sink.Render(m.grid); err != nil {
		m.log.Warn().Err(err).Msg("Render failed")
	}
}

// ColumnBounds returns the dampening and ceiling in effect at col.
func (m *Matrix) ColumnBounds(col int) (dampen, ceiling float64) {
	dampen, ceiling = m.opts.Dampen, m.opts.Ceiling
	for i := 0; i < col; i++ {
		dampen *= m.opts.DampenBias
		ceiling *= m.opts.CeilingBias
	}
	return dampen, ceiling
}

func (m *Matrix) decay() {
	for _, row := range m.grid.cells {
		for c, cell := range row {
			ch := channels(cell)
			for i := range ch {
				v := int(math.Floor(float64(ch[i]) * m.opts.Fade))
				ch[i] = max(v, m.floor[i])
			}
			row[c] = fromChannels(ch)
		}
	}
}

// levels maps a band value to the number of rows to light at a column with
// the given bounds.
func (m *Matrix) levels(value, damp, ceil float64) int {
	span := ceil - damp
	if span <= 0 {
		return 0
	}

	v := value - damp
	if v < m.opts.AmbientBrightness {
		v = m.opts.AmbientBrightness
	}
	if v > ceil {
		v = ceil
	}

	n := int(math.Floor(v / span * float64(m.opts.Rows)))
	return max(0, min(n, m.opts.Rows))
}

// ambientFloor is the brightness a cell never fades below: the ambient
// coefficient scaled by the channel's share of full intensity.
func ambientFloor(ch int, ambient float64) int {
	f := int(math.Round(float64(ch) / 255 * ambient))
	return max(0, min(f, ch))
}

func channels(c Color) [3]int {
	return [3]int{int(c.R), int(c.G), int(c.B)}
}

func fromChannels(ch [3]int) Color {
	return Color{R: clampByte(ch[0]), G: clampByte(ch[1]), B: clampByte(ch[2])}
}

func clampByte(v int) uint8 {
	return uint8(max(0, min(v, 255)))
}
