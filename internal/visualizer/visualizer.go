// Package visualizer keeps the per-cell colour state driven by band vectors.
package visualizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/petems/loopviz/internal/spectrum"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidOptions = errors.New("visualizer: invalid options")
	ErrGridMismatch   = errors.New("visualizer: sink dimensions do not match grid")
)

// Visualizer consumes one band vector per tick. Implementations are not safe
// for concurrent use; a single animation loop owns them.
type Visualizer interface {
	Step(bands spectrum.Bands)
	SetColor(c Color)
	Delay() time.Duration
}

// Shape selects the visualizer variant.
type Shape int

const (
	ShapeMatrix Shape = iota
	ShapeStrip
)

func (s Shape) String() string {
	switch s {
	case ShapeMatrix:
		return "matrix"
	case ShapeStrip:
		return "strip"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// GridSink receives the matrix after every step. The grid must not be
// retained past the call.
type GridSink interface {
	Render(g *Grid) error
}

// StripSink receives the strip colour and brightness coefficient (0..1).
type StripSink interface {
	Fade(c Color, coef float64) error
}

// Sizer is implemented by sinks with fixed physical dimensions.
type Sizer interface {
	Dimensions() (rows, cols int)
}

// Sinks carries the output for either shape; only the one matching the
// shape is used.
type Sinks struct {
	Grid  GridSink
	Strip StripSink
}

// New builds the variant for shape.
func New(shape Shape, opts Options, sinks Sinks, log zerolog.Logger) (Visualizer, error) {
	switch shape {
	case ShapeMatrix:
		m, err := NewMatrix(opts, sinks.Grid, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	case ShapeStrip:
		s, err := NewStrip(opts, sinks.Strip, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown shape %v", ErrInvalidOptions, shape)
	}
}
