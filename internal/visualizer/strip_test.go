package visualizer

import (
	"errors"
	"math"
	"testing"

	"github.com/petems/loopviz/internal/spectrum"
	"github.com/rs/zerolog"
)

type fadeCall struct {
	color Color
	coef  float64
}

type recordingStrip struct {
	calls []fadeCall
}

func (s *recordingStrip) Fade(c Color, coef float64) error {
	s.calls = append(s.calls, fadeCall{c, coef})
	return nil
}

func stripBands(v float64) spectrum.Bands {
	b := make(spectrum.Bands, 25)
	b[4] = v
	return b
}

func TestStripAttackAndFalloff(t *testing.T) {
	opts := DefaultStripOptions()
	sink := &recordingStrip{}
	s, err := NewStrip(opts, sink, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	// Halfway between dampen and ceiling
	s.Step(stripBands(2525))
	if math.Abs(s.Coef()-0.5) > 1e-9 {
		t.Fatalf("expected immediate attack to 0.5, got %f", s.Coef())
	}

	s.Step(stripBands(0))
	if math.Abs(s.Coef()-0.45) > 1e-9 {
		t.Fatalf("expected falloff to 0.45, got %f", s.Coef())
	}

	for i := 0; i < 100; i++ {
		s.Step(stripBands(0))
	}
	if s.Coef() != opts.AmbientBrightness {
		t.Fatalf("expected coef floored at %f, got %f", opts.AmbientBrightness, s.Coef())
	}

	s.Step(stripBands(10000))
	if s.Coef() != 1 {
		t.Fatalf("expected coef capped at 1, got %f", s.Coef())
	}

	if len(sink.calls) != 103 {
		t.Fatalf("expected one fade per step, got %d", len(sink.calls))
	}
}

func TestStripMissingBandIsSilence(t *testing.T) {
	sink := &recordingStrip{}
	s, err := NewStrip(DefaultStripOptions(), sink, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	s.Step(nil)
	if s.Coef() != 0.1 {
		t.Fatalf("expected ambient coef, got %f", s.Coef())
	}
}

func TestStripSetColorPushesImmediately(t *testing.T) {
	sink := &recordingStrip{}
	s, err := NewStrip(DefaultStripOptions(), sink, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	red := Color{R: 255}
	s.SetColor(red)
	if len(sink.calls) != 1 || sink.calls[0].color != red {
		t.Fatalf("expected one fade with red, got %+v", sink.calls)
	}
}

func TestNewDispatchesOnShape(t *testing.T) {
	sinks := Sinks{Grid: &recordingSink{}, Strip: &recordingStrip{}}

	v, err := New(ShapeMatrix, DefaultMatrixOptions(), sinks, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*Matrix); !ok {
		t.Fatalf("expected *Matrix, got %T", v)
	}
	if v.Delay() != DefaultMatrixOptions().Delay {
		t.Fatalf("unexpected delay %v", v.Delay())
	}

	v, err = New(ShapeStrip, DefaultStripOptions(), sinks, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*Strip); !ok {
		t.Fatalf("expected *Strip, got %T", v)
	}

	if _, err := New(Shape(9), DefaultMatrixOptions(), sinks, zerolog.Nop()); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
}

func TestNewReturnsNilOnError(t *testing.T) {
	bad := DefaultMatrixOptions()
	bad.Rows = 0

	tests := []struct {
		name  string
		shape Shape
		opts  Options
		sinks Sinks
	}{
		{"matrix options", ShapeMatrix, bad, Sinks{Grid: &recordingSink{}}},
		{"matrix sink", ShapeMatrix, DefaultMatrixOptions(), Sinks{}},
		{"strip sink", ShapeStrip, DefaultStripOptions(), Sinks{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.shape, tt.opts, tt.sinks, zerolog.Nop())
			if err == nil {
				t.Fatal("expected an error")
			}
			if v != nil {
				t.Fatalf("expected a nil Visualizer, got %#v", v)
			}
		})
	}
}

func TestStripValidation(t *testing.T) {
	opts := DefaultStripOptions()
	opts.Falloff = 1
	if _, err := NewStrip(opts, &recordingStrip{}, zerolog.Nop()); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	if _, err := NewStrip(DefaultStripOptions(), nil, zerolog.Nop()); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for nil sink, got %v", err)
	}
}

func TestColorHelpers(t *testing.T) {
	c := Color{R: 255, G: 128, B: 0}
	if c.Hex() != "#ff8000" {
		t.Fatalf("unexpected hex %s", c.Hex())
	}
	if got := c.Scale(0.5); got != (Color{R: 127, G: 64, B: 0}) {
		t.Fatalf("unexpected scaled colour %v", got)
	}
	if got := c.Scale(2); got != c {
		t.Fatalf("scale should clamp at 1, got %v", got)
	}
}
