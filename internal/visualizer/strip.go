package visualizer

import (
	"fmt"
	"time"

	"github.com/petems/loopviz/internal/spectrum"
	"github.com/rs/zerolog"
)

// Strip drives a single-colour device from one band. Brightness jumps up
// immediately and falls off geometrically.
type Strip struct {
	opts Options
	sink StripSink
	log  zerolog.Logger

	color Color
	coef  float64
}

func NewStrip(opts Options, sink StripSink, log zerolog.Logger) (*Strip, error) {
	if err := opts.validateStrip(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: strip needs a strip sink", ErrInvalidOptions)
	}
	return &Strip{
		opts:  opts,
		sink:  sink,
		log:   log,
		color: opts.Color,
		coef:  opts.AmbientBrightness,
	}, nil
}

func (s *Strip) Delay() time.Duration { return s.opts.Delay }

// Coef returns the current brightness coefficient.
func (s *Strip) Coef() float64 { return s.coef }

func (s *Strip) Color() Color { return s.color }

func (s *Strip) Step(bands spectrum.Bands) {
	value := 0.0
	if s.opts.Band < len(bands) {
		value = bands[s.opts.Band]
	}

	next := (value - s.opts.Dampen) / (s.opts.Ceiling - s.opts.Dampen)
	if next >= s.coef {
		s.coef = next
	} else {
		s.coef *= s.opts.Falloff
	}
	if s.coef < s.opts.AmbientBrightness {
		s.coef = s.opts.AmbientBrightness
	}
	if s.coef > 1 {
		s.coef = 1
	}

	s.push()
}

// SetColor switches colour and pushes it to the device straight away.
func (s *Strip) SetColor(c Color) {
	s.color = c
	s.push()
}

func (s *Strip) push() {
	if err := s.sink.Fade(s.color, s.coef); err != nil {
		s.log.Warn().Err(err).Msg("Strip fade failed")
	}
}
