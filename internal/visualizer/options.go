package visualizer

import (
	"fmt"
	"time"
)

// Options is shared by both variants. Rows, Cols, DampenBias and CeilingBias
// only apply to the matrix; Falloff and Band only to the strip.
type Options struct {
	Rows int
	Cols int

	Fade  float64 // per-tick decay factor, (0,1)
	Delay time.Duration

	Dampen  float64
	Ceiling float64

	DampenBias  float64 // per-column decay of Dampen, (0,1]
	CeilingBias float64 // per-column decay of Ceiling, (0,1]

	AmbientBrightness float64
	Color             Color

	Falloff float64
	Band    int
}

func DefaultMatrixOptions() Options {
	return Options{
		Rows:              6,
		Cols:              21,
		Fade:              0.8,
		Delay:             50 * time.Millisecond,
		Dampen:            1000,
		Ceiling:           1220,
		DampenBias:        0.92,
		CeilingBias:       0.98,
		AmbientBrightness: 15,
		Color:             White,
	}
}

func DefaultStripOptions() Options {
	return Options{
		Fade:              0.8,
		Delay:             10 * time.Millisecond,
		Dampen:            2200,
		Ceiling:           2850,
		AmbientBrightness: 0.1,
		Color:             White,
		Falloff:           0.9,
		Band:              4,
	}
}

func (o Options) validateCommon() error {
	if !(o.Fade > 0 && o.Fade < 1) {
		return fmt.Errorf("%w: fade %v outside (0,1)", ErrInvalidOptions, o.Fade)
	}
	if o.Ceiling <= o.Dampen {
		return fmt.Errorf("%w: ceiling %v must exceed dampen %v", ErrInvalidOptions, o.Ceiling, o.Dampen)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalidOptions)
	}
	if o.AmbientBrightness < 0 {
		return fmt.Errorf("%w: negative ambient brightness", ErrInvalidOptions)
	}
	return nil
}

func (o Options) validateMatrix() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if o.Rows <= 0 || o.Cols <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidOptions, o.Rows, o.Cols)
	}
	if !(o.DampenBias > 0 && o.DampenBias <= 1) || !(o.CeilingBias > 0 && o.CeilingBias <= 1) {
		return fmt.Errorf("%w: biases must be in (0,1]", ErrInvalidOptions)
	}
	return nil
}

func (o Options) validateStrip() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if !(o.Falloff > 0 && o.Falloff < 1) {
		return fmt.Errorf("%w: falloff %v outside (0,1)", ErrInvalidOptions, o.Falloff)
	}
	if o.Band < 0 {
		return fmt.Errorf("%w: negative band index", ErrInvalidOptions)
	}
	return nil
}
