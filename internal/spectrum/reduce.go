// Package spectrum folds a magnitude spectrum into a fixed number of bands.
package spectrum

import (
	"errors"
	"fmt"
)

const (
	DefaultCount = 25
	DefaultWidth = 50
	DefaultTop   = 100
	DefaultSkip  = 30
)

var (
	ErrInvalidParams    = errors.New("spectrum: count and width must be positive")
	ErrSpectrumTooShort = errors.New("spectrum: magnitude array too short")
)

// Bands holds one summed intensity per frequency band, lowest band first.
type Bands []float64

// Params controls how Reduce windows the spectrum.
type Params struct {
	Count int // number of output bands
	Width int // samples summed per band
	Top   int // index span the bands are spread across
	Skip  int // leading samples ignored
}

// DefaultParams returns the reducer defaults.
func DefaultParams() Params {
	return Params{
		Count: DefaultCount,
		Width: DefaultWidth,
		Top:   DefaultTop,
		Skip:  DefaultSkip,
	}
}

// Validate reports whether p can produce a band vector.
func (p Params) Validate() error {
	if p.Count <= 0 || p.Width <= 0 {
		return fmt.Errorf("%w: count=%d width=%d", ErrInvalidParams, p.Count, p.Width)
	}
	if p.Top < 0 || p.Skip < 0 {
		return fmt.Errorf("%w: top=%d skip=%d", ErrInvalidParams, p.Top, p.Skip)
	}
	return nil
}

// Span returns the minimum spectrum length Reduce needs for p.
func (p Params) Span() int {
	step := p.Top / p.Count
	return p.Skip + step*(p.Count-1) + p.Width
}

// Reduce sums p.Width consecutive magnitudes for each of p.Count bands. Band j
// starts at Skip + (Top/Count)*j. Non-positive magnitudes count as silence and
// are left out of the sum, so every band is >= 0.
func Reduce(mags []float64, p Params) (Bands, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if need := p.Span(); len(mags) < need {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrSpectrumTooShort, len(mags), need)
	}

	step := p.Top / p.Count
	bands := make(Bands, 0, p.Count)
	for j := 0; j < p.Count; j++ {
		start := p.Skip + step*j
		sum := 0.0
		for _, m := range mags[start : start+p.Width] {
			if m > 0 {
				sum += m
			}
		}
		bands = append(bands, sum)
	}
	return bands, nil
}
