// Package loopback turns captured PCM chunks into band vectors.
//
// Source.ReadOnce never fails: numeric faults, short spectra and read errors
// all collapse to the last band vector that was produced successfully.
package loopback

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"github.com/petems/loopviz/internal/audio"
	"github.com/petems/loopviz/internal/spectrum"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/dsp/fourier"
)

var (
	ErrEmptyChunk   = errors.New("loopback: empty chunk")
	ErrNumericFault = errors.New("loopback: non-finite magnitude")
)

// Config holds the fixed part of the reduction; count and width are passed
// per read.
type Config struct {
	Top        int
	Skip       int
	DampenCoef float64 // subtracted from every dB magnitude
}

// DefaultConfig returns the reducer's default window.
func DefaultConfig() Config {
	return Config{
		Top:  spectrum.DefaultTop,
		Skip: spectrum.DefaultSkip,
	}
}

type Source struct {
	audio audio.Source
	cfg   Config
	log   zerolog.Logger

	fft   *fourier.FFT
	input []float64
	coeff []complex128
	mags  []float64

	last      spectrum.Bands
	stale     bool
	exhausted bool
}

// New takes ownership of src; Close releases it.
func New(src audio.Source, cfg Config, log zerolog.Logger) *Source {
	return &Source{
		audio: src,
		cfg:   cfg,
		log:   log,
	}
}

// ReadOnce blocks for one chunk and returns its band vector. On any fault the
// previous band vector is returned (nil before the first success). The
// result is a copy the caller may modify.
func (s *Source) ReadOnce(count, width int) spectrum.Bands {
	bands, err := s.read(count, width)
	if err != nil {
		s.stale = true
		if errors.Is(err, io.EOF) {
			s.exhausted = true
		}
		s.log.Debug().Err(err).Int("count", count).Int("width", width).Msg("Signal fault, reusing last frame")
		return s.Last()
	}
	s.stale = false
	s.exhausted = false
	s.last = bands
	return s.Last()
}

// Last returns a copy of the cached band vector.
func (s *Source) Last() spectrum.Bands {
	if s.last == nil {
		return nil
	}
	return append(spectrum.Bands(nil), s.last...)
}

// Stale reports whether the most recent ReadOnce fell back to the cache.
func (s *Source) Stale() bool {
	return s.stale
}

// Exhausted reports whether the audio source has ended, as a replayed file
// does when it does not loop.
func (s *Source) Exhausted() bool {
	return s.exhausted
}

func (s *Source) Close() error {
	if s.audio == nil {
		return nil
	}
	err := s.audio.Close()
	s.audio = nil
	return err
}

func (s *Source) read(count, width int) (spectrum.Bands, error) {
	if s.audio == nil {
		return nil, errors.New("loopback: source closed")
	}
	chunk, err := s.audio.ReadChunk()
	if err != nil {
		return nil, err
	}
	return s.analyze(chunk, count, width)
}

// analyze runs FFT, dB scaling and dampening on chunk, then reduces the
// magnitudes to count bands.
func (s *Source) analyze(chunk []int16, count, width int) (spectrum.Bands, error) {
	mags, err := s.magnitudes(chunk)
	if err != nil {
		return nil, err
	}

	for i, m := range mags {
		m -= s.cfg.DampenCoef
		if m < 0 {
			m = 0
		}
		mags[i] = m
	}

	return spectrum.Reduce(mags, spectrum.Params{
		Count: count,
		Width: width,
		Top:   s.cfg.Top,
		Skip:  s.cfg.Skip,
	})
}

// magnitudes returns 10*log10(|FFT(chunk)|/N) for the N/2+1 real-FFT bins.
// The returned slice is reused between calls.
func (s *Source) magnitudes(chunk []int16) ([]float64, error) {
	n := len(chunk)
	if n == 0 {
		return nil, ErrEmptyChunk
	}
	if s.fft == nil || s.fft.Len() != n {
		s.fft = fourier.NewFFT(n)
		s.input = make([]float64, n)
		s.coeff = make([]complex128, n/2+1)
		s.mags = make([]float64, n/2+1)
	}

	for i, v := range chunk {
		s.input[i] = float64(v)
	}
	s.coeff = s.fft.Coefficients(s.coeff, s.input)

	for i, c := range s.coeff {
		db := 10 * math.Log10(cmplx.Abs(c)/float64(n))
		if math.IsNaN(db) || math.IsInf(db, 0) {
			return nil, fmt.Errorf("%w at bin %d", ErrNumericFault, i)
		}
		s.mags[i] = db
	}
	return s.mags, nil
}
