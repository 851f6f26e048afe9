package spectrum

import (
	"errors"
	"testing"
)

func TestReduceScenario(t *testing.T) {
	mags := []float64{1, 1, 2, 2, 3, 3, 4, 4, 0, 0}
	got, err := Reduce(mags, Params{Count: 4, Width: 2, Top: 8, Skip: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := Bands{2, 4, 6, 8}
	if len(got) != len(expected) {
		t.Fatalf("expected %d bands, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("band %d: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestReduceLengthAndSign(t *testing.T) {
	mags := make([]float64, 513)
	for i := range mags {
		mags[i] = float64(i%7) - 3
	}

	for _, count := range []int{1, 2, 5, 21, 25, 50, 100} {
		p := DefaultParams()
		p.Count = count
		got, err := Reduce(mags, p)
		if err != nil {
			t.Fatalf("count %d: unexpected error: %v", count, err)
		}
		if len(got) != count {
			t.Fatalf("count %d: got %d bands", count, len(got))
		}
		for i, v := range got {
			if v < 0 {
				t.Fatalf("count %d: band %d is negative (%f)", count, i, v)
			}
		}
	}
}

func TestReduceIgnoresNonPositive(t *testing.T) {
	mags := make([]float64, 200)
	for i := range mags {
		mags[i] = -float64(i + 1)
	}
	mags[0] = 0

	got, err := Reduce(mags, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("band %d: expected 0, got %f", i, v)
		}
	}
}

func TestReduceMixedSigns(t *testing.T) {
	mags := []float64{5, -5, 3, -1}
	got, err := Reduce(mags, Params{Count: 2, Width: 2, Top: 4, Skip: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != 5 || got[1] != 3 {
		t.Fatalf("expected [5 3], got %v", got)
	}
}

func TestReduceErrors(t *testing.T) {
	tests := []struct {
		name   string
		mags   []float64
		params Params
		want   error
	}{
		{"zero count", make([]float64, 10), Params{Count: 0, Width: 2, Top: 8}, ErrInvalidParams},
		{"negative width", make([]float64, 10), Params{Count: 2, Width: -1, Top: 8}, ErrInvalidParams},
		{"short spectrum", make([]float64, 9), Params{Count: 4, Width: 4, Top: 8}, ErrSpectrumTooShort},
		{"skip past end", make([]float64, 10), Params{Count: 1, Width: 1, Top: 1, Skip: 10}, ErrSpectrumTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reduce(tt.mags, tt.params)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
