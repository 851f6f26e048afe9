package main

import (
	"context"
	"errors"
	"testing"

	"github.com/petems/loopviz/internal/audio"
	"github.com/petems/loopviz/internal/config"
	"github.com/rs/zerolog"
)

type fakeCapture struct {
	closed bool
}

func (f *fakeCapture) ReadChunk() ([]int16, error) { return make([]int16, 2048), nil }
func (f *fakeCapture) SampleRate() int             { return 48000 }
func (f *fakeCapture) Channels() int               { return 2 }
func (f *fakeCapture) Close() error {
	f.closed = true
	return nil
}

type recordingOpener struct {
	calls   int
	capture *fakeCapture
	err     error
}

func (r *recordingOpener) open(config.AudioConfig, zerolog.Logger) (audio.Source, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	r.capture = &fakeCapture{}
	return r.capture, nil
}

func TestBuildPipelineOpensAudioLast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"bad display", func(cfg *config.Config) { cfg.Display = "hologram" }},
		{"bad mode", func(cfg *config.Config) { cfg.Mode = "spiral" }},
		{"bad visualizer options", func(cfg *config.Config) { cfg.Matrix.Fade = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Display = config.DisplayNone
			tt.mutate(cfg)

			opener := &recordingOpener{}
			src, vis, err := buildPipeline(context.Background(), cfg, zerolog.Nop(), opener.open)
			if err == nil {
				t.Fatal("expected an error")
			}
			if src != nil || vis != nil {
				t.Fatal("expected nothing to be returned on error")
			}
			if opener.calls != 0 {
				t.Fatalf("audio must not be opened when setup fails, opened %d times", opener.calls)
			}
		})
	}
}

func TestBuildPipelineOwnsCapture(t *testing.T) {
	cfg := config.Default()
	cfg.Display = config.DisplayNone

	opener := &recordingOpener{}
	src, vis, err := buildPipeline(context.Background(), cfg, zerolog.Nop(), opener.open)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if vis == nil || opener.calls != 1 {
		t.Fatalf("expected a visualizer and one audio open, got %v and %d", vis, opener.calls)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !opener.capture.closed {
		t.Fatal("closing the pipeline should release the capture stream")
	}
}

func TestBuildPipelineKeepsDeviceError(t *testing.T) {
	cfg := config.Default()
	cfg.Display = config.DisplayNone

	opener := &recordingOpener{err: audio.ErrDeviceNotFound}
	_, _, err := buildPipeline(context.Background(), cfg, zerolog.Nop(), opener.open)
	if !errors.Is(err, audio.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}
