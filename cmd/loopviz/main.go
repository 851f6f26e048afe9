package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petems/loopviz/internal/app"
	"github.com/petems/loopviz/internal/audio"
	"github.com/petems/loopviz/internal/config"
	"github.com/petems/loopviz/internal/display"
	"github.com/petems/loopviz/internal/logging"
	"github.com/petems/loopviz/internal/loopback"
	"github.com/petems/loopviz/internal/permissions"
	"github.com/petems/loopviz/internal/tray"
	"github.com/petems/loopviz/internal/visualizer"
	"github.com/rs/zerolog"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load config from XDG/Library/AppData, then let flags override it
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	opts.apply(cfg)

	log := logging.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// macOS gates every capture device behind the microphone prompt
	if cfg.Audio.File == "" {
		if err := permissions.EnsurePermissions(); err != nil {
			log.Fatal().Err(err).Msg("Required permissions not granted")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, vis, err := buildPipeline(ctx, cfg, log, audio.New)
	if err != nil {
		if errors.Is(err, audio.ErrDeviceNotFound) {
			log.Fatal().Err(err).Str("device", cfg.Audio.Device).Msg("No capture device matches")
		}
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer src.Close()

	// Without a visualizer the loop is paced by the blocking read alone
	var trayUI *tray.UI
	appCfg := app.Config{
		Signal:     src,
		Visualizer: vis,
		Logger:     log,
		Count:      cfg.Signal.Count,
		Width:      cfg.Signal.Reduction,
		Scale:      cfg.Signal.Scale,
	}
	if cfg.Tray {
		trayUI = tray.New(nil, cfg, opts.configPath, log, Version, Commit) // target set below
		appCfg.StatusUpdater = trayUI
	}
	application := app.New(appCfg)

	log.Info().Str("version", Version).Str("mode", cfg.Mode).Str("display", cfg.Display).Msg("loopviz starting...")

	if trayUI == nil {
		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Visualizer stopped")
		}
		log.Info().Msg("Shutting down...")
		return
	}

	trayUI.SetTarget(application)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Visualizer stopped")
		}
	}()

	// Tray UI MUST run on the main thread
	if err := trayUI.Run(ctx, cancel); err != nil {
		log.Error().Err(err).Msg("Tray error")
	}
	cancel()
	<-done
	log.Info().Msg("Shutting down...")
}

// audioOpener matches audio.New
type audioOpener func(cfg config.AudioConfig, log zerolog.Logger) (audio.Source, error)

// buildPipeline sets up the display and visualizer, then opens audio last so
// that no later step can fail while the capture stream is held.
func buildPipeline(ctx context.Context, cfg *config.Config, log zerolog.Logger, open audioOpener) (*loopback.Source, visualizer.Visualizer, error) {
	sinks, err := newSinks(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("display: %w", err)
	}

	vis, err := newVisualizer(cfg, sinks, log)
	if err != nil {
		return nil, nil, fmt.Errorf("visualizer: %w", err)
	}

	capture, err := open(cfg.Audio, log)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: %w", err)
	}

	src := loopback.New(capture, loopback.Config{
		Top:        cfg.Signal.Top,
		Skip:       cfg.Signal.Skip,
		DampenCoef: cfg.Signal.Dampen,
	}, log)
	return src, vis, nil
}

// newSinks builds the configured display. The websocket server stops when
// ctx is cancelled.
func newSinks(ctx context.Context, cfg *config.Config, log zerolog.Logger) (visualizer.Sinks, error) {
	switch cfg.Display {
	case config.DisplayTerminal:
		if cfg.Mode == config.ModeMatrix {
			fmt.Fprint(os.Stdout, "\x1b[2J")
		}
		t := display.NewTerminal(os.Stdout, true)
		return visualizer.Sinks{Grid: t, Strip: t}, nil
	case config.DisplayWebSocket:
		b := display.NewBroadcaster(log)
		go func() {
			if err := b.ListenAndServe(ctx, cfg.WebSocket.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.WebSocket.Addr).Msg("Websocket display failed")
			}
			b.Close()
		}()
		return visualizer.Sinks{Grid: b, Strip: b}, nil
	case config.DisplayNone:
		return visualizer.Sinks{Grid: display.Nop{}, Strip: display.Nop{}}, nil
	default:
		return visualizer.Sinks{}, fmt.Errorf("%w: unknown display %q", config.ErrInvalid, cfg.Display)
	}
}

// newVisualizer returns nil in bands mode; the app then logs band values.
func newVisualizer(cfg *config.Config, sinks visualizer.Sinks, log zerolog.Logger) (visualizer.Visualizer, error) {
	switch cfg.Mode {
	case config.ModeMatrix:
		return visualizer.New(visualizer.ShapeMatrix, matrixOptions(cfg.Matrix), sinks, log)
	case config.ModeStrip:
		return visualizer.New(visualizer.ShapeStrip, stripOptions(cfg.Strip), sinks, log)
	case config.ModeBands:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", config.ErrInvalid, cfg.Mode)
	}
}
