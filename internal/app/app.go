package app

import (
	"context"
	"sync"
	"time"

	"github.com/petems/loopviz/internal/animation"
	"github.com/petems/loopviz/internal/spectrum"
	"github.com/petems/loopviz/internal/visualizer"
	"github.com/rs/zerolog"
)

// BandReader produces one band vector per call
type BandReader interface {
	ReadOnce(count, width int) spectrum.Bands
	Stale() bool
	Exhausted() bool
}

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetLive()
	SetFrozen()
}

type Config struct {
	Signal        BandReader
	Visualizer    visualizer.Visualizer // nil logs scaled bands instead
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
	Count         int
	Width         int
	Scale         float64       // multiplier for logged bands
	Delay         time.Duration // used when there is no visualizer
}

type App struct {
	signal BandReader
	vis    visualizer.Visualizer
	log    zerolog.Logger
	status StatusUpdater

	count int
	width int
	scale float64
	delay time.Duration

	colors chan visualizer.Color
	frozen bool
	ticks  uint64
	stop   context.CancelFunc // ends Run once the audio is exhausted
	ended  bool

	mu      sync.Mutex
	running bool
}

func New(cfg Config) *App {
	delay := cfg.Delay
	if cfg.Visualizer != nil {
		delay = cfg.Visualizer.Delay()
	}
	return &App{
		signal: cfg.Signal,
		vis:    cfg.Visualizer,
		log:    cfg.Logger,
		status: cfg.StatusUpdater,
		count:  cfg.Count,
		width:  cfg.Width,
		scale:  cfg.Scale,
		delay:  delay,
		colors: make(chan visualizer.Color, 1),
	}
}

// Run drives ticks until ctx is cancelled or the audio source ends. An
// ended source returns nil.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.stop = cancel

	a.log.Info().Dur("delay", a.delay).Int("bands", a.count).Int("width", a.width).Msg("Visualizer starting")
	err := animation.Run(ctx, a.delay, a.Tick)
	a.log.Info().Uint64("ticks", a.ticks).Msg("Visualizer stopped")
	if a.ended {
		return nil
	}
	return err
}

// Tick performs one read and one visualizer step. Only the animation loop
// should call it.
func (a *App) Tick() {
	a.applyPendingColor()

	bands := a.signal.ReadOnce(a.count, a.width)
	if a.signal.Exhausted() {
		if !a.ended {
			a.ended = true
			a.log.Info().Msg("Audio source finished")
		}
		if a.stop != nil {
			a.stop()
		}
		return
	}
	a.trackStatus()
	a.ticks++

	if a.vis == nil {
		a.logBands(bands)
		return
	}
	a.vis.Step(bands)
}

// SetColor queues a target colour change for the next tick. Safe to call
// from any goroutine; only the latest pending colour is kept.
func (a *App) SetColor(c visualizer.Color) {
	for {
		select {
		case a.colors <- c:
			return
		default:
		}
		// Replace the stale pending colour
		select {
		case <-a.colors:
		default:
		}
	}
}

func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *App) applyPendingColor() {
	select {
	case c := <-a.colors:
		if a.vis != nil {
			a.vis.SetColor(c)
		}
		a.log.Info().Str("color", c.Hex()).Msg("Changed color")
	default:
	}
}

func (a *App) trackStatus() {
	stale := a.signal.Stale()
	if stale == a.frozen {
		return
	}
	a.frozen = stale

	if stale {
		a.log.Warn().Msg("Audio signal lost, holding last frame")
	} else {
		a.log.Info().Msg("Audio signal restored")
	}
	if a.status == nil {
		return
	}
	if stale {
		a.status.SetFrozen()
	} else {
		a.status.SetLive()
	}
}

func (a *App) logBands(bands spectrum.Bands) {
	a.log.Info().Ints("bands", ScaleBands(bands, a.scale)).Send()
}

// ScaleBands multiplies every band by scale and truncates to ints.
func ScaleBands(bands spectrum.Bands, scale float64) []int {
	out := make([]int, len(bands))
	for i, v := range bands {
		out[i] = int(v * scale)
	}
	return out
}
