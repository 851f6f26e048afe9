package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/petems/loopviz/internal/config"
	"github.com/petems/loopviz/internal/logging"
	"github.com/petems/loopviz/internal/visualizer"
)

// counter is a boolean-style flag that counts how often it was given
type counter int

func (c *counter) String() string   { return strconv.Itoa(int(*c)) }
func (c *counter) IsBoolFlag() bool { return true }

func (c *counter) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if v {
		*c++
	}
	return nil
}

type options struct {
	verbosity  counter
	configPath string

	count     int
	reduction int
	constant  float64
	device    string
	mode      string
	display   string
	addr      string
	file      string
	loop      bool
	tray      bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("loopviz", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Var(&o.verbosity, "v", "increase verbosity (repeatable)")
	fs.StringVar(&o.configPath, "config", config.Path(), "config file path")
	fs.IntVar(&o.count, "c", 0, "number of frequency bands")
	fs.IntVar(&o.count, "count", 0, "number of frequency bands")
	fs.IntVar(&o.reduction, "r", 0, "spectrum samples summed per band")
	fs.IntVar(&o.reduction, "reduction", 0, "spectrum samples summed per band")
	fs.Float64Var(&o.constant, "k", 0, "multiplier for logged band values")
	fs.Float64Var(&o.constant, "constant", 0, "multiplier for logged band values")
	fs.StringVar(&o.device, "d", "", "capture device name prefix")
	fs.StringVar(&o.device, "device", "", "capture device name prefix")
	fs.StringVar(&o.mode, "mode", "", "visualizer: matrix, strip or bands")
	fs.StringVar(&o.display, "display", "", "output: terminal, websocket or none")
	fs.StringVar(&o.addr, "addr", "", "websocket listen address")
	fs.StringVar(&o.file, "file", "", "replay a WAV, MP3 or Ogg file instead of capturing")
	fs.BoolVar(&o.loop, "loop", false, "restart the file at EOF")
	fs.BoolVar(&o.tray, "tray", false, "show the system tray menu")

	if err := fs.Parse(expandVerbosity(args)); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		o.set[f.Name] = true
	})
	return o, nil
}

// expandVerbosity rewrites stacked short flags such as -vvv into -v -v -v,
// which the flag package does not understand on its own.
func expandVerbosity(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if len(arg) > 2 && arg[0] == '-' && strings.Trim(arg[1:], "v") == "" {
			for range arg[1:] {
				out = append(out, "-v")
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (o *options) given(names ...string) bool {
	for _, n := range names {
		if o.set[n] {
			return true
		}
	}
	return false
}

// apply overlays flags the user actually passed onto cfg
func (o *options) apply(cfg *config.Config) {
	if o.given("c", "count") {
		cfg.Signal.Count = o.count
	}
	if o.given("r", "reduction") {
		cfg.Signal.Reduction = o.reduction
	}
	if o.given("k", "constant") {
		cfg.Signal.Scale = o.constant
	}
	if o.given("d", "device") {
		cfg.Audio.Device = o.device
	}
	if o.given("mode") {
		cfg.Mode = o.mode
	}
	if o.given("display") {
		cfg.Display = o.display
	}
	if o.given("addr") {
		cfg.WebSocket.Addr = o.addr
	}
	if o.given("file") {
		cfg.Audio.File = o.file
	}
	if o.given("loop") {
		cfg.Audio.Loop = o.loop
	}
	if o.given("tray") {
		cfg.Tray = o.tray
	}
	cfg.LogLevel = logging.VerbosityLevel(int(o.verbosity), cfg.LogLevel)
}

func matrixOptions(m config.MatrixConfig) visualizer.Options {
	return visualizer.Options{
		Rows:              m.Rows,
		Cols:              m.Cols,
		Fade:              m.Fade,
		Delay:             time.Duration(m.DelayMS) * time.Millisecond,
		Dampen:            m.Dampen,
		Ceiling:           m.Ceiling,
		DampenBias:        m.DampenBias,
		CeilingBias:       m.CeilingBias,
		AmbientBrightness: m.AmbientBrightness,
		Color:             toColor(m.Color),
	}
}

func stripOptions(s config.StripConfig) visualizer.Options {
	return visualizer.Options{
		Fade:              s.Fade,
		Falloff:           s.Falloff,
		Delay:             time.Duration(s.DelayMS) * time.Millisecond,
		Dampen:            s.Dampen,
		Ceiling:           s.Ceiling,
		AmbientBrightness: s.AmbientBrightness,
		Band:              s.Band,
		Color:             toColor(s.Color),
	}
}

func toColor(rgb [3]uint8) visualizer.Color {
	return visualizer.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
}
