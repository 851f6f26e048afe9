package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Visualizer modes
const (
	ModeMatrix = "matrix"
	ModeStrip  = "strip"
	ModeBands  = "bands"
)

// Display targets
const (
	DisplayTerminal  = "terminal"
	DisplayWebSocket = "websocket"
	DisplayNone      = "none"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LogLevel  string          `json:"log_level"`
	Mode      string          `json:"mode"`    // "matrix", "strip" or "bands"
	Display   string          `json:"display"` // "terminal", "websocket" or "none"
	Tray      bool            `json:"tray"`
	Audio     AudioConfig     `json:"audio"`
	Signal    SignalConfig    `json:"signal"`
	Matrix    MatrixConfig    `json:"matrix"`
	Strip     StripConfig     `json:"strip"`
	WebSocket WebSocketConfig `json:"websocket"`
}

type AudioConfig struct {
	Device     string `json:"device"` // case-sensitive name prefix
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	ChunkSize  int    `json:"chunk_size"` // frames per read
	File       string `json:"file"`       // replay a file instead of capturing
	Loop       bool   `json:"loop"`
}

type SignalConfig struct {
	Count     int     `json:"count"`
	Reduction int     `json:"reduction"`
	Top       int     `json:"top"`
	Skip      int     `json:"skip"`
	Dampen    float64 `json:"dampen"`
	Scale     float64 `json:"scale"` // multiplier for logged band values
}

type MatrixConfig struct {
	Rows              int      `json:"rows"`
	Cols              int      `json:"cols"`
	Fade              float64  `json:"fade"`
	DelayMS           int      `json:"delay_ms"`
	Dampen            float64  `json:"dampen"`
	Ceiling           float64  `json:"ceiling"`
	DampenBias        float64  `json:"dampen_bias"`
	CeilingBias       float64  `json:"ceiling_bias"`
	AmbientBrightness float64  `json:"ambient_brightness"`
	Color             [3]uint8 `json:"color"`
}

type StripConfig struct {
	Fade              float64  `json:"fade"`
	Falloff           float64  `json:"falloff"`
	DelayMS           int      `json:"delay_ms"`
	Dampen            float64  `json:"dampen"`
	Ceiling           float64  `json:"ceiling"`
	AmbientBrightness float64  `json:"ambient_brightness"`
	Band              int      `json:"band"`
	Color             [3]uint8 `json:"color"`
}

type WebSocketConfig struct {
	Addr string `json:"addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Mode:     ModeMatrix,
		Display:  DisplayTerminal,
		Tray:     false,
		Audio: AudioConfig{
			Device:     DefaultDevice(),
			Channels:   2,
			SampleRate: 48000,
			ChunkSize:  1024,
		},
		Signal: SignalConfig{
			Count:     25,
			Reduction: 20,
			Top:       100,
			Skip:      30,
			Dampen:    0,
			Scale:     9.0 / 1200.0,
		},
		Matrix: MatrixConfig{
			Rows:              6,
			Cols:              21,
			Fade:              0.8,
			DelayMS:           50,
			Dampen:            1000,
			Ceiling:           1220,
			DampenBias:        0.92,
			CeilingBias:       0.98,
			AmbientBrightness: 15,
			Color:             [3]uint8{255, 255, 255},
		},
		Strip: StripConfig{
			Fade:              0.8,
			Falloff:           0.9,
			DelayMS:           10,
			Dampen:            2200,
			Ceiling:           2850,
			AmbientBrightness: 0.1,
			Band:              4,
			Color:             [3]uint8{255, 255, 255},
		},
		WebSocket: WebSocketConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}

// Load reads the config from the platform path or returns defaults
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom overlays the JSON file at path onto the defaults. A missing file
// is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveTo(configPath())
}

// SaveTo writes the config to path, creating parent directories
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeMatrix, ModeStrip, ModeBands:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	}
	switch c.Display {
	case DisplayTerminal, DisplayWebSocket, DisplayNone:
	default:
		return fmt.Errorf("%w: unknown display %q", ErrInvalid, c.Display)
	}
	if c.Signal.Count <= 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalid, c.Signal.Count)
	}
	if c.Signal.Reduction <= 0 {
		return fmt.Errorf("%w: reduction must be positive, got %d", ErrInvalid, c.Signal.Reduction)
	}
	if c.Audio.ChunkSize <= 0 || c.Audio.Channels <= 0 || c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio chunk size, channels and sample rate must be positive", ErrInvalid)
	}
	if c.Mode == ModeMatrix && (c.Matrix.Rows <= 0 || c.Matrix.Cols <= 0) {
		return fmt.Errorf("%w: matrix must have positive rows and cols", ErrInvalid)
	}
	if c.Mode == ModeMatrix && c.Matrix.Cols > c.Signal.Count {
		return fmt.Errorf("%w: %d matrix columns but only %d bands", ErrInvalid, c.Matrix.Cols, c.Signal.Count)
	}
	if c.Mode == ModeStrip && (c.Strip.Band < 0 || c.Strip.Band >= c.Signal.Count) {
		return fmt.Errorf("%w: strip band %d outside [0,%d)", ErrInvalid, c.Strip.Band, c.Signal.Count)
	}
	return nil
}

// DefaultDevice returns the loopback device name prefix for the current platform
func DefaultDevice() string {
	if runtime.GOOS == "windows" {
		return "CABLE Output"
	}
	return "pulse"
}

// Path returns the platform-specific config file path
func Path() string {
	return configPath()
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "loopviz", "config.json")
}
