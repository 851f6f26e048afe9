package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/petems/loopviz/internal/config"
	"github.com/petems/loopviz/internal/visualizer"
	"github.com/rs/zerolog"
)

// ColorSetter receives colour changes picked from the menu
type ColorSetter interface {
	SetColor(c visualizer.Color)
}

// Preset is a named target colour offered in the tray menu
type Preset struct {
	Name  string
	Color visualizer.Color
}

// Presets lists the colours offered in the tray menu
var Presets = []Preset{
	{"White", visualizer.Color{R: 255, G: 255, B: 255}},
	{"Red", visualizer.Color{R: 255, G: 0, B: 0}},
	{"Green", visualizer.Color{R: 0, G: 255, B: 0}},
	{"Blue", visualizer.Color{R: 0, G: 0, B: 255}},
	{"Cyan", visualizer.Color{R: 0, G: 255, B: 255}},
	{"Purple", visualizer.Color{R: 160, G: 32, B: 240}},
	{"Amber", visualizer.Color{R: 255, G: 191, B: 0}},
}

type UI struct {
	version string
	commit  string
	log     zerolog.Logger
	quit    context.CancelFunc

	// mu guards the fields below; each preset item clicks on its own goroutine
	mu      sync.Mutex
	target  ColorSetter
	cfg     *config.Config
	cfgPath string

	mStatus *systray.MenuItem
	mColors *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetLive() {
	u.updateStatus("live")
}

func (u *UI) SetFrozen() {
	u.updateStatus("frozen")
}

// New builds the tray UI. Colour picks are saved to cfgPath.
func New(target ColorSetter, cfg *config.Config, cfgPath string, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		target:  target,
		cfg:     cfg,
		cfgPath: cfgPath,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetTarget sets the colour receiver (for circular dependency resolution)
func (u *UI) SetTarget(target ColorSetter) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.target = target
}

// Run blocks on the tray event loop and MUST run on the main thread. Quit
// from the menu or cancelling ctx ends it; quit is called either way.
func (u *UI) Run(ctx context.Context, quit context.CancelFunc) error {
	u.quit = quit
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.updateStatus("live")
	systray.SetTooltip("Audio visualizer")

	u.mStatus = systray.AddMenuItem(fmt.Sprintf("Mode: %s", u.cfg.Mode), "Visualizer mode")
	u.mStatus.Disable()
	systray.AddSeparator()

	u.mColors = systray.AddMenuItem("Color", "Select target color")
	u.buildColorMenu()

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About loopviz")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mAbout, mQuit)
}

func (u *UI) handleEvents(mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			u.log.Info().Msg("Quit requested from tray")
			if u.quit != nil {
				u.quit()
			}
			systray.Quit()
			return
		}
	}
}

func (u *UI) buildColorMenu() {
	current := u.currentColor()
	items := make([]*systray.MenuItem, len(Presets))

	for i, p := range Presets {
		item := u.mColors.AddSubMenuItem(p.Name, "")
		if p.Color == current {
			item.Check()
		}
		items[i] = item

		go func(idx int, preset Preset, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				// Uncheck all other items
				for j, itm := range items {
					if j != idx {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				u.applyPreset(preset)
			}
		}(i, p, item)
	}
}

// applyPreset forwards the colour and persists it for the active mode
func (u *UI) applyPreset(p Preset) {
	u.mu.Lock()
	defer u.mu.Unlock()

	rgb := [3]uint8{p.Color.R, p.Color.G, p.Color.B}
	if u.cfg.Mode == config.ModeStrip {
		u.cfg.Strip.Color = rgb
	} else {
		u.cfg.Matrix.Color = rgb
	}
	if err := u.cfg.SaveTo(u.cfgPath); err != nil {
		u.log.Warn().Err(err).Msg("Failed to save config")
	}

	if u.target != nil {
		u.target.SetColor(p.Color)
	}
	u.log.Info().Str("color", p.Name).Msg("Changed color from tray")
}

func (u *UI) currentColor() visualizer.Color {
	u.mu.Lock()
	defer u.mu.Unlock()

	rgb := u.cfg.Matrix.Color
	if u.cfg.Mode == config.ModeStrip {
		rgb = u.cfg.Strip.Color
	}
	return visualizer.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
}

func (u *UI) showAbout() {
	// TODO: Show about dialog with native UI
	fmt.Printf("loopviz %s (%s)\nAudio loopback visualizer\n", u.version, u.commit)
}

func (u *UI) onExit() {
	// Cleanup
}

// updateStatus sets the tray title with a note emoji and status indicator
func (u *UI) updateStatus(status string) {
	systray.SetTitle(fmt.Sprintf("🎵 %s", emojiForStatus(status)))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "frozen":
		return "🟡" // Yellow - holding the last frame
	case "live":
		return "🟢" // Green - signal flowing
	default:
		return "🟢"
	}
}
