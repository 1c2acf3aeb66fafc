// Package feedback provides the operator-feedback capability: a two-line
// text display and a tone device. Backends cover a console renderer, an
// HD44780 character module, a framebuffer panel and a piezo buzzer; they
// can be stacked, and with nothing configured the emitter is a no-op.
package feedback

import (
	"errors"
	"fmt"
	"time"
)

// ErrScreenNotCompiled is returned when screen support was not compiled in.
var ErrScreenNotCompiled = errors.New("screen support not compiled in (build with -tags=screen)")

// Emitter is implemented by all feedback backends. Calls are
// fire-and-forget: nothing the operator sees or hears ever feeds back into
// control flow.
//
// Show replaces the whole display; identical consecutive frames may be
// coalesced by the backend. Tone blocks for the tone's duration, and
// audible backends add a fixed trailing gap so back-to-back calls come out
// as distinct beeps.
type Emitter interface {
	Show(line1, line2 string)
	Tone(d time.Duration)
	Release() error
}

// Config selects the devices to assemble. Anything left unconfigured is
// skipped.
type Config struct {
	Console bool         `yaml:"console"` // render the display on stdout
	LCD     LCDConfig    `yaml:"lcd"`     // HD44780 character module
	Screen  ScreenConfig `yaml:"screen"`  // framebuffer panel
	Buzzer  BuzzerConfig `yaml:"buzzer"`  // piezo buzzer
}

// New assembles the configured devices into a single Emitter.
func New(cfg Config) (Emitter, error) {
	var emitters []Emitter

	if cfg.Console {
		emitters = append(emitters, NewConsole(nil))
	}

	if cfg.LCD.Enabled() {
		lcd, err := NewLCD(cfg.LCD)
		if err != nil {
			releaseAll(emitters)
			return nil, fmt.Errorf("init lcd: %w", err)
		}
		emitters = append(emitters, lcd)
	}

	if cfg.Screen.Enabled {
		if !ScreenSupported() {
			releaseAll(emitters)
			return nil, ErrScreenNotCompiled
		}
		scr, err := NewScreen(cfg.Screen)
		if err != nil {
			releaseAll(emitters)
			return nil, fmt.Errorf("init screen: %w", err)
		}
		emitters = append(emitters, scr)
	}

	if cfg.Buzzer.Enabled() {
		bz, err := NewBuzzer(cfg.Buzzer)
		if err != nil {
			releaseAll(emitters)
			return nil, fmt.Errorf("init buzzer: %w", err)
		}
		emitters = append(emitters, bz)
	}

	if len(emitters) == 0 {
		return &Noop{}, nil
	}
	if len(emitters) == 1 {
		return emitters[0], nil
	}
	return &Multi{emitters: emitters}, nil
}

func releaseAll(emitters []Emitter) {
	for _, e := range emitters {
		_ = e.Release()
	}
}

// Multi fans out to several emitters.
type Multi struct {
	emitters []Emitter
}

// NewMulti wraps a set of emitters.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

// Show implements Emitter.Show.
func (m *Multi) Show(line1, line2 string) {
	for _, e := range m.emitters {
		e.Show(line1, line2)
	}
}

// Tone implements Emitter.Tone.
func (m *Multi) Tone(d time.Duration) {
	for _, e := range m.emitters {
		e.Tone(d)
	}
}

// Release implements Emitter.Release. All emitters are released; the first
// error wins.
func (m *Multi) Release() error {
	var first error
	for _, e := range m.emitters {
		if err := e.Release(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Noop is the emitter used when nothing is configured.
type Noop struct{}

func (n *Noop) Show(line1, line2 string) {}
func (n *Noop) Tone(d time.Duration)     {}
func (n *Noop) Release() error           { return nil }
