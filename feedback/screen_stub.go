//go:build !screen

package feedback

import "time"

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return false
}

// ScreenConfig holds framebuffer display configuration.
type ScreenConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Device   string  `yaml:"device"`    // default "/dev/fb0"
	Font     string  `yaml:"font"`      // TTF path; empty uses the built-in bitmap face
	FontSize float64 `yaml:"font_size"` // default 48
}

// Screen is a stub when screen support is not compiled in.
type Screen struct{}

// NewScreen always fails without screen support.
func NewScreen(cfg ScreenConfig) (*Screen, error) {
	return nil, ErrScreenNotCompiled
}

func (s *Screen) Show(line1, line2 string) {}
func (s *Screen) Tone(d time.Duration)     {}
func (s *Screen) Release() error           { return nil }
