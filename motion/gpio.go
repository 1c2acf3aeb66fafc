//go:build linux

package motion

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO samples a PIR sensor through the GPIO character device.
type GPIO struct {
	line   *gpiocdev.Line
	invert bool
}

// NewGPIO requests the configured line as an input.
func NewGPIO(cfg Config) (*GPIO, error) {
	chip := cfg.Chip
	if chip == "" {
		chip = "gpiochip0"
	}
	line, err := gpiocdev.RequestLine(chip, cfg.Pin, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("request line %s:%d: %w", chip, cfg.Pin, err)
	}
	return &GPIO{line: line, invert: cfg.Invert}, nil
}

// Sample implements Monitor.Sample.
func (g *GPIO) Sample() bool {
	v, err := g.line.Value()
	if err != nil {
		// A failed line read is indistinguishable from no motion.
		return false
	}
	active := v != 0
	if g.invert {
		active = !active
	}
	return active
}

// Close implements Monitor.Close.
func (g *GPIO) Close() error { return g.line.Close() }
