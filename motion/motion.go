// Package motion provides the presence-monitor capability: a binary motion
// level sampled once per controller tick. Implementations do no debouncing
// and keep no history; the controller owns all temporal reasoning.
package motion

import "fmt"

// Monitor is implemented by all presence-sensor backends.
type Monitor interface {
	// Sample returns the instantaneous sensor level, true while motion
	// is being reported. It never blocks.
	Sample() bool

	// Close releases the underlying line.
	Close() error
}

// Config selects and configures a monitor backend.
type Config struct {
	Type   string `yaml:"type"`   // "gpiocdev", "memmap", "sim"
	Chip   string `yaml:"chip"`   // gpio chip for gpiocdev, default "gpiochip0"
	Pin    int    `yaml:"pin"`    // line offset / BCM pin number
	Invert bool   `yaml:"invert"` // set for active-low sensors
}

// New creates a Monitor based on the provided configuration.
func New(cfg Config) (Monitor, error) {
	switch cfg.Type {
	case "gpiocdev", "":
		return NewGPIO(cfg)
	case "memmap":
		return NewMemmap(cfg)
	case "sim":
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("unknown motion type %q", cfg.Type)
	}
}
