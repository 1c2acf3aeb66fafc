package motion

import (
	"fmt"

	"github.com/warthog618/gpio"
)

// Memmap samples a PIR sensor through the memory-mapped GPIO register
// block. It is the fallback for kernels without the character device.
type Memmap struct {
	pin    *gpio.Pin
	invert bool
}

// NewMemmap maps the register block and configures the pin as an input.
func NewMemmap(cfg Config) (*Memmap, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio mem: %w", err)
	}
	pin := gpio.NewPin(cfg.Pin)
	pin.Input()
	return &Memmap{pin: pin, invert: cfg.Invert}, nil
}

// Sample implements Monitor.Sample.
func (m *Memmap) Sample() bool {
	active := m.pin.Read() == gpio.High
	if m.invert {
		active = !active
	}
	return active
}

// Close implements Monitor.Close.
func (m *Memmap) Close() error {
	return gpio.Close()
}
