package feedback

import (
	"fmt"
	"sync"
	"time"

	"github.com/hjkoskel/govattu"
)

// BuzzerConfig selects the buzzer pin and drive mode.
type BuzzerConfig struct {
	Pin       int    `yaml:"pin"`
	Mode      string `yaml:"mode"`      // "pin" for active buzzers, "pwm" for passive ones on PWM0
	Frequency int    `yaml:"frequency"` // pwm tone frequency in Hz, default 2000
}

// Enabled reports whether a pin is assigned.
func (c BuzzerConfig) Enabled() bool { return c.Pin != 0 }

// pwmBase is the PWM counter rate with the clock divisor used here, about
// 1.01 MHz on the 19.2 MHz oscillator.
const pwmBase = 19200000 / 19

// toneGap separates consecutive tones so a sequence of calls is heard as
// distinct beeps.
const toneGap = 60 * time.Millisecond

// Buzzer drives a piezo sounder. Active buzzers are switched on a plain
// output pin; passive ones get a square wave from the PWM block.
type Buzzer struct {
	hw  govattu.Vattu
	pin uint8
	pwm bool
	rng uint32

	mu sync.Mutex
}

// NewBuzzer maps the GPIO block and configures the pin.
func NewBuzzer(cfg BuzzerConfig) (*Buzzer, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	b := &Buzzer{hw: hw, pin: uint8(cfg.Pin)}
	switch cfg.Mode {
	case "pwm":
		freq := cfg.Frequency
		if freq <= 0 {
			freq = 2000
		}
		b.pwm = true
		b.rng = uint32(pwmBase / freq)
		hw.PinMode(b.pin, govattu.ALT5) // ALT5 for PWM0
		hw.PwmSetMode(true, true, false, false)
		hw.PwmSetClock(19)
		hw.Pwm0SetRange(b.rng)
		hw.Pwm0Set(0)
	case "pin", "":
		hw.PinMode(b.pin, govattu.ALToutput)
		hw.PinClear(b.pin)
	default:
		hw.Close()
		return nil, fmt.Errorf("unknown buzzer mode %q", cfg.Mode)
	}
	return b, nil
}

// Show implements Emitter.Show. The buzzer has no display.
func (b *Buzzer) Show(line1, line2 string) {}

// Tone implements Emitter.Tone. It holds the sounder on for d, then rests
// for the inter-tone gap before returning.
func (b *Buzzer) Tone(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pwm {
		b.hw.Pwm0Set(b.rng / 2)
	} else {
		b.hw.PinSet(b.pin)
	}
	time.Sleep(d)
	if b.pwm {
		b.hw.Pwm0Set(0)
	} else {
		b.hw.PinClear(b.pin)
	}
	time.Sleep(toneGap)
}

// Release implements Emitter.Release.
func (b *Buzzer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pwm {
		b.hw.Pwm0Set(0)
	} else {
		b.hw.PinClear(b.pin)
	}
	return b.hw.Close()
}
