package feedback

import (
	"fmt"
	"sync"
	"time"

	"github.com/hjkoskel/govattu"
)

// LCDConfig holds the pin assignment for an HD44780 module wired in 4-bit
// mode. Data lists D4..D7 in order.
type LCDConfig struct {
	RS     int   `yaml:"rs"`
	Enable int   `yaml:"enable"`
	Data   []int `yaml:"data"`
	Width  int   `yaml:"width"` // characters per line, default 16
}

// Enabled reports whether any pin is assigned.
func (c LCDConfig) Enabled() bool {
	return c.RS != 0 || c.Enable != 0 || len(c.Data) != 0
}

// LCD drives an HD44780 character module over GPIO in 4-bit mode.
type LCD struct {
	hw     govattu.Vattu
	rs     uint8
	enable uint8
	data   [4]uint8
	width  int

	mu   sync.Mutex
	last [2]string
	drew bool
}

// NewLCD maps the GPIO block, claims the pins and runs the controller's
// 4-bit initialization sequence.
func NewLCD(cfg LCDConfig) (*LCD, error) {
	if len(cfg.Data) != 4 {
		return nil, fmt.Errorf("lcd needs exactly 4 data pins, got %d", len(cfg.Data))
	}
	width := cfg.Width
	if width <= 0 {
		width = 16
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	l := &LCD{
		hw:     hw,
		rs:     uint8(cfg.RS),
		enable: uint8(cfg.Enable),
		width:  width,
	}
	for i, p := range cfg.Data {
		l.data[i] = uint8(p)
	}

	hw.PinMode(l.rs, govattu.ALToutput)
	hw.PinMode(l.enable, govattu.ALToutput)
	for _, p := range l.data {
		hw.PinMode(p, govattu.ALToutput)
	}

	l.initSequence()
	return l, nil
}

// initSequence is the datasheet power-on dance for 4-bit operation.
func (l *LCD) initSequence() {
	time.Sleep(15 * time.Millisecond)
	l.writeNibble(0x3, false)
	time.Sleep(5 * time.Millisecond)
	l.writeNibble(0x3, false)
	time.Sleep(150 * time.Microsecond)
	l.writeNibble(0x3, false)
	time.Sleep(150 * time.Microsecond)
	l.writeNibble(0x2, false) // switch to 4-bit
	time.Sleep(150 * time.Microsecond)

	l.command(0x28) // 4-bit, two lines, 5x8 font
	l.command(0x0C) // display on, cursor off
	l.command(0x06) // advance cursor on write
	l.command(0x01) // clear
}

func (l *LCD) writeNibble(n byte, rs bool) {
	if rs {
		l.hw.PinSet(l.rs)
	} else {
		l.hw.PinClear(l.rs)
	}
	for i, p := range l.data {
		if n&(1<<uint(i)) != 0 {
			l.hw.PinSet(p)
		} else {
			l.hw.PinClear(p)
		}
	}
	l.hw.PinSet(l.enable)
	time.Sleep(time.Microsecond)
	l.hw.PinClear(l.enable)
	time.Sleep(50 * time.Microsecond)
}

func (l *LCD) writeByte(b byte, rs bool) {
	l.writeNibble(b>>4, rs)
	l.writeNibble(b&0x0F, rs)
}

func (l *LCD) command(b byte) {
	l.writeByte(b, false)
	if b == 0x01 || b == 0x02 {
		// Clear and home are the slow ones.
		time.Sleep(2 * time.Millisecond)
	}
}

// Show implements Emitter.Show.
func (l *LCD) Show(line1, line2 string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.drew && l.last[0] == line1 && l.last[1] == line2 {
		return
	}
	l.last = [2]string{line1, line2}
	l.drew = true

	l.command(0x80) // DDRAM line 1
	l.writeLine(line1)
	l.command(0xC0) // DDRAM line 2
	l.writeLine(line2)
}

// writeLine pads or truncates to the module width so stale characters never
// linger.
func (l *LCD) writeLine(s string) {
	for i := 0; i < l.width; i++ {
		c := byte(' ')
		if i < len(s) {
			c = s[i]
		}
		l.writeByte(c, true)
	}
}

// Tone implements Emitter.Tone. The module is silent.
func (l *LCD) Tone(d time.Duration) {}

// Release implements Emitter.Release.
func (l *LCD) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.command(0x01)
	return l.hw.Close()
}
