package feedback

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Console renders the display as a boxed frame on a terminal, one frame per
// change. Tones are printed, not played, and do not sleep.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	last [2]string
	drew bool
}

// NewConsole creates a console emitter. A nil writer means stdout.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Show implements Emitter.Show.
func (c *Console) Show(line1, line2 string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drew && c.last[0] == line1 && c.last[1] == line2 {
		return // the controller re-renders the prompt every tick
	}
	c.last = [2]string{line1, line2}
	c.drew = true
	fmt.Fprintf(c.w, "+----------------+\n|%-16.16s|\n|%-16.16s|\n+----------------+\n", line1, line2)
}

// Tone implements Emitter.Tone.
func (c *Console) Tone(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "* beep %dms\n", d.Milliseconds())
}

// Release implements Emitter.Release.
func (c *Console) Release() error { return nil }
