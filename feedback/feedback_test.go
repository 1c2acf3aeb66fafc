package feedback

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type recorder struct {
	shows    [][2]string
	tones    []time.Duration
	released bool
}

func (r *recorder) Show(line1, line2 string) { r.shows = append(r.shows, [2]string{line1, line2}) }
func (r *recorder) Tone(d time.Duration)     { r.tones = append(r.tones, d) }
func (r *recorder) Release() error           { r.released = true; return nil }

func TestMultiFansOut(t *testing.T) {
	a := &recorder{}
	b := &recorder{}
	m := NewMulti(a, b)

	m.Show("Scan your card", "")
	m.Tone(120 * time.Millisecond)
	if err := m.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	for name, r := range map[string]*recorder{"first": a, "second": b} {
		if len(r.shows) != 1 || r.shows[0][0] != "Scan your card" {
			t.Errorf("%s emitter shows = %v", name, r.shows)
		}
		if len(r.tones) != 1 || r.tones[0] != 120*time.Millisecond {
			t.Errorf("%s emitter tones = %v", name, r.tones)
		}
		if !r.released {
			t.Errorf("%s emitter not released", name)
		}
	}
}

func TestConsoleRendersFrame(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Show("Hi ALICE", "Wave to confirm")
	out := buf.String()
	if !strings.Contains(out, "|Hi ALICE        |") {
		t.Errorf("line 1 not padded to the frame:\n%s", out)
	}
	if !strings.Contains(out, "|Wave to confirm |") {
		t.Errorf("line 2 not padded to the frame:\n%s", out)
	}
}

func TestConsoleCoalescesRepeats(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Show("Scan your card", "")
	first := buf.Len()
	c.Show("Scan your card", "")
	if buf.Len() != first {
		t.Error("identical frame was redrawn")
	}
	c.Show("Scan your card", "changed")
	if buf.Len() == first {
		t.Error("changed frame was not drawn")
	}
}

func TestConsoleTruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Show(strings.Repeat("X", 30), "")
	if strings.Contains(buf.String(), strings.Repeat("X", 17)) {
		t.Error("line was not truncated to the display width")
	}
}

func TestNewNothingConfigured(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := e.(*Noop); !ok {
		t.Errorf("New(empty) = %T, want *Noop", e)
	}
	// Noop must be safe to use.
	e.Show("a", "b")
	e.Tone(time.Millisecond)
	if err := e.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
}

func TestNewConsoleOnly(t *testing.T) {
	e, err := New(Config{Console: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := e.(*Console); !ok {
		t.Errorf("New(console) = %T, want *Console", e)
	}
}

func TestLCDConfigEnabled(t *testing.T) {
	if (LCDConfig{}).Enabled() {
		t.Error("zero LCD config reports enabled")
	}
	if !(LCDConfig{RS: 7}).Enabled() {
		t.Error("LCD config with a pin reports disabled")
	}
}

func TestBuzzerConfigEnabled(t *testing.T) {
	if (BuzzerConfig{}).Enabled() {
		t.Error("zero buzzer config reports enabled")
	}
	if !(BuzzerConfig{Pin: 13}).Enabled() {
		t.Error("buzzer config with a pin reports disabled")
	}
}
