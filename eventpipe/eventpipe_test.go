package eventpipe

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"card ALICE", Command{Name: "card", Token: "ALICE"}},
		{"card MARY JANE", Command{Name: "card", Token: "MARY JANE"}},
		{"CARD bob", Command{Name: "card", Token: "bob"}},
		{"motion 1", Command{Name: "motion", Active: true}},
		{"motion on", Command{Name: "motion", Active: true}},
		{"motion 0", Command{Name: "motion", Active: false}},
		{"motion off", Command{Name: "motion", Active: false}},
		{"identify", Command{Name: "identify"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if err != nil {
				t.Fatalf("parseLine(%q): %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("parseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"card", "motion", "motion maybe", "launch missiles"} {
		t.Run(line, func(t *testing.T) {
			if got, err := parseLine(line); err == nil {
				t.Errorf("parseLine(%q) = %+v, want error", line, got)
			}
		})
	}
}

func TestNewUnconfigured(t *testing.T) {
	p, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p != nil {
		t.Error("New with no path should return a nil pipe")
	}
}

func TestPipeDeliversCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events")
	got := make(chan Command, 8)

	p, err := New(Config{Path: path}, func(c Command) { got <- c })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go p.Start()
	defer p.Close()

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open write side: %v", err)
	}
	fmt.Fprintln(w, "card ALICE")
	fmt.Fprintln(w, "# a comment, skipped")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "motion 1")
	fmt.Fprintln(w, "identify")
	w.Close()

	want := []Command{
		{Name: "card", Token: "ALICE"},
		{Name: "motion", Active: true},
		{Name: "identify"},
	}
	for i, wc := range want {
		select {
		case gc := <-got:
			if gc != wc {
				t.Errorf("command %d = %+v, want %+v", i, gc, wc)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for command %d", i)
		}
	}
}
