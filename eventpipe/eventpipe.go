// Package eventpipe feeds simulated hardware events into the terminal
// through a named pipe, so a session can be exercised end to end on a bench
// with no reader or sensor attached:
//
//	echo "card ALICE" > /tmp/gotap-events
//	echo "motion 1"   > /tmp/gotap-events
package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
)

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // path to the named pipe, empty disables it
}

// Command is one parsed line from the pipe.
//
//	card <token>    present a card carrying the token
//	motion <0|1>    drive the simulated presence level
//	identify        make the terminal chirp so it can be found
type Command struct {
	Name   string
	Token  string // card
	Active bool   // motion
}

// Handler is called for each command received from the pipe.
type Handler func(Command)

// Pipe listens for commands on a named pipe.
type Pipe struct {
	path    string
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a Pipe. Returns nil if no path is configured.
func New(cfg Config, handler Handler) (*Pipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Replace a pipe left over from a previous run.
	os.Remove(cfg.Path)
	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipe{
		path:    cfg.Path,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start reads commands until Close. It should be called as a goroutine.
func (p *Pipe) Start() {
	slog.Info("event pipe listening", "path", p.path)

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		// Opening the read side blocks until a writer shows up.
		file, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			slog.Warn("event pipe open", "error", err)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-p.ctx.Done():
				file.Close()
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			cmd, err := parseLine(line)
			if err != nil {
				slog.Warn("event pipe parse", "line", line, "error", err)
				continue
			}
			if p.handler != nil {
				p.handler(cmd)
			}
		}

		file.Close()
		// Writer closed the pipe; loop back and wait for the next one.
	}
}

// Close stops the listener and removes the pipe.
func (p *Pipe) Close() error {
	p.cancel()
	return os.Remove(p.path)
}

// parseLine parses one command line.
func parseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "card":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("card requires a token")
		}
		// The token may contain spaces; everything after the verb is
		// the token, exactly as a card would carry it.
		token := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
		return Command{Name: "card", Token: token}, nil

	case "motion":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("motion requires 0 or 1")
		}
		switch strings.ToLower(parts[1]) {
		case "1", "true", "on":
			return Command{Name: "motion", Active: true}, nil
		case "0", "false", "off":
			return Command{Name: "motion", Active: false}, nil
		default:
			return Command{}, fmt.Errorf("invalid motion level: %s", parts[1])
		}

	case "identify":
		return Command{Name: "identify"}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
