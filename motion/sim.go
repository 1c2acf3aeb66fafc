package motion

import "sync/atomic"

// Sim is a monitor whose level is driven by the event pipe.
type Sim struct {
	active atomic.Bool
}

// NewSim creates a simulated sensor reporting no motion.
func NewSim() *Sim { return &Sim{} }

// Set drives the simulated sensor level.
func (s *Sim) Set(active bool) { s.active.Store(active) }

// Sample implements Monitor.Sample.
func (s *Sim) Sample() bool { return s.active.Load() }

// Close implements Monitor.Close.
func (s *Sim) Close() error { return nil }
