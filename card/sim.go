package card

import (
	"fmt"
	"sync"
)

// Sim is an in-memory reader fed by the event pipe. Each injected token is
// presented on exactly one Poll.
type Sim struct {
	mu      sync.Mutex
	pending []Payload
}

// NewSim creates an empty simulated reader.
func NewSim() *Sim { return &Sim{} }

// Inject queues a token as the next presentation. Tokens longer than one
// block are truncated, matching what a real card could carry.
func (s *Sim) Inject(token string) {
	p := Payload(token)
	if len(p) > BlockSize {
		p = p[:BlockSize]
	}
	s.mu.Lock()
	s.pending = append(s.pending, p)
	s.mu.Unlock()
}

// Poll implements Reader.Poll.
func (s *Sim) Poll() (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Handle{}, false
	}
	p := s.pending[0]
	s.pending = s.pending[1:]
	return Handle{payload: p}, true
}

// ReadIdentity implements Reader.ReadIdentity.
func (s *Sim) ReadIdentity(h Handle, block int) (Payload, error) {
	if h.payload == nil {
		return nil, fmt.Errorf("%w: stale handle", ErrReadFailed)
	}
	return h.payload, nil
}

// Close implements Reader.Close.
func (s *Sim) Close() error { return nil }
