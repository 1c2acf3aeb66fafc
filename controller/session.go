package controller

import (
	"time"

	"gotap/card"
)

// Phase is the controller's position in the session lifecycle.
type Phase int

const (
	// PhaseIdle means no session is in flight; every tick polls the
	// reader.
	PhaseIdle Phase = iota

	// PhaseAwaitingMotion means a card was read and the controller is
	// waiting for the presence sensor inside the timeout window.
	PhaseAwaitingMotion

	// PhaseReporting means presence was confirmed and the report request
	// is in flight. The phase is transient: it always resolves back to
	// Idle within the same tick.
	PhaseReporting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingMotion:
		return "awaiting-motion"
	case PhaseReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// Session is the working state for one identified person, created on a
// successful card read and destroyed when the report resolves or the
// window expires. Payload is non-nil exactly while Phase is AwaitingMotion
// or Reporting.
type Session struct {
	Phase   Phase
	Payload card.Payload
	ArmedAt time.Time
}
