// Package clock abstracts the time source so the session controller can be
// driven deterministically in tests. Production wiring injects Real(); tests
// inject a Fake and advance it by hand.
package clock

import "time"

// Clock supplies the current time. The controller never sleeps, it only
// compares timestamps, so Now is the whole surface.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the system clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
