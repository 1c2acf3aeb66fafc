//go:build !linux

package motion

import "errors"

// ErrNotSupported is returned off Linux, where the GPIO character device
// does not exist.
var ErrNotSupported = errors.New("gpiocdev motion sensor not supported on this platform")

// NewGPIO always fails on non-Linux platforms.
func NewGPIO(cfg Config) (Monitor, error) {
	return nil, ErrNotSupported
}
