// Package card provides the identity-reader capability: detecting a
// presented card and reading the identity token from it. Backends cover the
// SPI proximity coupler the terminal ships with, USB keyboard-wedge readers,
// two framed serial protocols, and an in-memory simulator for bench use.
package card

import (
	"bytes"
	"errors"
	"fmt"
)

// BlockSize is the size of one card data block and therefore the maximum
// length of an identity payload.
const BlockSize = 16

// Payload is the raw identity read from a card: at most one block, padded
// out by the issuer with NULs or spaces.
type Payload []byte

// Token returns the printable identity: the payload with trailing NUL and
// space padding removed.
func (p Payload) Token() string {
	return string(bytes.TrimRight(p, "\x00 "))
}

// Handle identifies a card seen by Poll. It is valid until the next Poll.
// Readers that deliver the identity in the same exchange as the detect
// (keyboard wedges, framed serial readers) stash it here so ReadIdentity
// has no second bus transaction to perform.
type Handle struct {
	UID     []byte
	payload Payload
}

// Reader is implemented by all identity-reader backends.
type Reader interface {
	// Poll reports whether a card is currently presented. It never
	// blocks; transient detect errors count as no card.
	Poll() (Handle, bool)

	// ReadIdentity authenticates against the card with the configured
	// key and reads the identity block. Failures wrap ErrAuthFailed or
	// ErrReadFailed; both leave the reader usable for the next Poll.
	ReadIdentity(h Handle, block int) (Payload, error)

	// Close releases the underlying device.
	Close() error
}

// Read failures are recoverable: the caller logs and waits for the next
// presentation, no reader reset is needed.
var (
	ErrAuthFailed = errors.New("card: authentication failed")
	ErrReadFailed = errors.New("card: block read failed")
)

// Config selects and configures a reader backend.
type Config struct {
	Type   string `yaml:"type"`   // "mfrc522", "keyboard", "serial", "wiegand", "sim"
	Device string `yaml:"device"` // e.g. "/dev/serial0", "/dev/input/event0"
	Baud   int    `yaml:"baud"`   // baud rate for serial devices

	// mfrc522 settings
	SPIPort  string `yaml:"spi_port"`  // e.g. "/dev/spidev0.0", empty for the first port
	ResetPin string `yaml:"reset_pin"` // e.g. "GPIO25"
	IRQPin   string `yaml:"irq_pin"`   // e.g. "GPIO24"
	Key      string `yaml:"key"`       // sector key, 12 hex digits; empty = factory default
}

// New creates a Reader based on the provided configuration.
func New(cfg Config) (Reader, error) {
	switch cfg.Type {
	case "mfrc522", "":
		return NewMFRC522(cfg)
	case "keyboard":
		return NewKeyboard(cfg.Device)
	case "serial":
		return NewSerial(cfg.Device, cfg.Baud)
	case "wiegand":
		return NewWiegand(cfg.Device, cfg.Baud)
	case "sim":
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
