package card

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/devices/v3/mfrc522/commands"
	"periph.io/x/host/v3"
)

// MFRC522 drives the SPI proximity coupler the terminal ships with. Poll is
// a short UID select; ReadIdentity authenticates sector access with the
// configured key and reads the identity block.
type MFRC522 struct {
	port spi.PortCloser
	dev  *mfrc522.Dev
	key  mfrc522.Key
}

const (
	pollTimeout = 150 * time.Millisecond
	readTimeout = 500 * time.Millisecond
)

// NewMFRC522 initializes the host, claims the SPI port and control pins and
// brings up the coupler.
func NewMFRC522(cfg Config) (*MFRC522, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPIPort, err)
	}

	rst := gpioreg.ByName(cfg.ResetPin)
	if rst == nil {
		port.Close()
		return nil, fmt.Errorf("unknown reset pin %q", cfg.ResetPin)
	}
	irq := gpioreg.ByName(cfg.IRQPin)
	if irq == nil {
		port.Close()
		return nil, fmt.Errorf("unknown irq pin %q", cfg.IRQPin)
	}

	dev, err := mfrc522.NewSPI(port, rst, irq)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("init mfrc522: %w", err)
	}

	key, err := parseKey(cfg.Key)
	if err != nil {
		port.Close()
		return nil, err
	}

	return &MFRC522{port: port, dev: dev, key: key}, nil
}

// parseKey decodes a 12-hex-digit sector key. Empty selects the transport
// factory default, which is what field cards are provisioned with.
func parseKey(s string) (mfrc522.Key, error) {
	if s == "" {
		return mfrc522.DefaultKey, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 6 {
		return mfrc522.Key{}, fmt.Errorf("reader key must be 12 hex digits, got %q", s)
	}
	var key mfrc522.Key
	copy(key[:], raw)
	return key, nil
}

// Poll implements Reader.Poll.
func (m *MFRC522) Poll() (Handle, bool) {
	uid, err := m.dev.ReadUID(pollTimeout)
	if err != nil {
		// No card in the field, or a transient RF error. Either way
		// there is nothing to identify this tick.
		return Handle{}, false
	}
	return Handle{UID: uid}, true
}

// ReadIdentity implements Reader.ReadIdentity.
func (m *MFRC522) ReadIdentity(h Handle, block int) (Payload, error) {
	sector, rel := block/4, block%4
	data, err := m.dev.ReadCard(readTimeout, byte(commands.PICC_AUTHENT1A), sector, rel, m.key)
	if err != nil {
		return nil, classifyCardError(err)
	}
	if len(data) > BlockSize {
		data = data[:BlockSize]
	}
	return Payload(data), nil
}

// classifyCardError folds driver errors into the reader taxonomy. The
// driver does not type its errors, so authentication failures are
// recognized by message.
func classifyCardError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "auth") {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %v", ErrReadFailed, err)
}

// Close implements Reader.Close.
func (m *MFRC522) Close() error {
	if err := m.dev.Halt(); err != nil {
		slog.Debug("mfrc522 halt", "error", err)
	}
	return m.port.Close()
}
