package card

import (
	"fmt"
	"strconv"
	"time"

	"go.bug.st/serial"
)

const (
	stx = 0x02
	etx = 0x03
)

// Wiegand reads Wiegand-style serial RFID readers that frame the card
// number as ASCII hex between STX and ETX. Frames are pumped by a
// background goroutine so Poll stays non-blocking.
type Wiegand struct {
	port serial.Port
	tags chan uint64
	done chan struct{}
}

// NewWiegand creates a Wiegand reader on the specified serial port.
func NewWiegand(device string, baud int) (*Wiegand, error) {
	if baud == 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	_ = p.SetReadTimeout(50 * time.Millisecond)

	w := &Wiegand{
		port: p,
		tags: make(chan uint64, 1),
		done: make(chan struct{}),
	}
	w.flush()
	go w.pump()
	return w, nil
}

func (w *Wiegand) pump() {
	for {
		select {
		case <-w.done:
			return
		default:
		}

		tag, err := w.readFrame()
		if err != nil || tag == 0 {
			continue
		}
		select {
		case w.tags <- tag:
		default:
		}
	}
}

// readFrame reads one STX..ETX frame off the port. A return of (0, nil)
// means no complete frame arrived within the read timeout.
func (w *Wiegand) readFrame() (uint64, error) {
	first := make([]byte, 1)
	n, err := w.port.Read(first)
	if err != nil {
		return 0, fmt.Errorf("read STX: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	if first[0] != stx {
		w.flush()
		return 0, nil
	}

	var id []byte
	buf := make([]byte, 1)
	for {
		n, err := w.port.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("read body: %w", err)
		}
		if n == 0 {
			w.flush()
			return 0, nil
		}
		if buf[0] == etx {
			break
		}
		if buf[0] == '\r' || buf[0] == '\n' {
			continue
		}
		id = append(id, buf[0])
	}

	return parseWiegandFrame(string(id))
}

// parseWiegandFrame extracts the card number from the ASCII hex body of a
// frame. A 12-character body carries a trailing XOR checksum byte over the
// five data bytes; a shorter body is zero-padded to ten characters and
// carries none.
func parseWiegandFrame(id string) (uint64, error) {
	var sum byte
	check := len(id) == 12
	if check {
		c, err := strconv.ParseUint(id[10:12], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("parse checksum %q: %w", id[10:12], err)
		}
		sum = byte(c)
		id = id[:10]
	}

	for len(id) < 10 {
		id = "0" + id
	}

	var checksum byte
	for i := 0; i <= 8; i += 2 {
		b, err := strconv.ParseUint(id[i:i+2], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid hex at pos %d: %w", i, err)
		}
		checksum ^= byte(b)
	}
	if check && checksum != sum {
		return 0, fmt.Errorf("checksum mismatch: computed %02X, frame carries %02X", checksum, sum)
	}

	cardHex := id[4:10]
	cardInt, err := strconv.ParseUint(cardHex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse card hex %q: %w", cardHex, err)
	}
	return cardInt, nil
}

// Poll implements Reader.Poll.
func (w *Wiegand) Poll() (Handle, bool) {
	select {
	case tag := <-w.tags:
		return Handle{payload: Payload(strconv.FormatUint(tag, 10))}, true
	default:
		return Handle{}, false
	}
}

// ReadIdentity implements Reader.ReadIdentity.
func (w *Wiegand) ReadIdentity(h Handle, block int) (Payload, error) {
	if h.payload == nil {
		return nil, fmt.Errorf("%w: no frame behind handle", ErrReadFailed)
	}
	return h.payload, nil
}

// Close implements Reader.Close.
func (w *Wiegand) Close() error {
	close(w.done)
	if w.port == nil {
		return nil
	}
	return w.port.Close()
}

func (w *Wiegand) flush() {
	_ = w.port.SetReadTimeout(10 * time.Millisecond)
	defer func() {
		_ = w.port.SetReadTimeout(50 * time.Millisecond)
	}()

	tmp := make([]byte, 64)
	for {
		n, err := w.port.Read(tmp)
		if err != nil || n == 0 {
			return
		}
	}
}
