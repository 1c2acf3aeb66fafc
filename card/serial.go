package card

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tarm/serial"
)

// Serial reads USB RFID readers speaking a binary framed protocol:
// [0x02][0x09][data...][checksum][0x03], 9 bytes per presentation. A
// background goroutine pumps frames off the port so Poll stays
// non-blocking.
type Serial struct {
	port   *serial.Port
	device string
	tags   chan uint64
	done   chan struct{}
}

// NewSerial creates a serial RFID reader.
func NewSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	s := &Serial{
		port:   port,
		device: device,
		// Capacity one: the terminal serves one person at a time, a
		// swipe nobody consumed is stale.
		tags: make(chan uint64, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (s *Serial) pump() {
	buff := make([]byte, 9)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buff)
		if err != nil || n != 9 {
			continue // timeout or partial read, try again
		}
		tag, ok := decodeSerialFrame(buff)
		if !ok {
			continue
		}
		select {
		case s.tags <- tag:
		default:
		}
	}
}

// decodeSerialFrame validates one 9-byte frame and extracts the tag number.
func decodeSerialFrame(buff []byte) (uint64, bool) {
	if len(buff) != 9 || buff[0] != 0x02 || buff[1] != 0x09 || buff[8] != 0x03 {
		return 0, false
	}

	data := buff[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buff[7] {
		return 0, false
	}

	tag := (uint64(data[2]) << 24) | (uint64(data[3]) << 16) | (uint64(data[4]) << 8) | uint64(data[5])
	return tag, true
}

// Poll implements Reader.Poll.
func (s *Serial) Poll() (Handle, bool) {
	select {
	case tag := <-s.tags:
		return Handle{payload: Payload(strconv.FormatUint(tag, 10))}, true
	default:
		return Handle{}, false
	}
}

// ReadIdentity implements Reader.ReadIdentity. The identity arrived with the
// frame, so this only unwraps the handle.
func (s *Serial) ReadIdentity(h Handle, block int) (Payload, error) {
	if h.payload == nil {
		return nil, fmt.Errorf("%w: no frame behind handle", ErrReadFailed)
	}
	return h.payload, nil
}

// Close implements Reader.Close.
func (s *Serial) Close() error {
	close(s.done)
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
