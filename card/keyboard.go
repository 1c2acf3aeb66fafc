package card

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kenshaw/evdev"
)

// Keyboard reads USB keyboard-wedge RFID readers: the reader types the
// token and finishes with Enter. A background goroutine accumulates
// keystrokes so Poll stays non-blocking.
type Keyboard struct {
	device *evdev.Evdev
	cancel context.CancelFunc
	tokens chan string
}

// NewKeyboard creates a wedge reader on the specified input device.
func NewKeyboard(device string) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}
	slog.Info("opened keyboard reader", "device", device, "name", dev.Name(),
		"vendor", fmt.Sprintf("0x%04x", dev.ID().Vendor),
		"product", fmt.Sprintf("0x%04x", dev.ID().Product))

	ctx, cancel := context.WithCancel(context.Background())
	k := &Keyboard{
		device: dev,
		cancel: cancel,
		tokens: make(chan string, 1),
	}
	go k.pump(ctx)
	return k, nil
}

func (k *Keyboard) pump(ctx context.Context) {
	ch := k.device.Poll(ctx)
	var strbuf string

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if event == nil {
				return // device closed
			}

			switch event.Type.(type) {
			case evdev.KeyType:
				if event.Value != 1 {
					continue // key releases and repeats
				}

				switch event.Type {
				case evdev.KeyEnter:
					if strbuf == "" {
						continue
					}
					select {
					case k.tokens <- strbuf:
					default:
					}
					strbuf = ""
				case evdev.KeyEscape:
					strbuf = ""
				default:
					// Single-character key names are the token
					// characters; modifiers and specials spell
					// out longer and are skipped.
					s := evdev.KeyType(event.Code).String()
					if len(s) == 1 {
						strbuf += s
					}
				}
			}
		}
	}
}

// Poll implements Reader.Poll.
func (k *Keyboard) Poll() (Handle, bool) {
	select {
	case token := <-k.tokens:
		p := Payload(token)
		if len(p) > BlockSize {
			p = p[:BlockSize]
		}
		return Handle{payload: p}, true
	default:
		return Handle{}, false
	}
}

// ReadIdentity implements Reader.ReadIdentity.
func (k *Keyboard) ReadIdentity(h Handle, block int) (Payload, error) {
	if h.payload == nil {
		return nil, fmt.Errorf("%w: no keystrokes behind handle", ErrReadFailed)
	}
	return h.payload, nil
}

// Close implements Reader.Close.
func (k *Keyboard) Close() error {
	k.cancel()
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}
