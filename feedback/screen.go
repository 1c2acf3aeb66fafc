//go:build screen

package feedback

import (
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// ScreenConfig holds framebuffer display configuration.
type ScreenConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Device   string  `yaml:"device"`    // default "/dev/fb0"
	Font     string  `yaml:"font"`      // TTF path; empty uses the built-in bitmap face
	FontSize float64 `yaml:"font_size"` // default 48
}

// Screen renders the two display lines on a framebuffer panel.
type Screen struct {
	dc              *gg.Context
	pixBuffer       []byte
	backBuffer      []byte
	rgbaImage       *image.RGBA
	width           int
	height          int
	lineLengthBytes int

	mu   sync.Mutex
	last [2]string
	drew bool
}

// NewScreen opens the framebuffer and prepares the drawing context.
func NewScreen(cfg ScreenConfig) (*Screen, error) {
	device := cfg.Device
	if device == "" {
		device = "/dev/fb0"
	}

	fbLowLevel, err := framebuffer.OpenFrameBuffer(device, os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fbLowLevel.VarScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fbLowLevel.FixScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("get fixed screen info: %w", err)
	}
	if varInfo.BitsPerPixel != 16 {
		return nil, fmt.Errorf("framebuffer is %d bpp, only 16 bpp panels are supported", varInfo.BitsPerPixel)
	}

	s := &Screen{
		width:           int(varInfo.XRes),
		height:          int(varInfo.YRes),
		lineLengthBytes: int(fixedInfo.LineLength),
	}
	s.pixBuffer, err = fbLowLevel.Pixels()
	if err != nil {
		return nil, fmt.Errorf("get pixel data: %w", err)
	}
	s.backBuffer = make([]byte, s.height*s.lineLengthBytes)

	slog.Info("screen ready", "device", device,
		"size", fmt.Sprintf("%dx%d", s.width, s.height),
		"stride", s.lineLengthBytes)

	s.rgbaImage = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	s.dc = gg.NewContextForRGBA(s.rgbaImage)

	size := cfg.FontSize
	if size <= 0 {
		size = 48
	}
	if cfg.Font != "" {
		if err := s.dc.LoadFontFace(cfg.Font, size); err != nil {
			slog.Warn("load font failed, using built-in face", "font", cfg.Font, "error", err)
			s.dc.SetFontFace(basicfont.Face7x13)
		}
	} else {
		s.dc.SetFontFace(basicfont.Face7x13)
	}

	s.clear()
	return s, nil
}

func (s *Screen) clear() {
	for i := range s.pixBuffer {
		s.pixBuffer[i] = 0
	}
}

// flush converts the RGBA scratch image to RGB565 and copies it out in one
// write, so the panel never shows a half-drawn frame.
func (s *Screen) flush() {
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			r, g, b, _ := s.rgbaImage.At(x, y).RGBA()
			r5 := uint16(r >> (16 - 5))
			g6 := uint16(g >> (16 - 6))
			b5 := uint16(b >> (16 - 5))
			pixel16 := (r5 << 11) | (g6 << 5) | b5
			fbIdx := (y * s.lineLengthBytes) + (x * 2)
			if fbIdx+1 < len(s.backBuffer) {
				binary.LittleEndian.PutUint16(s.backBuffer[fbIdx:], pixel16)
			}
		}
	}
	copy(s.pixBuffer, s.backBuffer)
}

// Show implements Emitter.Show.
func (s *Screen) Show(line1, line2 string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drew && s.last[0] == line1 && s.last[1] == line2 {
		return
	}
	s.last = [2]string{line1, line2}
	s.drew = true

	s.dc.SetRGB(0, 0, 0.25)
	s.dc.DrawRectangle(0, 0, float64(s.width), float64(s.height))
	s.dc.Fill()

	s.dc.SetRGB(1, 1, 1)
	s.dc.DrawStringAnchored(line1, float64(s.width/2), float64(s.height)*0.38, 0.5, 0.5)
	s.dc.DrawStringAnchored(line2, float64(s.width/2), float64(s.height)*0.62, 0.5, 0.5)
	s.flush()
}

// Tone implements Emitter.Tone. The panel is silent.
func (s *Screen) Tone(d time.Duration) {}

// Release implements Emitter.Release.
func (s *Screen) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}
