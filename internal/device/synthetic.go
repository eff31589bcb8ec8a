package device

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	apperrors "go-capture-guide/internal/errors"
)

// Synthetic renders a test scene instead of reading a camera: a textured
// block pattern in the middle of a soft gradient, with the exposure
// swinging slowly between too dark and well lit so the guide visibly
// changes state.
type Synthetic struct {
	// Period of one dark-to-bright exposure cycle
	Period time.Duration
	// MaxWidth caps the rendered width; the ideal size is scaled down to fit
	MaxWidth int
	now      func() time.Time
}

// NewSynthetic creates a synthetic device with an 8 second exposure cycle
func NewSynthetic() *Synthetic {
	return &Synthetic{Period: 8 * time.Second, MaxWidth: 1280, now: time.Now}
}

func (d *Synthetic) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDeviceUnavailableError("device acquisition cancelled", err)
	}

	w, h := c.IdealWidth, c.IdealHeight
	if w <= 0 || h <= 0 {
		return nil, apperrors.NewUnsupportedError("synthetic device needs an ideal resolution", nil)
	}
	if d.MaxWidth > 0 && w > d.MaxWidth {
		h = h * d.MaxWidth / w
		w = d.MaxWidth
	}

	return &syntheticStream{
		dev:     d,
		width:   w,
		height:  h,
		started: d.now(),
	}, nil
}

type syntheticStream struct {
	dev           *Synthetic
	width, height int
	started       time.Time

	mu     sync.Mutex
	closed bool
}

func (s *syntheticStream) Frame() (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, apperrors.NewDeviceUnavailableError("stream closed", nil)
	}

	elapsed := s.dev.now().Sub(s.started)
	gain := 1.0
	if s.dev.Period > 0 {
		phase := 2 * math.Pi * float64(elapsed) / float64(s.dev.Period)
		gain = 0.25 + 0.75*(0.5-0.5*math.Cos(phase))
	}
	return renderScene(s.width, s.height, gain), nil
}

func (s *syntheticStream) Dimensions() (int, int) {
	return s.width, s.height
}

func (s *syntheticStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// renderScene draws the scene scaled by gain (0..1)
func renderScene(w, h int, gain float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	block := max(w/80, 2)
	x0, x1 := w/5, w*4/5
	y0, y1 := h/8, h*7/8

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				if (x/block+y/block)%2 == 0 {
					v = 200
				} else {
					v = 90
				}
			} else {
				v = 120 + 40*float64(y)/float64(h)
			}
			l := uint8(math.Min(255, v*gain))
			img.SetRGBA(x, y, color.RGBA{l, uint8(float64(l) * 0.95), uint8(float64(l) * 0.9), 255})
		}
	}
	return img
}
