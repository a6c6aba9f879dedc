package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/logging"
)

// DefaultFrameInterval paces the simulated camera at 10 fps.
const DefaultFrameInterval = 100 * time.Millisecond

// Simulated replays a still image scaled to the configured resolution.
type Simulated struct {
	base     image.Image
	interval time.Duration
	logger   logging.Logger

	mu       sync.Mutex
	template []byte
	res      frame.Resolution
	shutter  int
	next     time.Time
	closed   bool
}

// NewSimulated creates a simulated source. With an empty imagePath a colour
// bar pattern is generated.
func NewSimulated(imagePath string, interval time.Duration, logger logging.Logger) (*Simulated, error) {
	base, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Simulated{base: base, interval: interval, logger: logger}, nil
}

// Name implements Source.
func (s *Simulated) Name() string { return "simulated" }

// Configure rescales the still image to res.
func (s *Simulated) Configure(res frame.Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: %s", frame.ErrInvalidResolution, res)
	}

	dst := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), s.base, s.base.Bounds(), draw.Src, nil)
	data := frame.FromImage(dst).Data

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.template = data
	s.res = res
	s.next = time.Time{}
	s.logger.Debug("Simulated source configured", "resolution", res.String())
	return nil
}

// Capture waits for the next frame slot and returns a copy of the image.
func (s *Simulated) Capture(ctx context.Context) (*frame.Frame, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.template == nil {
		s.mu.Unlock()
		return nil, ErrNotConfigured
	}
	now := time.Now()
	if s.next.IsZero() || s.next.Before(now) {
		s.next = now
	}
	wait := s.next.Sub(now)
	s.next = s.next.Add(s.interval)
	res, template := s.res, s.template
	s.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	f := frame.New(res)
	copy(f.Data, template)
	f.Timestamp = time.Now()
	return f, nil
}

// SetShutterSpeed records the requested exposure time.
func (s *Simulated) SetShutterSpeed(us int) error {
	if us < 0 {
		return fmt.Errorf("negative shutter speed %dµs", us)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.shutter = us
	return nil
}

// ShutterSpeed returns the last applied exposure time in microseconds.
func (s *Simulated) ShutterSpeed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutter
}

// Close implements Source.
func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.template = nil
	return nil
}

func loadImage(path string) (image.Image, error) {
	if path == "" {
		return colourBars(640, 480), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open simulated image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode simulated image %s: %w", path, err)
	}
	return img, nil
}

// colourBars draws the eight SMPTE-style vertical bars.
func colourBars(width, height int) image.Image {
	bars := []color.RGBA{
		{0xff, 0xff, 0xff, 0xff},
		{0xff, 0xff, 0x00, 0xff},
		{0x00, 0xff, 0xff, 0xff},
		{0x00, 0xff, 0x00, 0xff},
		{0xff, 0x00, 0xff, 0xff},
		{0xff, 0x00, 0x00, 0xff},
		{0x00, 0x00, 0xff, 0xff},
		{0x00, 0x00, 0x00, 0xff},
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		c := bars[x*len(bars)/width]
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
