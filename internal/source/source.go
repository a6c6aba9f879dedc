// Package source provides the capture device owned by the frame producer:
// a V4L2 camera on Linux, or a simulated camera that replays a still image.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/remotecam/internal/frame"
)

// Source errors.
var (
	// ErrHardwareUnavailable means no usable capture device is present.
	ErrHardwareUnavailable = errors.New("camera hardware unavailable")
	// ErrNotConfigured is returned by Capture before the first Configure.
	ErrNotConfigured = errors.New("source not configured")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("source closed")
)

// Source is a continuous frame sequence from one camera.
//
// A Source is driven by a single goroutine; implementations need not be
// safe for concurrent use except where noted.
type Source interface {
	// Name identifies the implementation in logs.
	Name() string
	// Configure (re)allocates capture buffers for res.
	Configure(res frame.Resolution) error
	// Capture returns the next frame of the sequence.
	Capture(ctx context.Context) (*frame.Frame, error)
	// SetShutterSpeed sets the exposure time in microseconds; 0 is auto.
	SetShutterSpeed(us int) error
	// Close releases the device. Further calls fail with ErrClosed.
	Close() error
}

// Kind selects the implementation at startup.
type Kind string

// Source kinds.
const (
	KindAuto      Kind = "auto"
	KindHardware  Kind = "hardware"
	KindSimulated Kind = "simulated"
)

// Config configures source selection and the chosen implementation.
type Config struct {
	Kind Kind

	// Hardware
	Device      string // V4L2 device path; empty picks the first capture device
	InputFormat string // ffmpeg -input_format, e.g. "mjpeg"
	FPS         int

	// Simulated
	ImagePath     string // PNG or JPEG still; empty generates colour bars
	FrameInterval time.Duration
}

// Device is a capture device the hardware source can open.
type Device struct {
	Path   string `json:"path" example:"/dev/video0" doc:"Device node"`
	Name   string `json:"name" example:"mmal service 16.1" doc:"Card name"`
	Driver string `json:"driver" example:"bm2835 mmal" doc:"Kernel driver"`
	Bus    string `json:"bus" example:"platform:bcm2835-v4l2" doc:"Bus information"`
}
