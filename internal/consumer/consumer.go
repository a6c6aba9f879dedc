// Package consumer is the client side of the camera: it receives frames
// from the producer's broadcast and issues control requests over its
// request/reply channel.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/frame"
	rcnats "github.com/smazurov/remotecam/internal/nats"
	"github.com/smazurov/remotecam/internal/ringbuf"
)

// DefaultTimeout bounds frame waits and control round trips.
const DefaultTimeout = 5 * time.Second

// Consumer errors.
var (
	// ErrTimeout means no frame or reply arrived in time.
	ErrTimeout = errors.New("timed out")
	// ErrMalformedFrame means a frame message could not be decoded.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("consumer closed")
)

// RejectedError is a control request the producer answered with success=false.
type RejectedError struct {
	Request control.Kind
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Request, e.Message)
}

// FrameReceiver yields broadcast frames; ok is false for undecodable ones.
type FrameReceiver interface {
	Next(ctx context.Context) (f *frame.Frame, ok bool, err error)
	Close() error
}

// Requester performs one control round trip.
type Requester interface {
	Do(ctx context.Context, req control.Request) (control.Response, error)
}

// Options configures a Consumer.
type Options struct {
	Camera         string
	HighWaterMark  int
	FrameTimeout   time.Duration
	ControlTimeout time.Duration
	Logger         *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.Camera == "" {
		o.Camera = "default"
	}
	if o.FrameTimeout <= 0 {
		o.FrameTimeout = DefaultTimeout
	}
	if o.ControlTimeout <= 0 {
		o.ControlTimeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Consumer is a client of one camera's producer. Control calls are
// serialized; Capture may run concurrently with them.
type Consumer struct {
	frames  FrameReceiver
	ctl     Requester
	timeout time.Duration
	logger  *slog.Logger
	conn    *nats.Conn // owned when created by Dial
}

// New creates a consumer over existing transport endpoints.
func New(frames FrameReceiver, ctl Requester, opts Options) *Consumer {
	opts.applyDefaults()
	return &Consumer{
		frames:  frames,
		ctl:     ctl,
		timeout: opts.FrameTimeout,
		logger:  opts.Logger,
	}
}

// Dial connects to the broker at url and subscribes to the camera's frames.
func Dial(url string, opts Options) (*Consumer, error) {
	opts.applyDefaults()

	conn, err := rcnats.Connect(url, "remotecam-consumer", opts.Logger)
	if err != nil {
		return nil, err
	}
	c, err := NewFromConn(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewFromConn creates a consumer on a shared connection, which Close leaves open.
func NewFromConn(conn *nats.Conn, opts Options) (*Consumer, error) {
	opts.applyDefaults()

	frames, err := rcnats.NewFrameSubscriber(conn, opts.Camera, opts.HighWaterMark, opts.Logger)
	if err != nil {
		return nil, err
	}
	ctl := rcnats.NewControlClient(conn, opts.Camera, opts.ControlTimeout, opts.Logger)
	return New(frames, ctl, opts), nil
}

// Capture waits for the next frame, up to the frame timeout.
func (c *Consumer) Capture(ctx context.Context) (*frame.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	f, ok, err := c.frames.Next(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("no frame within %s: %w", c.timeout, ErrTimeout)
	case errors.Is(err, ringbuf.ErrClosed):
		return nil, ErrClosed
	case err != nil:
		return nil, err
	case !ok:
		return nil, ErrMalformedFrame
	}
	return f, nil
}

// GetExposure returns the exposure in milliseconds; 0 is auto.
func (c *Consumer) GetExposure(ctx context.Context) (float64, error) {
	resp, err := c.do(ctx, control.GetExposure{})
	if err != nil {
		return 0, err
	}
	return resp.ExposureValue()
}

// SetExposure sets the exposure in milliseconds and returns the value in effect.
func (c *Consumer) SetExposure(ctx context.Context, ms float64) (float64, error) {
	resp, err := c.do(ctx, control.SetExposure{Exposure: ms})
	if err != nil {
		return 0, err
	}
	return resp.ExposureValue()
}

// GetResolution returns the configured resolution.
func (c *Consumer) GetResolution(ctx context.Context) (frame.Resolution, error) {
	resp, err := c.do(ctx, control.GetResolution{})
	if err != nil {
		return frame.Resolution{}, err
	}
	return resp.ResolutionValue()
}

// SetResolution changes the resolution. Frames already in flight keep the
// old shape.
func (c *Consumer) SetResolution(ctx context.Context, res frame.Resolution) (frame.Resolution, error) {
	resp, err := c.do(ctx, control.SetResolution{Resolution: res})
	if err != nil {
		return frame.Resolution{}, err
	}
	return resp.ResolutionValue()
}

// StartCapture resumes frame production.
func (c *Consumer) StartCapture(ctx context.Context) (control.Phase, error) {
	resp, err := c.do(ctx, control.StartCapture{})
	if err != nil {
		return "", err
	}
	return resp.Phase, nil
}

// StopCapture pauses frame production.
func (c *Consumer) StopCapture(ctx context.Context) (control.Phase, error) {
	resp, err := c.do(ctx, control.StopCapture{})
	if err != nil {
		return "", err
	}
	return resp.Phase, nil
}

// Status returns the producer's phase, resolution and exposure.
func (c *Consumer) Status(ctx context.Context) (control.Status, error) {
	resp, err := c.do(ctx, control.GetStatus{})
	if err != nil {
		return control.Status{}, err
	}
	return resp.StatusValue()
}

func (c *Consumer) do(ctx context.Context, req control.Request) (control.Response, error) {
	resp, err := c.ctl.Do(ctx, req)
	switch {
	case errors.Is(err, rcnats.ErrTimeout), errors.Is(err, rcnats.ErrNoProducer):
		return control.Response{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	case err != nil:
		return control.Response{}, err
	}
	if !resp.Success {
		c.logger.Debug("Control request rejected", "request", req.Kind(), "message", resp.Message)
		return control.Response{}, &RejectedError{Request: req.Kind(), Message: resp.Message}
	}
	return resp, nil
}

// Close releases the subscription and, for a dialled consumer, the connection.
func (c *Consumer) Close() error {
	err := c.frames.Close()
	if c.conn != nil {
		c.conn.Close()
	}
	return err
}
