// Package producer owns the camera and runs the capture loop: it captures
// frames, publishes them, and services control requests one at a time
// between captures.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/metrics"
	"github.com/smazurov/remotecam/internal/source"
)

// Defaults for Options.
const (
	DefaultIdleInterval    = time.Second
	DefaultFailureInterval = 100 * time.Millisecond
)

// Publisher hands a frame to every current subscriber without blocking on them.
type Publisher interface {
	Publish(f *frame.Frame) error
}

// Inbox yields pending control commands.
type Inbox interface {
	// Poll returns the next pending command without blocking.
	Poll() (Command, bool)
	// Wait blocks up to d for a command.
	Wait(ctx context.Context, d time.Duration) (Command, bool)
}

// Command is a received control request and the means to answer it.
// Err is set instead of Request when the message could not be decoded.
type Command struct {
	Request control.Request
	Err     error
	Respond func(control.Response)
}

// EventPublisher receives producer events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Options configures a Producer.
type Options struct {
	Source    source.Source
	Publisher Publisher
	Inbox     Inbox

	Resolution frame.Resolution // initial resolution
	Exposure   float64          // initial exposure in ms, 0 is auto
	Autostart  bool             // start capturing immediately

	IdleInterval    time.Duration // control wait while stopped
	FailureInterval time.Duration // control wait after a failed source call
	MaxDimension    int           // upper bound for width and height, 0 for none

	Events EventPublisher
	Logger logging.Logger
}

// captureState is owned by the capture loop and never shared.
type captureState struct {
	phase      control.Phase
	resolution frame.Resolution
	exposure   float64
}

// Producer is the single owner of a frame source.
type Producer struct {
	src     source.Source
	pub     Publisher
	inbox   Inbox
	events  EventPublisher
	logger  logging.Logger
	idle    time.Duration
	backoff time.Duration
	maxDim  int

	state     captureState
	allocated frame.Resolution // resolution the source is configured for
	seq       uint64
	rate      rateMeter
}

// New validates opts and creates a producer. The producer takes ownership
// of the source and closes it when Run returns.
func New(opts Options) (*Producer, error) {
	if opts.Source == nil || opts.Publisher == nil || opts.Inbox == nil {
		return nil, errors.New("producer requires a source, a publisher and an inbox")
	}
	if err := control.ValidateResolution(opts.Resolution, opts.MaxDimension); err != nil {
		return nil, fmt.Errorf("initial resolution: %w", err)
	}
	if err := control.ValidateExposure(opts.Exposure); err != nil {
		return nil, fmt.Errorf("initial exposure: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idle := opts.IdleInterval
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	backoff := opts.FailureInterval
	if backoff <= 0 {
		backoff = DefaultFailureInterval
	}

	p := &Producer{
		src:     opts.Source,
		pub:     opts.Publisher,
		inbox:   opts.Inbox,
		events:  opts.Events,
		logger:  logger,
		idle:    idle,
		backoff: backoff,
		maxDim:  opts.MaxDimension,
		// The exposure reaches the source in Run, on the loop goroutine.
		state: captureState{
			phase:      control.PhaseStopped,
			resolution: opts.Resolution,
			exposure:   opts.Exposure,
		},
	}

	if opts.Autostart {
		p.start()
	}
	return p, nil
}

// Run drives the capture loop until ctx is cancelled, then closes the source.
func (p *Producer) Run(ctx context.Context) error {
	defer func() {
		if err := p.src.Close(); err != nil {
			p.logger.Warn("Failed to close source", "source", p.src.Name(), "error", err)
		}
		p.logger.Info("Producer stopped", "frames", p.seq)
	}()

	p.applyInitialExposure()
	metrics.SetProducerPhase(string(p.state.phase))
	p.logger.Info("Producer started",
		"source", p.src.Name(),
		"phase", p.state.phase,
		"resolution", p.state.resolution.String(),
		"exposure_ms", p.state.exposure)

	for ctx.Err() == nil {
		p.iterate(ctx)
	}
	return nil
}

// iterate runs one loop iteration. Phase changes requested by a serviced
// command take effect at the start of the next iteration.
func (p *Producer) iterate(ctx context.Context) {
	switch p.state.phase {
	case control.PhaseStopped:
		p.serviceWithin(ctx, p.idle)
		return

	case control.PhaseResetting:
		if err := p.src.Configure(p.state.resolution); err != nil {
			p.captureFailed("configure", err)
			p.serviceWithin(ctx, p.backoff)
			return
		}
		p.allocated = p.state.resolution
		p.setPhase(control.PhaseRunning)
	}

	start := time.Now()
	f, err := p.src.Capture(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return
	case err != nil:
		p.captureFailed("capture", err)
		p.serviceWithin(ctx, p.backoff)
		return
	}
	metrics.ObserveCaptureSeconds(time.Since(start).Seconds())

	p.seq++
	f.Seq = p.seq
	if err := p.pub.Publish(f); err != nil {
		p.logger.Warn("Failed to publish frame", "seq", f.Seq, "error", err)
	} else {
		metrics.RecordFramePublished()
		if fps, ok := p.rate.tick(time.Now()); ok {
			metrics.SetProducerFPS(fps)
		}
	}

	if cmd, ok := p.inbox.Poll(); ok {
		p.handle(cmd)
	}
}

// serviceWithin waits up to d for one command and services it.
func (p *Producer) serviceWithin(ctx context.Context, d time.Duration) {
	if cmd, ok := p.inbox.Wait(ctx, d); ok {
		p.handle(cmd)
	}
}

func (p *Producer) applyInitialExposure() {
	if err := p.src.SetShutterSpeed(shutterSpeed(p.state.exposure)); err != nil {
		p.logger.Warn("Failed to apply initial exposure, using auto", "exposure_ms", p.state.exposure, "error", err)
		p.state.exposure = 0
	}
}

func (p *Producer) captureFailed(stage string, err error) {
	p.logger.Warn("Capture failed", "stage", stage, "source", p.src.Name(), "error", err)
	metrics.RecordCaptureFailure(stage)
	p.publishEvent(events.CaptureFailedEvent{
		Stage:     stage,
		Error:     err.Error(),
		Timestamp: now(),
	})
}

func (p *Producer) setPhase(phase control.Phase) {
	if p.state.phase == phase {
		return
	}
	from := p.state.phase
	p.state.phase = phase
	p.logger.Info("Phase changed", "from", from, "to", phase, "resolution", p.state.resolution.String())
	metrics.SetProducerPhase(string(phase))
	p.publishEvent(events.PhaseChangedEvent{
		From:       string(from),
		To:         string(phase),
		Resolution: p.state.resolution.String(),
		Timestamp:  now(),
	})
}

func (p *Producer) publishEvent(ev events.Event) {
	if p.events != nil {
		p.events.Publish(ev)
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// rateMeter measures published frames per second over one-second windows.
type rateMeter struct {
	windowStart time.Time
	count       int
}

func (r *rateMeter) tick(t time.Time) (float64, bool) {
	if r.windowStart.IsZero() {
		r.windowStart = t
	}
	r.count++
	elapsed := t.Sub(r.windowStart)
	if elapsed < time.Second {
		return 0, false
	}
	fps := float64(r.count) / elapsed.Seconds()
	r.windowStart = t
	r.count = 0
	return fps, true
}
