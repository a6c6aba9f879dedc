//go:build linux

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/smazurov/remotecam/internal/ffmpeg"
	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/process"
	"github.com/smazurov/remotecam/pkg/linuxav/v4l2"
)

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Hardware reads raw RGB frames from a V4L2 device through ffmpeg and
// applies exposure with V4L2 controls.
type Hardware struct {
	device v4l2.DeviceInfo
	cfg    Config
	logger logging.Logger

	mu     sync.Mutex
	proc   *process.Process
	stdout io.Reader
	res    frame.Resolution
	broken bool // stream must be restarted before the next read
	closed bool
}

// ListDevices returns the V4L2 capture devices present.
func ListDevices() ([]Device, error) {
	found, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, Device{Path: d.DevicePath, Name: d.DeviceName, Driver: d.Driver, Bus: d.BusInfo})
	}
	return devices, nil
}

func newHardware(cfg Config, logger logging.Logger) (Source, error) {
	path := cfg.Device
	if path == "" {
		devices, err := v4l2.FindDevices()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("%w: no V4L2 capture device found", ErrHardwareUnavailable)
		}
		path = devices[0].DevicePath
	}

	info, err := v4l2.QueryDevice(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	if !info.IsCapture() {
		return nil, fmt.Errorf("%w: %s is not a capture device", ErrHardwareUnavailable, path)
	}
	if _, err := exec.LookPath(ffmpeg.Binary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}

	logger.Info("Found camera", "device", info.DevicePath, "name", info.DeviceName, "driver", info.Driver)
	return &Hardware{device: info, cfg: cfg, logger: logger}, nil
}

// Name implements Source.
func (h *Hardware) Name() string {
	return h.device.DevicePath
}

// Configure restarts the ffmpeg reader at res.
func (h *Hardware) Configure(res frame.Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: %s", frame.ErrInvalidResolution, res)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return h.restartLocked(res)
}

func (h *Hardware) restartLocked(res frame.Resolution) error {
	h.stopLocked()

	args := ffmpeg.CaptureArgs(ffmpeg.CaptureParams{
		DevicePath:  h.device.DevicePath,
		Resolution:  res,
		InputFormat: h.cfg.InputFormat,
		FPS:         h.cfg.FPS,
	})
	proc := process.New("capture", ffmpeg.Binary, args, h.logger)
	proc.SetLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel)

	stdout, err := proc.Start()
	if err != nil {
		return fmt.Errorf("start capture at %s: %w", res, err)
	}

	h.proc = proc
	h.stdout = stdout
	h.res = res
	h.broken = false
	h.logger.Info("Capture pipeline started", "device", h.device.DevicePath, "resolution", res.String())
	return nil
}

func (h *Hardware) stopLocked() {
	if h.proc == nil {
		return
	}
	if code, err := h.proc.Stop(); err != nil {
		h.logger.Warn("Capture pipeline did not stop cleanly", "exit_code", code, "error", err)
	}
	h.proc = nil
	h.stdout = nil
}

// Capture reads exactly one frame from the pipeline. A pipeline that died
// or was interrupted mid-frame is restarted on the next call.
func (h *Hardware) Capture(ctx context.Context) (*frame.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if !h.res.Valid() {
		return nil, ErrNotConfigured
	}
	if h.broken || h.proc == nil {
		if err := h.restartLocked(h.res); err != nil {
			h.broken = true
			return nil, err
		}
	}

	f := frame.New(h.res)
	if err := h.readFull(ctx, f.Data); err != nil {
		h.broken = true
		return nil, fmt.Errorf("read frame: %w", err)
	}
	f.Timestamp = time.Now()
	return f, nil
}

func (h *Hardware) readFull(ctx context.Context, buf []byte) error {
	d, ok := h.stdout.(deadliner)
	if ok {
		_ = d.SetReadDeadline(time.Time{})
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				_ = d.SetReadDeadline(time.Now())
			case <-done:
			}
		}()
	}

	_, err := io.ReadFull(h.stdout, buf)
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

// SetShutterSpeed applies the exposure through V4L2 controls.
func (h *Hardware) SetShutterSpeed(us int) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := v4l2.SetExposure(h.device.DevicePath, us); err != nil {
		return fmt.Errorf("set exposure on %s: %w", h.device.DevicePath, err)
	}
	return nil
}

// Close stops the pipeline.
func (h *Hardware) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	h.stopLocked()
	return nil
}
