// Package control defines the request/reply vocabulary spoken between frame
// consumers and the frame producer.
package control

import (
	"errors"
	"fmt"
	"math"

	"github.com/smazurov/remotecam/internal/frame"
)

// Control errors. Handlers wrap these so callers can test with errors.Is.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownRequest   = errors.New("unknown request")
	ErrMalformedRequest = errors.New("malformed request")
)

// Kind is the wire discriminator of a request.
type Kind string

// Request kinds.
const (
	KindGetExposure   Kind = "get_exposure"
	KindSetExposure   Kind = "set_exposure"
	KindGetResolution Kind = "get_resolution"
	KindSetResolution Kind = "set_resolution"
	KindStartCapture  Kind = "start_capture"
	KindStopCapture   Kind = "stop_capture"
	KindGetStatus     Kind = "get_status"
)

// Request is one of the request types declared in this package.
type Request interface {
	Kind() Kind
	isRequest()
}

// GetExposure reads the current exposure.
type GetExposure struct{}

// SetExposure sets the exposure in milliseconds; 0 selects auto exposure.
type SetExposure struct {
	Exposure float64
}

// GetResolution reads the current capture resolution.
type GetResolution struct{}

// SetResolution changes the capture resolution.
type SetResolution struct {
	Resolution frame.Resolution
}

// StartCapture resumes capturing.
type StartCapture struct{}

// StopCapture pauses capturing.
type StopCapture struct{}

// GetStatus reads phase, resolution and exposure in one round trip.
type GetStatus struct{}

func (GetExposure) Kind() Kind   { return KindGetExposure }
func (SetExposure) Kind() Kind   { return KindSetExposure }
func (GetResolution) Kind() Kind { return KindGetResolution }
func (SetResolution) Kind() Kind { return KindSetResolution }
func (StartCapture) Kind() Kind  { return KindStartCapture }
func (StopCapture) Kind() Kind   { return KindStopCapture }
func (GetStatus) Kind() Kind     { return KindGetStatus }

func (GetExposure) isRequest()   {}
func (SetExposure) isRequest()   {}
func (GetResolution) isRequest() {}
func (SetResolution) isRequest() {}
func (StartCapture) isRequest()  {}
func (StopCapture) isRequest()   {}
func (GetStatus) isRequest()     {}

// Manual exposure bounds in milliseconds. The minimum is one microsecond at
// the source; the maximum keeps the microsecond value within 32 bits.
const (
	MinExposureMS = 0.001
	MaxExposureMS = 1_000_000
)

// ValidateExposure checks an exposure value in milliseconds. 0 selects auto;
// manual values must lie in [MinExposureMS, MaxExposureMS].
func ValidateExposure(ms float64) error {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("%w: exposure must be a finite number", ErrInvalidArgument)
	}
	if ms < 0 {
		return fmt.Errorf("%w: exposure must be >= 0 ms, got %g", ErrInvalidArgument, ms)
	}
	if ms > 0 && ms < MinExposureMS {
		return fmt.Errorf("%w: manual exposure must be >= %g ms, got %g", ErrInvalidArgument, MinExposureMS, ms)
	}
	if ms > MaxExposureMS {
		return fmt.Errorf("%w: exposure must be <= %d ms, got %g", ErrInvalidArgument, MaxExposureMS, ms)
	}
	return nil
}

// ValidateResolution checks that both dimensions are positive and, when
// maxDimension is positive, no larger than it.
func ValidateResolution(res frame.Resolution, maxDimension int) error {
	if !res.Valid() {
		return fmt.Errorf("%w: resolution must have positive width and height, got %s", ErrInvalidArgument, res)
	}
	if maxDimension > 0 && (res.Width > maxDimension || res.Height > maxDimension) {
		return fmt.Errorf("%w: resolution %s exceeds maximum dimension %d", ErrInvalidArgument, res, maxDimension)
	}
	return nil
}
