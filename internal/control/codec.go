package control

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smazurov/remotecam/internal/frame"
)

// wireRequest is the JSON form of every request kind.
type wireRequest struct {
	Request  Kind     `json:"request"`
	Exposure *float64 `json:"exposure,omitempty"`
	Width    *int     `json:"width,omitempty"`
	Height   *int     `json:"height,omitempty"`
}

// EncodeRequest serializes a request to JSON.
func EncodeRequest(req Request) ([]byte, error) {
	w := wireRequest{Request: req.Kind()}
	switch r := req.(type) {
	case SetExposure:
		w.Exposure = &r.Exposure
	case SetResolution:
		w.Width = &r.Resolution.Width
		w.Height = &r.Resolution.Height
	}
	return json.Marshal(w)
}

// DecodeRequest parses a JSON request. Missing fields are reported as
// ErrInvalidArgument, unknown kinds as ErrUnknownRequest and unparsable
// input as ErrMalformedRequest. Field values are not range-checked here.
func DecodeRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	switch w.Request {
	case KindGetExposure:
		return GetExposure{}, nil
	case KindSetExposure:
		if w.Exposure == nil {
			return nil, fmt.Errorf("%w: set_exposure requires an exposure value", ErrInvalidArgument)
		}
		return SetExposure{Exposure: *w.Exposure}, nil
	case KindGetResolution:
		return GetResolution{}, nil
	case KindSetResolution:
		if w.Width == nil || w.Height == nil {
			return nil, fmt.Errorf("%w: set_resolution requires width and height", ErrInvalidArgument)
		}
		return SetResolution{Resolution: frame.Resolution{Width: *w.Width, Height: *w.Height}}, nil
	case KindStartCapture:
		return StartCapture{}, nil
	case KindStopCapture:
		return StopCapture{}, nil
	case KindGetStatus:
		return GetStatus{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing request field", ErrMalformedRequest)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, w.Request)
	}
}

// Response is the reply to exactly one request.
type Response struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Exposure *float64 `json:"exposure,omitempty"`
	Width    *int     `json:"width,omitempty"`
	Height   *int     `json:"height,omitempty"`
	Phase    Phase    `json:"phase,omitempty"`
}

// Failure builds an unsuccessful response carrying err's message.
func Failure(err error) Response {
	return Response{Success: false, Message: err.Error()}
}

// ExposureResponse reports an exposure value.
func ExposureResponse(ms float64) Response {
	return Response{Success: true, Exposure: &ms}
}

// ResolutionResponse reports a resolution.
func ResolutionResponse(res frame.Resolution) Response {
	return Response{Success: true, Width: &res.Width, Height: &res.Height}
}

// PhaseResponse reports the capture phase.
func PhaseResponse(p Phase) Response {
	return Response{Success: true, Phase: p}
}

// StatusResponse reports a full status snapshot.
func StatusResponse(s Status) Response {
	resp := ResolutionResponse(s.Resolution)
	resp.Exposure = &s.Exposure
	resp.Phase = s.Phase
	return resp
}

// ErrIncompleteResponse is returned when a successful response lacks the
// payload its request kind promises.
var ErrIncompleteResponse = errors.New("incomplete response")

// ExposureValue returns the exposure payload.
func (r Response) ExposureValue() (float64, error) {
	if r.Exposure == nil {
		return 0, fmt.Errorf("%w: missing exposure", ErrIncompleteResponse)
	}
	return *r.Exposure, nil
}

// ResolutionValue returns the resolution payload.
func (r Response) ResolutionValue() (frame.Resolution, error) {
	if r.Width == nil || r.Height == nil {
		return frame.Resolution{}, fmt.Errorf("%w: missing width or height", ErrIncompleteResponse)
	}
	return frame.Resolution{Width: *r.Width, Height: *r.Height}, nil
}

// StatusValue returns the status payload.
func (r Response) StatusValue() (Status, error) {
	res, err := r.ResolutionValue()
	if err != nil {
		return Status{}, err
	}
	exposure, err := r.ExposureValue()
	if err != nil {
		return Status{}, err
	}
	if r.Phase == "" {
		return Status{}, fmt.Errorf("%w: missing phase", ErrIncompleteResponse)
	}
	return Status{Phase: r.Phase, Resolution: res, Exposure: exposure}, nil
}

// EncodeResponse serializes a response to JSON.
func EncodeResponse(r Response) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse parses a JSON response.
func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return Response{}, fmt.Errorf("malformed response: %w", err)
	}
	return r, nil
}
