package nats

import (
	"encoding/json"
	"fmt"
)

// SubjectPrefix roots every subject used by remotecam.
const SubjectPrefix = "remotecam"

// HeaderFrameMeta carries the JSON frame metadata; the body is the raw buffer.
const HeaderFrameMeta = "Frame-Meta"

// SubjectFrames returns the broadcast subject for a camera's frames.
func SubjectFrames(camera string) string {
	return fmt.Sprintf("%s.%s.frames", SubjectPrefix, camera)
}

// SubjectControl returns the request/reply subject for a camera's control channel.
func SubjectControl(camera string) string {
	return fmt.Sprintf("%s.%s.control", SubjectPrefix, camera)
}

// SubjectStatus returns the subject producer status changes are forwarded to.
func SubjectStatus(camera string) string {
	return fmt.Sprintf("%s.%s.status", SubjectPrefix, camera)
}

// Status message kinds.
const (
	StatusPhase         = "phase"
	StatusSettings      = "settings"
	StatusCaptureFailed = "capture_failed"
)

// StatusMessage is a producer state change sent over NATS.
type StatusMessage struct {
	Camera     string   `json:"camera"`
	Timestamp  string   `json:"timestamp"`
	Kind       string   `json:"kind"`
	Phase      string   `json:"phase,omitempty"`
	Previous   string   `json:"previous,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Exposure   *float64 `json:"exposure_ms,omitempty"`
	Stage      string   `json:"stage,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Marshal serializes the message to JSON.
func (m StatusMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStatus deserializes a StatusMessage from JSON.
func UnmarshalStatus(data []byte) (StatusMessage, error) {
	var m StatusMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
