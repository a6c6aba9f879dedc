// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/remotecam/internal/logging"
	"github.com/smazurov/remotecam/internal/source"
)

// Envelope is embedded in every camera response: success with the payload,
// or failure with a message.
type Envelope struct {
	Success bool   `json:"success" doc:"Whether the camera accepted the request"`
	Message string `json:"message,omitempty" doc:"Failure description"`
}

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-01T00:00:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"42" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go runtime version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"OS and architecture"`
}

type VersionResponse struct {
	Body VersionData
}

// Image models
type ImageInput struct {
	Width  int `query:"width" minimum:"0" maximum:"8192" example:"320" doc:"Scale to this width; requires height"`
	Height int `query:"height" minimum:"0" maximum:"8192" example:"240" doc:"Scale to this height; requires width"`
}

type ImageData struct {
	Envelope
	Image  string `json:"image,omitempty" doc:"Base64 encoded JPEG"`
	Width  int    `json:"width,omitempty" example:"640" doc:"Image width in pixels"`
	Height int    `json:"height,omitempty" example:"480" doc:"Image height in pixels"`
	Seq    uint64 `json:"seq,omitempty" doc:"Frame sequence number"`
}

type ImageResponse struct {
	Body ImageData
}

// Exposure models
type ExposureBody struct {
	ExposureMS float64 `json:"exposure_ms" example:"20" doc:"Exposure in milliseconds, 0 for auto"`
}

type ExposureRequest struct {
	Body ExposureBody
}

type ExposureData struct {
	Envelope
	ExposureMS *float64 `json:"exposure_ms,omitempty" example:"20" doc:"Exposure in milliseconds, 0 is auto"`
}

type ExposureResponse struct {
	Body ExposureData
}

// Resolution models
type ResolutionBody struct {
	Width  int    `json:"width,omitempty" example:"640" doc:"Width in pixels"`
	Height int    `json:"height,omitempty" example:"480" doc:"Height in pixels"`
	Preset string `json:"preset,omitempty" example:"small-4:3" doc:"Named resolution, used instead of width and height"`
}

type ResolutionRequest struct {
	Body ResolutionBody
}

type ResolutionData struct {
	Envelope
	Width  int `json:"width,omitempty" example:"640" doc:"Width in pixels"`
	Height int `json:"height,omitempty" example:"480" doc:"Height in pixels"`
}

type ResolutionResponse struct {
	Body ResolutionData
}

type PresetsData struct {
	Presets map[string]string `json:"presets" doc:"Preset names and their WxH sizes"`
}

type PresetsResponse struct {
	Body PresetsData
}

// Capture phase models
type PhaseData struct {
	Envelope
	Phase string `json:"phase,omitempty" example:"running" doc:"Capture phase: stopped, running or resetting"`
}

type PhaseResponse struct {
	Body PhaseData
}

type StatusData struct {
	Envelope
	Phase      string   `json:"phase,omitempty" example:"running" doc:"Capture phase"`
	Width      int      `json:"width,omitempty" example:"640" doc:"Width in pixels"`
	Height     int      `json:"height,omitempty" example:"480" doc:"Height in pixels"`
	ExposureMS *float64 `json:"exposure_ms,omitempty" example:"0" doc:"Exposure in milliseconds, 0 is auto"`
}

type StatusResponse struct {
	Body StatusData
}

// Device models
type DevicesData struct {
	Devices []source.Device `json:"devices" doc:"V4L2 capture devices"`
	Count   int             `json:"count" example:"1" doc:"Number of devices"`
}

type DevicesResponse struct {
	Body DevicesData
}

// Log models
type LogLevelBody struct {
	Module string `json:"module,omitempty" example:"producer" doc:"Module name, empty for the global level"`
	Level  string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
}

type LogLevelRequest struct {
	Body LogLevelBody
}

type LogLevelResponse struct {
	Body LogLevelBody
}

type LogsData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Recent log entries, oldest first"`
}

type LogsResponse struct {
	Body LogsData
}
