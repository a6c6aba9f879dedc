package events

// Event type constants for kelindar/event.
const (
	TypePhaseChanged uint32 = iota + 1
	TypeCaptureFailed
	TypeControlServiced
	TypeSettingsChanged
	TypeLogEntry
	TypeProducerMetrics
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PhaseChangedEvent is published when the capture loop changes phase.
type PhaseChangedEvent struct {
	From       string `json:"from" example:"stopped" doc:"Previous phase"`
	To         string `json:"to" example:"running" doc:"New phase"`
	Resolution string `json:"resolution" example:"640x480" doc:"Capture resolution"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PhaseChangedEvent.
func (e PhaseChangedEvent) Type() uint32 { return TypePhaseChanged }

// CaptureFailedEvent is published when the source fails to configure or
// deliver a frame.
type CaptureFailedEvent struct {
	Stage     string `json:"stage" example:"capture" doc:"Stage that failed: configure or capture"`
	Error     string `json:"error" example:"device busy" doc:"Error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CaptureFailedEvent.
func (e CaptureFailedEvent) Type() uint32 { return TypeCaptureFailed }

// ControlServicedEvent is published after the producer answers a control request.
type ControlServicedEvent struct {
	Request   string `json:"request" example:"set_exposure" doc:"Request kind"`
	Success   bool   `json:"success" doc:"Whether the request succeeded"`
	Message   string `json:"message,omitempty" doc:"Failure message"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ControlServicedEvent.
func (e ControlServicedEvent) Type() uint32 { return TypeControlServiced }

// SettingsChangedEvent is published when exposure or resolution change.
type SettingsChangedEvent struct {
	Exposure   float64 `json:"exposure_ms" example:"20" doc:"Exposure in milliseconds, 0 is auto"`
	Resolution string  `json:"resolution" example:"1280x720" doc:"Requested resolution"`
	Timestamp  string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsChangedEvent.
func (e SettingsChangedEvent) Type() uint32 { return TypeSettingsChanged }

// LogEntryEvent carries a log entry to SSE clients.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"producer" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// ProducerMetricsEvent is a periodic snapshot of producer counters.
type ProducerMetricsEvent struct {
	Phase           string `json:"phase" example:"running" doc:"Current capture phase"`
	FPS             string `json:"fps" example:"15.00" doc:"Frames published per second"`
	FramesPublished uint64 `json:"frames_published" doc:"Frames published since start"`
	CaptureFailures uint64 `json:"capture_failures" doc:"Failed captures since start"`
}

// Type returns the event type identifier for ProducerMetricsEvent.
func (e ProducerMetricsEvent) Type() uint32 { return TypeProducerMetrics }
