package control

import "github.com/smazurov/remotecam/internal/frame"

// Phase is the capture loop phase reported by the producer.
type Phase string

// Capture phases.
const (
	PhaseStopped   Phase = "stopped"   // Not capturing
	PhaseRunning   Phase = "running"   // Capturing and publishing
	PhaseResetting Phase = "resetting" // Reallocating buffers before the next capture
)

// Status is a snapshot of the producer's capture state.
type Status struct {
	Phase      Phase            `json:"phase"`
	Resolution frame.Resolution `json:"resolution"`
	Exposure   float64          `json:"exposure"`
}
