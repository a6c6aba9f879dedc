package nats

import (
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/events"
)

// StatusForwarder publishes producer events from the event bus to a
// camera's status subject.
type StatusForwarder struct {
	conn    *nats.Conn
	bus     *events.Bus
	camera  string
	subject string
	logger  *slog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// NewStatusForwarder creates a forwarder; call Start to begin forwarding.
func NewStatusForwarder(conn *nats.Conn, bus *events.Bus, camera string, logger *slog.Logger) *StatusForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusForwarder{
		conn:    conn,
		bus:     bus,
		camera:  camera,
		subject: SubjectStatus(camera),
		logger:  logger.With("component", "status-forwarder"),
	}
}

// Start subscribes to phase, settings and capture failure events.
func (f *StatusForwarder) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unsubs = append(f.unsubs,
		f.bus.Subscribe(func(e events.PhaseChangedEvent) {
			f.publish(StatusMessage{
				Timestamp:  e.Timestamp,
				Kind:       StatusPhase,
				Phase:      e.To,
				Previous:   e.From,
				Resolution: e.Resolution,
			})
		}),
		f.bus.Subscribe(func(e events.SettingsChangedEvent) {
			exposure := e.Exposure
			f.publish(StatusMessage{
				Timestamp:  e.Timestamp,
				Kind:       StatusSettings,
				Resolution: e.Resolution,
				Exposure:   &exposure,
			})
		}),
		f.bus.Subscribe(func(e events.CaptureFailedEvent) {
			f.publish(StatusMessage{
				Timestamp: e.Timestamp,
				Kind:      StatusCaptureFailed,
				Stage:     e.Stage,
				Error:     e.Error,
			})
		}),
	)
	f.logger.Debug("Forwarding producer status", "subject", f.subject)
}

func (f *StatusForwarder) publish(m StatusMessage) {
	m.Camera = f.camera
	data, err := m.Marshal()
	if err != nil {
		f.logger.Warn("Failed to marshal status", "error", err)
		return
	}
	if err := f.conn.Publish(f.subject, data); err != nil {
		f.logger.Warn("Failed to publish status", "kind", m.Kind, "error", err)
	}
}

// Stop unsubscribes from the event bus.
func (f *StatusForwarder) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, unsub := range f.unsubs {
		unsub()
	}
	f.unsubs = nil
}

// WatchStatus delivers status messages for camera to fn until the returned
// subscription is unsubscribed. Undecodable messages are skipped.
func WatchStatus(conn *nats.Conn, camera string, logger *slog.Logger, fn func(StatusMessage)) (*nats.Subscription, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return conn.Subscribe(SubjectStatus(camera), func(msg *nats.Msg) {
		m, err := UnmarshalStatus(msg.Data)
		if err != nil {
			logger.Warn("Failed to unmarshal status", "error", err, "subject", msg.Subject)
			return
		}
		fn(m)
	})
}
