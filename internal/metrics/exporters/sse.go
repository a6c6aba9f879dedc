package exporters

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/remotecam/internal/events"
	"github.com/smazurov/remotecam/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes producer metrics on the event bus.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: time.Second,
	}
}

// Start begins the export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishMetrics()
		}
	}
}

func (s *SSEExporter) publishMetrics() {
	m := metrics.GetProducerMetrics()
	if m.Phase == "" {
		return
	}
	s.eventBus.Publish(events.ProducerMetricsEvent{
		Phase:           m.Phase,
		FPS:             strconv.FormatFloat(m.FPS, 'f', 2, 64),
		FramesPublished: m.FramesPublished,
		CaptureFailures: m.CaptureFailures,
	})
}
