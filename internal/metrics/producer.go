// Package metrics provides Prometheus metrics for the frame producer, the
// broadcast subscribers and the control channel.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remotecam",
		Subsystem: "producer",
		Name:      "frames_published_total",
		Help:      "Frames handed to the broadcast channel",
	})

	captureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remotecam",
		Subsystem: "producer",
		Name:      "capture_failures_total",
		Help:      "Failed source operations by stage",
	}, []string{"stage"})

	producerFPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "remotecam",
		Subsystem: "producer",
		Name:      "fps",
		Help:      "Frames published per second over the last window",
	})

	producerPhase = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "remotecam",
		Subsystem: "producer",
		Name:      "phase",
		Help:      "1 for the current capture phase, 0 otherwise",
	}, []string{"phase"})

	captureSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "remotecam",
		Subsystem: "producer",
		Name:      "capture_duration_seconds",
		Help:      "Time spent in a single source capture",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// Local cache for the SSE exporter.
	producerCache   ProducerMetrics
	producerCacheMu sync.RWMutex
)

// ProducerMetrics holds the current producer values.
type ProducerMetrics struct {
	Phase           string
	FPS             float64
	FramesPublished uint64
	CaptureFailures uint64
}

// Phases reported by the phase gauge.
var phases = []string{"stopped", "running", "resetting"}

// RecordFramePublished counts one published frame.
func RecordFramePublished() {
	framesPublished.Inc()
	updateProducer(func(m *ProducerMetrics) { m.FramesPublished++ })
}

// RecordCaptureFailure counts a failed configure or capture.
func RecordCaptureFailure(stage string) {
	captureFailures.WithLabelValues(stage).Inc()
	updateProducer(func(m *ProducerMetrics) { m.CaptureFailures++ })
}

// ObserveCaptureSeconds records the duration of one capture.
func ObserveCaptureSeconds(seconds float64) {
	captureSeconds.Observe(seconds)
}

// SetProducerFPS sets the measured publish rate.
func SetProducerFPS(fps float64) {
	producerFPS.Set(fps)
	updateProducer(func(m *ProducerMetrics) { m.FPS = fps })
}

// SetProducerPhase marks phase as the current one.
func SetProducerPhase(phase string) {
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		producerPhase.WithLabelValues(p).Set(v)
	}
	updateProducer(func(m *ProducerMetrics) { m.Phase = phase })
}

// GetProducerMetrics returns a copy of the current producer values.
func GetProducerMetrics() ProducerMetrics {
	producerCacheMu.RLock()
	defer producerCacheMu.RUnlock()
	return producerCache
}

func updateProducer(update func(*ProducerMetrics)) {
	producerCacheMu.Lock()
	defer producerCacheMu.Unlock()
	update(&producerCache)
}
