package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscriberDropped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "remotecam",
		Subsystem: "broadcast",
		Name:      "subscriber_dropped_frames_total",
		Help:      "Frames evicted from a subscriber queue before being read",
	}, []string{"subscriber"})

	malformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remotecam",
		Subsystem: "broadcast",
		Name:      "malformed_frames_total",
		Help:      "Received frames whose metadata and payload disagree",
	})

	controlRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remotecam",
		Subsystem: "control",
		Name:      "requests_total",
		Help:      "Control requests serviced by the producer",
	}, []string{"request", "result"})

	controlDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "remotecam",
		Subsystem: "control",
		Name:      "dropped_requests_total",
		Help:      "Control requests dropped because the producer inbox was full",
	})

	controlRoundTrip = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "remotecam",
		Subsystem: "control",
		Name:      "round_trip_seconds",
		Help:      "Client-observed control round trip time",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"request"})
)

// SetSubscriberDropped sets the eviction count for a subscriber.
func SetSubscriberDropped(subscriber string, dropped uint64) {
	subscriberDropped.WithLabelValues(subscriber).Set(float64(dropped))
}

// DeleteSubscriberMetrics removes the series of a closed subscriber.
func DeleteSubscriberMetrics(subscriber string) {
	subscriberDropped.DeleteLabelValues(subscriber)
}

// RecordMalformedFrame counts one undecodable frame message.
func RecordMalformedFrame() {
	malformedFrames.Inc()
}

// RecordControlRequest counts a serviced control request.
func RecordControlRequest(request string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	controlRequests.WithLabelValues(request, result).Inc()
}

// ObserveControlRoundTrip records the latency of a client request.
func ObserveControlRoundTrip(request string, seconds float64) {
	controlRoundTrip.WithLabelValues(request).Observe(seconds)
}

// RecordControlDropped counts a request dropped by a full inbox.
func RecordControlDropped() {
	controlDropped.Inc()
}
