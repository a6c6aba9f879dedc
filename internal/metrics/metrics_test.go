package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", w.Code)
	}
	return w.Body.String()
}

func TestProducerMetricsCache(t *testing.T) {
	before := GetProducerMetrics()

	RecordFramePublished()
	RecordFramePublished()
	RecordCaptureFailure("capture")
	SetProducerFPS(12.5)
	SetProducerPhase("running")

	m := GetProducerMetrics()
	if m.FramesPublished != before.FramesPublished+2 {
		t.Errorf("FramesPublished = %d, want %d", m.FramesPublished, before.FramesPublished+2)
	}
	if m.CaptureFailures != before.CaptureFailures+1 {
		t.Errorf("CaptureFailures = %d, want %d", m.CaptureFailures, before.CaptureFailures+1)
	}
	if m.FPS != 12.5 {
		t.Errorf("FPS = %v, want 12.5", m.FPS)
	}
	if m.Phase != "running" {
		t.Errorf("Phase = %q, want running", m.Phase)
	}
}

func TestPhaseGaugeIsExclusive(t *testing.T) {
	SetProducerPhase("resetting")
	body := scrape(t)

	for _, line := range []string{
		`remotecam_producer_phase{phase="resetting"} 1`,
		`remotecam_producer_phase{phase="running"} 0`,
		`remotecam_producer_phase{phase="stopped"} 0`,
	} {
		if !strings.Contains(body, line) {
			t.Errorf("scrape missing %q", line)
		}
	}
}

func TestControlAndSubscriberSeries(t *testing.T) {
	RecordControlRequest("set_exposure", false)
	SetSubscriberDropped("sub-1", 7)
	RecordControlDropped()
	defer DeleteSubscriberMetrics("sub-1")

	body := scrape(t)
	if !strings.Contains(body, `remotecam_control_requests_total{request="set_exposure",result="failure"}`) {
		t.Error("missing control failure series")
	}
	if !strings.Contains(body, `remotecam_broadcast_subscriber_dropped_frames_total{subscriber="sub-1"} 7`) {
		t.Error("missing subscriber dropped series")
	}
	if !strings.Contains(body, "remotecam_control_dropped_requests_total") {
		t.Error("missing dropped control requests counter")
	}
}
