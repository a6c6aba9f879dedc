package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/remotecam/internal/events"
)

// forward relays events from ch to send until the client goes away.
func forward(ctx context.Context, ch <-chan any, send sse.Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if err := send.Data(ev); err != nil {
				return
			}
		}
	}
}

// registerSSERoutes registers the producer event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Phase changes, settings changes, capture failures and serviced control requests",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"phase-changed":    events.PhaseChangedEvent{},
		"settings-changed": events.SettingsChangedEvent{},
		"capture-failed":   events.CaptureFailedEvent{},
		"control-serviced": events.ControlServicedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.PhaseChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SettingsChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.CaptureFailedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ControlServicedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Current state first, so clients need not poll /status on connect.
		if st, err := s.camera.Status(ctx); err == nil {
			if err := send.Data(events.PhaseChangedEvent{
				From:       string(st.Phase),
				To:         string(st.Phase),
				Resolution: st.Resolution.String(),
				Timestamp:  time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}

		forward(ctx, eventCh, send)
	})
}
