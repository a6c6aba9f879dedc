package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/metrics"
	"github.com/smazurov/remotecam/internal/producer"
)

// DefaultInboxSize bounds the control requests waiting for the producer.
const DefaultInboxSize = 16

// ControlInbox queues control requests for the producer's capture loop.
// Requests arriving while the queue is full are dropped unanswered; their
// clients time out.
type ControlInbox struct {
	sub     *nats.Subscription
	pending chan *nats.Msg
	logger  *slog.Logger
}

// NewControlInbox subscribes to camera's control subject.
func NewControlInbox(conn *nats.Conn, camera string, size int, logger *slog.Logger) (*ControlInbox, error) {
	if size <= 0 {
		size = DefaultInboxSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	in := &ControlInbox{
		pending: make(chan *nats.Msg, size),
		logger:  logger.With("component", "control-inbox"),
	}

	sub, err := conn.Subscribe(SubjectControl(camera), in.enqueue)
	if err != nil {
		return nil, fmt.Errorf("subscribe to control: %w", err)
	}
	in.sub = sub
	return in, nil
}

func (in *ControlInbox) enqueue(msg *nats.Msg) {
	select {
	case in.pending <- msg:
	default:
		metrics.RecordControlDropped()
		in.logger.Warn("Control inbox full, dropping request", "capacity", cap(in.pending))
	}
}

// Poll returns the next pending command without blocking.
func (in *ControlInbox) Poll() (producer.Command, bool) {
	select {
	case msg := <-in.pending:
		return in.command(msg), true
	default:
		return producer.Command{}, false
	}
}

// Wait blocks up to d, or until ctx is done, for the next command.
func (in *ControlInbox) Wait(ctx context.Context, d time.Duration) (producer.Command, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case msg := <-in.pending:
		return in.command(msg), true
	case <-timer.C:
	case <-ctx.Done():
	}
	return producer.Command{}, false
}

// command decodes msg on the capture loop goroutine and binds its reply.
func (in *ControlInbox) command(msg *nats.Msg) producer.Command {
	req, err := control.DecodeRequest(msg.Data)
	return producer.Command{
		Request: req,
		Err:     err,
		Respond: func(resp control.Response) {
			data, err := control.EncodeResponse(resp)
			if err != nil {
				in.logger.Error("Failed to encode control response", "error", err)
				return
			}
			if err := msg.Respond(data); err != nil {
				in.logger.Warn("Failed to send control response", "error", err)
			}
		},
	}
}

// Close stops receiving requests. Queued requests stay unanswered.
func (in *ControlInbox) Close() error {
	return in.sub.Unsubscribe()
}
