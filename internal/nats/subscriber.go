package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/frame"
	"github.com/smazurov/remotecam/internal/metrics"
	"github.com/smazurov/remotecam/internal/ringbuf"
)

// DefaultHighWaterMark is the per-subscriber queue size.
const DefaultHighWaterMark = 4

var subscriberSeq atomic.Uint64

// FrameSubscriber receives a camera's frames into a queue of at most
// high-water-mark messages. When the queue is full the oldest message is
// evicted, so the publisher is never held back by this subscriber.
type FrameSubscriber struct {
	id     string
	sub    *nats.Subscription
	ring   *ringbuf.Ring[*nats.Msg]
	logger *slog.Logger
}

// NewFrameSubscriber subscribes to camera's frames. Frames published before
// the call are never seen.
func NewFrameSubscriber(conn *nats.Conn, camera string, hwm int, logger *slog.Logger) (*FrameSubscriber, error) {
	if hwm <= 0 {
		hwm = DefaultHighWaterMark
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &FrameSubscriber{
		id:   fmt.Sprintf("%s-%d", camera, subscriberSeq.Add(1)),
		ring: ringbuf.New[*nats.Msg](hwm),
	}
	s.logger = logger.With("component", "frame-subscriber", "subscriber", s.id)

	sub, err := conn.Subscribe(SubjectFrames(camera), s.enqueue)
	if err != nil {
		return nil, fmt.Errorf("subscribe to frames: %w", err)
	}
	// The ring is the only bound; the client library must not drop first.
	if err := sub.SetPendingLimits(-1, -1); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("set pending limits: %w", err)
	}
	s.sub = sub
	return s, nil
}

func (s *FrameSubscriber) enqueue(msg *nats.Msg) {
	if s.ring.Push(msg) {
		metrics.SetSubscriberDropped(s.id, s.ring.Dropped())
	}
}

// Next blocks until a frame message is queued or ctx is done. ok is false
// when the message could not be decoded.
func (s *FrameSubscriber) Next(ctx context.Context) (f *frame.Frame, ok bool, err error) {
	msg, err := s.ring.Pop(ctx)
	if err != nil {
		return nil, false, err
	}

	f, ok = frame.Decode([]byte(msg.Header.Get(HeaderFrameMeta)), msg.Data)
	if !ok {
		metrics.RecordMalformedFrame()
		s.logger.Debug("Discarded malformed frame", "bytes", len(msg.Data))
	}
	return f, ok, nil
}

// ID names the subscriber in metrics and logs.
func (s *FrameSubscriber) ID() string {
	return s.id
}

// Dropped returns how many frames were evicted unread.
func (s *FrameSubscriber) Dropped() uint64 {
	return s.ring.Dropped()
}

// Close unsubscribes and wakes any pending Next.
func (s *FrameSubscriber) Close() error {
	err := s.sub.Unsubscribe()
	s.ring.Close()
	metrics.DeleteSubscriberMetrics(s.id)
	return err
}
