package nats

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/frame"
)

// FramePublisher broadcasts frames on a camera's frame subject. Delivery is
// best effort: there is no acknowledgement and no history for late joiners.
type FramePublisher struct {
	conn    *nats.Conn
	subject string
}

// NewFramePublisher creates a publisher for camera's frames.
func NewFramePublisher(conn *nats.Conn, camera string) *FramePublisher {
	return &FramePublisher{conn: conn, subject: SubjectFrames(camera)}
}

// Publish sends f to every current subscriber. The frame must not be
// modified afterwards.
func (p *FramePublisher) Publish(f *frame.Frame) error {
	meta, payload, err := frame.Encode(f)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(HeaderFrameMeta, string(meta))
	msg.Data = payload
	return p.conn.PublishMsg(msg)
}
