package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/metrics"
)

// DefaultRequestTimeout bounds a control round trip.
const DefaultRequestTimeout = 5 * time.Second

// Transport errors.
var (
	// ErrTimeout means no reply arrived within the request timeout.
	ErrTimeout = errors.New("control request timed out")
	// ErrNoProducer means nothing is listening on the control subject.
	ErrNoProducer = errors.New("no producer on control channel")
)

// Connect dials the broker with reconnect handling that logs through logger.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats-conn", "name", name)

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			} else {
				logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Warn("NATS async error", "subject", subject, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	logger.Debug("Connected to NATS", "url", url)
	return conn, nil
}

// ControlClient sends control requests to one camera's producer. Calls are
// serialized so at most one request per client is outstanding.
type ControlClient struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewControlClient creates a client for camera's control channel.
func NewControlClient(conn *nats.Conn, camera string, timeout time.Duration, logger *slog.Logger) *ControlClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlClient{
		conn:    conn,
		subject: SubjectControl(camera),
		timeout: timeout,
		logger:  logger.With("component", "control-client"),
	}
}

// Do sends req and waits for its reply. A success=false reply is returned
// as a response, not an error.
func (c *ControlClient) Do(ctx context.Context, req control.Request) (control.Response, error) {
	data, err := control.EncodeRequest(req)
	if err != nil {
		return control.Response{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	msg, err := c.conn.RequestWithContext(ctx, c.subject, data)
	switch {
	case errors.Is(err, nats.ErrNoResponders):
		return control.Response{}, fmt.Errorf("%s: %w", req.Kind(), ErrNoProducer)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return control.Response{}, fmt.Errorf("%s after %s: %w", req.Kind(), c.timeout, ErrTimeout)
	case err != nil:
		return control.Response{}, fmt.Errorf("%s: %w", req.Kind(), err)
	}
	metrics.ObserveControlRoundTrip(string(req.Kind()), time.Since(start).Seconds())

	resp, err := control.DecodeResponse(msg.Data)
	if err != nil {
		return control.Response{}, err
	}
	c.logger.Debug("Control reply", "request", req.Kind(), "success", resp.Success, "message", resp.Message)
	return resp, nil
}
