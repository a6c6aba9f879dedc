package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/smazurov/remotecam/internal/control"
	"github.com/smazurov/remotecam/internal/frame"
	rcnats "github.com/smazurov/remotecam/internal/nats"
	"github.com/smazurov/remotecam/internal/producer"
	"github.com/smazurov/remotecam/internal/ringbuf"
	"github.com/smazurov/remotecam/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubFrames struct {
	frame *frame.Frame
	ok    bool
	err   error
}

func (s stubFrames) Next(ctx context.Context) (*frame.Frame, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if s.frame == nil && s.ok {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	return s.frame, s.ok, nil
}

func (stubFrames) Close() error { return nil }

type stubRequester struct {
	resp control.Response
	err  error
	got  []control.Request
}

func (s *stubRequester) Do(_ context.Context, req control.Request) (control.Response, error) {
	s.got = append(s.got, req)
	return s.resp, s.err
}

func TestCaptureErrors(t *testing.T) {
	tests := []struct {
		name   string
		frames stubFrames
		want   error
	}{
		{"timeout", stubFrames{ok: true}, ErrTimeout},
		{"malformed", stubFrames{frame: nil, ok: false}, ErrMalformedFrame},
		{"closed", stubFrames{err: ringbuf.ErrClosed}, ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.frames, &stubRequester{}, Options{FrameTimeout: 20 * time.Millisecond, Logger: testLogger()})
			_, err := c.Capture(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("Capture = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTimeoutIsNotMalformed(t *testing.T) {
	c := New(stubFrames{ok: true}, &stubRequester{}, Options{FrameTimeout: 10 * time.Millisecond})
	_, err := c.Capture(context.Background())
	if errors.Is(err, ErrMalformedFrame) {
		t.Error("timeout reported as malformed frame")
	}
}

func TestControlErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		resp     control.Response
		err      error
		timeout  bool
		rejected string
	}{
		{"transport timeout", control.Response{}, fmt.Errorf("get_exposure: %w", rcnats.ErrTimeout), true, ""},
		{"no producer", control.Response{}, rcnats.ErrNoProducer, true, ""},
		{"rejected", control.Response{Success: false, Message: "exposure must be >= 0"}, nil, false, "exposure must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(stubFrames{}, &stubRequester{resp: tt.resp, err: tt.err}, Options{Logger: testLogger()})
			_, err := c.SetExposure(context.Background(), -1)

			if got := errors.Is(err, ErrTimeout); got != tt.timeout {
				t.Errorf("errors.Is(ErrTimeout) = %v, want %v (%v)", got, tt.timeout, err)
			}
			var rej *RejectedError
			if tt.rejected != "" {
				if !errors.As(err, &rej) {
					t.Fatalf("error %v is not a RejectedError", err)
				}
				if rej.Message != tt.rejected || rej.Request != control.KindSetExposure {
					t.Errorf("RejectedError = %+v", rej)
				}
			}
		})
	}
}

func TestControlIncompleteReply(t *testing.T) {
	c := New(stubFrames{}, &stubRequester{resp: control.Response{Success: true}}, Options{})
	if _, err := c.GetResolution(context.Background()); !errors.Is(err, control.ErrIncompleteResponse) {
		t.Errorf("GetResolution = %v, want ErrIncompleteResponse", err)
	}
}

func TestControlRequestsSent(t *testing.T) {
	req := &stubRequester{resp: control.PhaseResponse(control.PhaseStopped)}
	c := New(stubFrames{}, req, Options{})

	phase, err := c.StopCapture(context.Background())
	if err != nil || phase != control.PhaseStopped {
		t.Fatalf("StopCapture = %s, %v", phase, err)
	}
	if len(req.got) != 1 || req.got[0].Kind() != control.KindStopCapture {
		t.Errorf("sent %v, want one stop_capture", req.got)
	}
}

// startCamera runs a broker and a producer over a simulated source.
func startCamera(t *testing.T, autostart bool) string {
	t.Helper()

	srv := rcnats.NewServer(rcnats.ServerOptions{Port: server.RANDOM_PORT, Logger: testLogger()})
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Stop)

	conn, err := rcnats.Connect(srv.ClientURL(), "producer", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(conn.Close)

	inbox, err := rcnats.NewControlInbox(conn, "test", 0, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	src, err := source.NewSimulated("", 5*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	p, err := producer.New(producer.Options{
		Source:          src,
		Publisher:       rcnats.NewFramePublisher(conn, "test"),
		Inbox:           inbox,
		Resolution:      frame.Resolution{Width: 64, Height: 48},
		Autostart:       autostart,
		IdleInterval:    100 * time.Millisecond,
		FailureInterval: 10 * time.Millisecond,
		Logger:          testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv.ClientURL()
}

func dial(t *testing.T, url string) *Consumer {
	t.Helper()
	c, err := Dial(url, Options{
		Camera:         "test",
		FrameTimeout:   time.Second,
		ControlTimeout: 2 * time.Second,
		Logger:         testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// captureAt captures until a frame at res arrives, skipping frames queued
// before a resolution change.
func captureAt(t *testing.T, c *Consumer, res frame.Resolution) *frame.Frame {
	t.Helper()
	for i := 0; i < 50; i++ {
		f, err := c.Capture(context.Background())
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		if f.Resolution() == res {
			return f
		}
	}
	t.Fatalf("no frame at %s", res)
	return nil
}

func TestEndToEndCapture(t *testing.T) {
	c := dial(t, startCamera(t, true))

	f := captureAt(t, c, frame.Resolution{Width: 64, Height: 48})
	if f.DType != frame.Uint8 || f.Shape != (frame.Shape{48, 64, 3}) {
		t.Errorf("frame dtype %s shape %v", f.DType, f.Shape)
	}
	if len(f.Data) != 48*64*3 {
		t.Errorf("payload %d bytes", len(f.Data))
	}
}

func TestEndToEndResolutionChange(t *testing.T) {
	c := dial(t, startCamera(t, true))
	ctx := context.Background()
	captureAt(t, c, frame.Resolution{Width: 64, Height: 48})

	want := frame.Resolution{Width: 32, Height: 16}
	got, err := c.SetResolution(ctx, want)
	if err != nil || got != want {
		t.Fatalf("SetResolution = %s, %v", got, err)
	}

	f := captureAt(t, c, want)
	if f.Shape != (frame.Shape{16, 32, 3}) {
		t.Errorf("shape = %v", f.Shape)
	}
}

func TestEndToEndExposure(t *testing.T) {
	c := dial(t, startCamera(t, true))
	ctx := context.Background()

	if ms, err := c.GetExposure(ctx); err != nil || ms != 0 {
		t.Fatalf("initial exposure = %v, %v; want auto", ms, err)
	}
	if ms, err := c.SetExposure(ctx, 20); err != nil || ms != 20 {
		t.Fatalf("SetExposure = %v, %v", ms, err)
	}
	if ms, err := c.GetExposure(ctx); err != nil || ms != 20 {
		t.Errorf("GetExposure = %v, %v; want 20", ms, err)
	}

	_, err := c.SetExposure(ctx, -5)
	var rej *RejectedError
	if !errors.As(err, &rej) {
		t.Fatalf("SetExposure(-5) = %v, want RejectedError", err)
	}
	if ms, _ := c.GetExposure(ctx); ms != 20 {
		t.Errorf("exposure = %v after rejected request, want 20", ms)
	}
}

func TestEndToEndStopStart(t *testing.T) {
	c := dial(t, startCamera(t, true))
	ctx := context.Background()
	captureAt(t, c, frame.Resolution{Width: 64, Height: 48})

	phase, err := c.StopCapture(ctx)
	if err != nil || phase != control.PhaseStopped {
		t.Fatalf("StopCapture = %s, %v", phase, err)
	}

	// Drain frames queued before the stop, then nothing more arrives.
	var timedOut bool
	for i := 0; i < 10 && !timedOut; i++ {
		_, err := c.Capture(ctx)
		timedOut = errors.Is(err, ErrTimeout)
	}
	if !timedOut {
		t.Fatal("frames kept arriving after StopCapture")
	}

	status, err := c.Status(ctx)
	if err != nil || status.Phase != control.PhaseStopped {
		t.Fatalf("Status = %+v, %v", status, err)
	}

	if phase, err := c.StartCapture(ctx); err != nil || phase != control.PhaseRunning {
		t.Fatalf("StartCapture = %s, %v", phase, err)
	}
	captureAt(t, c, frame.Resolution{Width: 64, Height: 48})
}

func TestEndToEndManyClients(t *testing.T) {
	url := startCamera(t, true)
	clients := []*Consumer{dial(t, url), dial(t, url), dial(t, url)}

	errc := make(chan error, len(clients))
	for i, c := range clients {
		go func(i int, c *Consumer) {
			ctx := context.Background()
			if _, err := c.SetExposure(ctx, float64(i+1)); err != nil {
				errc <- err
				return
			}
			_, err := c.Capture(ctx)
			errc <- err
		}(i, c)
	}
	for range clients {
		if err := <-errc; err != nil {
			t.Errorf("client: %v", err)
		}
	}

	ms, err := clients[0].GetExposure(context.Background())
	if err != nil || ms < 1 || ms > 3 {
		t.Errorf("final exposure = %v, %v; want one of the requested values", ms, err)
	}
}

func TestNoProducerTimesOut(t *testing.T) {
	srv := rcnats.NewServer(rcnats.ServerOptions{Port: server.RANDOM_PORT, Logger: testLogger()})
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	defer srv.Stop()

	c := dial(t, srv.ClientURL())
	if _, err := c.GetExposure(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Errorf("GetExposure = %v, want ErrTimeout", err)
	}
}
