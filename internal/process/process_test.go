package process

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProcess(script string) *Process {
	p := New("test", "sh", []string{"-c", script}, testLogger())
	p.gracefulTimeout = 200 * time.Millisecond
	p.killTimeout = 500 * time.Millisecond
	return p
}

func TestStdoutStream(t *testing.T) {
	p := newTestProcess(`printf 'abcdef'`)
	stdout, err := p.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	buf := make([]byte, 3)
	for _, want := range []string{"abc", "def"} {
		if _, err := io.ReadFull(stdout, buf); err != nil {
			t.Fatalf("ReadFull: %v", err)
		}
		if string(buf) != want {
			t.Errorf("read %q, want %q", buf, want)
		}
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}
	code, err := p.Stop()
	if err != nil || code != 0 {
		t.Errorf("Stop() = %d, %v; want 0, nil", code, err)
	}
}

func TestGracefulShutdown(t *testing.T) {
	p := newTestProcess(`trap 'exit 0' INT TERM; while :; do sleep 0.05; done`)
	p.gracefulTimeout = time.Second
	if _, err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	code, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestForceKillOnTimeout(t *testing.T) {
	p := newTestProcess(`trap '' INT; sleep 10`)
	p.gracefulTimeout = 50 * time.Millisecond
	if _, err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	code, err := p.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if code != 137 {
		t.Errorf("exit code = %d, want 137", code)
	}
}

func TestStopWithoutStart(t *testing.T) {
	p := newTestProcess("true")
	if _, err := p.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Stop() error = %v, want ErrNotStarted", err)
	}
}

func TestStartTwice(t *testing.T) {
	p := newTestProcess("sleep 1")
	if _, err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	if _, err := p.Start(); err == nil {
		t.Error("second Start should fail")
	}
}

func TestStartMissingBinary(t *testing.T) {
	p := New("test", "/nonexistent/binary", nil, testLogger())
	if _, err := p.Start(); err == nil {
		t.Error("expected error for missing binary")
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) record(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+":"+msg)
}

func (r *recordingLogger) Debug(msg string, _ ...any) { r.record("debug", msg) }
func (r *recordingLogger) Info(msg string, _ ...any)  { r.record("info", msg) }
func (r *recordingLogger) Warn(msg string, _ ...any)  { r.record("warn", msg) }
func (r *recordingLogger) Error(msg string, _ ...any) { r.record("error", msg) }

func TestStderrUsesParser(t *testing.T) {
	rec := &recordingLogger{}
	p := newTestProcess(`echo 'W: low light' >&2; echo 'plain' >&2`)
	p.SetLogParser(rec, func(line string) (string, string) {
		if msg, ok := strings.CutPrefix(line, "W: "); ok {
			return "warning", msg
		}
		return "info", line
	})

	stdout, err := p.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_, _ = io.Copy(io.Discard, stdout)
	<-p.Done()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []string{"warn:low light", "info:plain"}
	if strings.Join(rec.lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %v, want %v", rec.lines, want)
	}
}
