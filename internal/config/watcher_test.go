package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newCameraWatcher(t *testing.T, path string, opts ...WatcherOption[CameraSettings]) *Watcher[CameraSettings] {
	t.Helper()
	opts = append([]WatcherOption[CameraSettings]{WithDebounce[CameraSettings](50 * time.Millisecond)}, opts...)
	return NewWatcher(path, LoadCameraSettings, newTestLogger(), opts...)
}

func run(t *testing.T, w *Watcher[CameraSettings]) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	// Let the watch loop settle before writing.
	time.Sleep(50 * time.Millisecond)
}

func expectSettings(t *testing.T, ch <-chan CameraSettings) CameraSettings {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
		return CameraSettings{}
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\nexposure_ms = 1\n")

	received := make(chan CameraSettings, 4)
	w := newCameraWatcher(t, path)
	w.OnReload(func(s CameraSettings) { received <- s })
	run(t, w)

	if err := os.WriteFile(path, []byte("[camera]\nexposure_ms = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := expectSettings(t, received)
	if s.ExposureMS == nil || *s.ExposureMS != 42 {
		t.Errorf("got %+v, want exposure 42", s)
	}
}

func TestWatcherReloadsOnReplace(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\nresolution = \"640x480\"\n")

	received := make(chan CameraSettings, 4)
	w := newCameraWatcher(t, path)
	w.OnReload(func(s CameraSettings) { received <- s })
	run(t, w)

	tmp := filepath.Join(filepath.Dir(path), ".camera.toml.swp")
	if err := os.WriteFile(tmp, []byte("[camera]\nresolution = \"small-16:9\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if s := expectSettings(t, received); s.Resolution != "small-16:9" {
		t.Errorf("resolution = %q", s.Resolution)
	}
}

func TestWatcherFileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.toml")

	received := make(chan CameraSettings, 4)
	w := newCameraWatcher(t, path)
	w.OnReload(func(s CameraSettings) { received <- s })
	run(t, w)

	if err := os.WriteFile(path, []byte("[camera]\nexposure_ms = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if s := expectSettings(t, received); s.ExposureMS == nil || *s.ExposureMS != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\n")

	var reloads atomic.Int32
	w := newCameraWatcher(t, path)
	w.OnReload(func(CameraSettings) { reloads.Add(1) })
	run(t, w)

	sibling := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(sibling, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("reloaded %d times for an unrelated file", n)
	}
}

func TestWatcherMultipleHandlersShareSnapshot(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\n")

	a := make(chan CameraSettings, 1)
	b := make(chan CameraSettings, 1)
	w := newCameraWatcher(t, path)
	w.OnReload(func(s CameraSettings) { a <- s })
	w.OnReload(func(s CameraSettings) { b <- s })
	run(t, w)

	if err := os.WriteFile(path, []byte("[camera]\nresolution = \"320x240\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if sa, sb := expectSettings(t, a), expectSettings(t, b); sa.Resolution != sb.Resolution {
		t.Errorf("handlers saw %q and %q", sa.Resolution, sb.Resolution)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\n")

	var removed atomic.Int32
	kept := make(chan CameraSettings, 1)
	w := newCameraWatcher(t, path)
	unsub := w.OnReload(func(CameraSettings) { removed.Add(1) })
	w.OnReload(func(s CameraSettings) { kept <- s })
	unsub()
	run(t, w)

	if err := os.WriteFile(path, []byte("[camera]\nexposure_ms = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectSettings(t, kept)
	if removed.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
}

func TestWatcherErrorHandler(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\n")

	errs := make(chan error, 1)
	var reloads atomic.Int32
	w := newCameraWatcher(t, path, WithErrorHandler[CameraSettings](func(err error) { errs <- err }))
	w.OnReload(func(CameraSettings) { reloads.Add(1) })
	run(t, w)

	if err := os.WriteFile(path, []byte("[camera\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}
	if reloads.Load() != 0 {
		t.Error("handlers called with invalid settings")
	}
}

func TestWatcherDebounce(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\n")

	var reloads atomic.Int32
	last := make(chan CameraSettings, 8)
	w := newCameraWatcher(t, path, WithDebounce[CameraSettings](200*time.Millisecond))
	w.OnReload(func(s CameraSettings) {
		reloads.Add(1)
		last <- s
	})
	run(t, w)

	for i := 1; i <= 5; i++ {
		content := []byte(fmt.Sprintf("[camera]\nexposure_ms = %d\n", i))
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	s := expectSettings(t, last)
	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("reloaded %d times, want 1", n)
	}
	if s.ExposureMS == nil || *s.ExposureMS != 5 {
		t.Errorf("got %+v, want final exposure 5", s)
	}
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent", "camera.toml"), LoadCameraSettings, newTestLogger())
	if err := w.Start(); err == nil {
		_ = w.Stop()
		t.Fatal("Start succeeded for a missing directory")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}

func TestWatcherLoaderError(t *testing.T) {
	sentinel := errors.New("boom")
	path := writeFile(t, "camera.toml", "")

	errs := make(chan error, 1)
	w := NewWatcher(path, func(string) (int, error) { return 0, sentinel }, newTestLogger(),
		WithDebounce[int](20*time.Millisecond),
		WithErrorHandler[int](func(err error) { errs <- err }))
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errs:
		if !errors.Is(err, sentinel) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error handler not called")
	}
}
