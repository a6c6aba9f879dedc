package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/smazurov/remotecam/internal/ringbuf"
)

// LogEntry is a single log line kept in the history buffer.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// LogCallback is called when a new log entry is written.
type LogCallback func(entry LogEntry)

// historyHandler records entries into a bounded ring, evicting the oldest.
type historyHandler struct {
	ring   *ringbuf.Ring[LogEntry]
	level  slog.Leveler
	module string
	attrs  map[string]any // already flattened with their group prefix
	groups []string
}

func newHistoryHandler(ring *ringbuf.Ring[LogEntry], level slog.Leveler) *historyHandler {
	return &historyHandler{ring: ring, level: level, module: "app"}
}

func (h *historyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *historyHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelToString(r.Level),
		Module:    h.module,
		Message:   r.Message,
	}

	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		entry.Attributes = make(map[string]any, len(h.attrs)+r.NumAttrs())
		for k, v := range h.attrs {
			entry.Attributes[k] = v
		}
		r.Attrs(func(a slog.Attr) bool {
			flattenAttr(entry.Attributes, h.groups, a)
			return true
		})
	}

	h.ring.Push(entry)
	if cb := currentCallback(); cb != nil {
		cb(entry)
	}
	return nil
}

func (h *historyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make(map[string]any, len(h.attrs)+len(attrs))
	for k, v := range h.attrs {
		next.attrs[k] = v
	}
	for _, a := range attrs {
		if a.Key == "module" && len(h.groups) == 0 {
			next.module = a.Value.String()
			continue
		}
		flattenAttr(next.attrs, h.groups, a)
	}
	return &next
}

func (h *historyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// flattenAttr stores an attribute under a dot-separated key.
func flattenAttr(attrs map[string]any, groups []string, a slog.Attr) {
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		nested := append(append([]string(nil), groups...), a.Key)
		for _, ga := range a.Value.Group() {
			flattenAttr(attrs, nested, ga)
		}
	case slog.KindTime:
		attrs[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		attrs[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			attrs[key] = err.Error()
		} else {
			attrs[key] = a.Value.Any()
		}
	default:
		attrs[key] = a.Value.Any()
	}
}

func levelToString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
