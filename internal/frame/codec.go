package frame

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Meta is the structured first part of a frame message.
type Meta struct {
	DType     DType  `json:"dtype"`
	Shape     []int  `json:"shape"`
	Seq       uint64 `json:"seq,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Encode splits a frame into its metadata record and raw payload.
// The payload shares memory with f.Data.
func Encode(f *Frame) ([]byte, []byte, error) {
	if f.DType.Size() == 0 {
		return nil, nil, fmt.Errorf("unknown element type %q", f.DType)
	}
	if want := f.Shape.Elements() * f.DType.Size(); want != len(f.Data) {
		return nil, nil, fmt.Errorf("payload is %d bytes, shape %v needs %d", len(f.Data), f.Shape, want)
	}

	meta := Meta{
		DType: f.DType,
		Shape: f.Shape[:],
		Seq:   f.Seq,
	}
	if !f.Timestamp.IsZero() {
		meta.Timestamp = f.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, nil, err
	}
	return data, f.Data, nil
}

// Decode rebuilds a frame from its two parts. It reports false when the
// metadata is unreadable or does not describe exactly len(payload) bytes;
// callers treat that the same as no frame being available.
func Decode(meta, payload []byte) (*Frame, bool) {
	var m Meta
	if err := json.Unmarshal(meta, &m); err != nil {
		return nil, false
	}

	size := m.DType.Size()
	if size == 0 || len(m.Shape) != 3 || m.Shape[2] != Channels {
		return nil, false
	}

	// Computed in int64 so a hostile shape cannot overflow into a match.
	want := int64(size)
	for _, dim := range m.Shape {
		if dim <= 0 || dim > math.MaxInt32 {
			return nil, false
		}
		want *= int64(dim)
		if want > math.MaxInt32 {
			return nil, false
		}
	}
	if want != int64(len(payload)) {
		return nil, false
	}

	f := &Frame{
		DType: m.DType,
		Shape: Shape{m.Shape[0], m.Shape[1], m.Shape[2]},
		Data:  payload,
		Seq:   m.Seq,
	}
	if m.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
			f.Timestamp = ts
		}
	}
	return f, true
}
