// Package frame defines the pixel buffers exchanged between the frame
// producer and its consumers, and their two-part wire encoding.
package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channels is the number of interleaved colour channels (RGB) in every frame.
const Channels = 3

// DType names the element type of a pixel buffer.
type DType string

// Supported element types.
const (
	Uint8  DType = "uint8"
	Uint16 DType = "uint16"
)

// Size returns the element size in bytes, or 0 for an unknown type.
func (d DType) Size() int {
	switch d {
	case Uint8:
		return 1
	case Uint16:
		return 2
	default:
		return 0
	}
}

// ErrInvalidResolution is returned when a resolution string cannot be parsed.
var ErrInvalidResolution = errors.New("invalid resolution")

// Resolution is a capture size in pixels.
type Resolution struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses "WIDTHxHEIGHT", e.g. "640x480".
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	res := Resolution{Width: width, Height: height}
	if !res.Valid() {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidResolution, s)
	}
	return res, nil
}

// Shape is (height, width, channels), matching row-major pixel order.
type Shape [3]int

// Elements returns the number of elements described by the shape.
func (s Shape) Elements() int {
	return s[0] * s[1] * s[2]
}

// Frame is a captured RGB image. A published frame must not be modified.
type Frame struct {
	DType     DType
	Shape     Shape
	Data      []byte
	Seq       uint64
	Timestamp time.Time
}

// New allocates a zeroed uint8 RGB frame at the given resolution.
func New(res Resolution) *Frame {
	shape := Shape{res.Height, res.Width, Channels}
	return &Frame{
		DType: Uint8,
		Shape: shape,
		Data:  make([]byte, shape.Elements()),
	}
}

// Resolution returns the frame's width and height.
func (f *Frame) Resolution() Resolution {
	return Resolution{Width: f.Shape[1], Height: f.Shape[0]}
}
