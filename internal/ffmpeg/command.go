// Package ffmpeg builds the ffmpeg invocation that turns a V4L2 device into
// a stream of raw RGB frames, and parses ffmpeg log output.
package ffmpeg

import (
	"strconv"

	"github.com/smazurov/remotecam/internal/frame"
)

// Binary is the ffmpeg executable looked up on PATH.
const Binary = "ffmpeg"

// CaptureParams describes a raw capture from a V4L2 device.
type CaptureParams struct {
	DevicePath  string
	Resolution  frame.Resolution
	InputFormat string // e.g. "mjpeg", "yuyv422"; empty lets the driver choose
	FPS         int    // 0 leaves the device default
}

// CaptureArgs returns ffmpeg arguments that write packed rgb24 frames of
// exactly Resolution to stdout, one after another.
func CaptureArgs(p CaptureParams) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "level+warning",
		"-f", "v4l2",
	}
	if p.InputFormat != "" {
		args = append(args, "-input_format", p.InputFormat)
	}
	if p.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(p.FPS))
	}
	args = append(args,
		"-video_size", p.Resolution.String(),
		"-i", p.DevicePath,
		// Scale guarantees the output size when the device picks a nearby mode.
		"-vf", "scale="+strconv.Itoa(p.Resolution.Width)+":"+strconv.Itoa(p.Resolution.Height),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	return args
}

// FrameSize returns the byte length of one rgb24 frame at res.
func FrameSize(res frame.Resolution) int {
	return res.Width * res.Height * frame.Channels
}
