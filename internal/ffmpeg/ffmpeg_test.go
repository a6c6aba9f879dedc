package ffmpeg

import (
	"slices"
	"strings"
	"testing"

	"github.com/smazurov/remotecam/internal/frame"
)

func TestCaptureArgs(t *testing.T) {
	args := CaptureArgs(CaptureParams{
		DevicePath:  "/dev/video0",
		Resolution:  frame.Resolution{Width: 640, Height: 480},
		InputFormat: "mjpeg",
		FPS:         15,
	})
	cmd := strings.Join(args, " ")

	for _, want := range []string{
		"-f v4l2",
		"-input_format mjpeg",
		"-framerate 15",
		"-video_size 640x480",
		"-i /dev/video0",
		"-vf scale=640:480",
		"-f rawvideo -pix_fmt rgb24 -",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}

	// Input options must precede the input.
	if slices.Index(args, "-input_format") > slices.Index(args, "-i") {
		t.Error("-input_format must come before -i")
	}
	if args[len(args)-1] != "-" {
		t.Error("output must be stdout")
	}
}

func TestCaptureArgsDefaults(t *testing.T) {
	cmd := strings.Join(CaptureArgs(CaptureParams{
		DevicePath: "/dev/video2",
		Resolution: frame.Resolution{Width: 1280, Height: 720},
	}), " ")

	if strings.Contains(cmd, "-input_format") || strings.Contains(cmd, "-framerate") {
		t.Errorf("unexpected optional flags in %q", cmd)
	}
}

func TestFrameSize(t *testing.T) {
	if got := FrameSize(frame.Resolution{Width: 640, Height: 480}); got != 640*480*3 {
		t.Errorf("FrameSize = %d", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLevel string
		wantMsg   string
	}{
		{"simple warning", "[warning] deprecated option", "warning", "deprecated option"},
		{"simple error", "[error] Device or resource busy", "error", "Device or resource busy"},
		{
			"component prefix with warning",
			"[video4linux2,v4l2 @ 0x55d] [warning] The driver changed the time per frame",
			"warning",
			"[video4linux2,v4l2 @ 0x55d] The driver changed the time per frame",
		},
		{"component prefix without level", "[v4l2 @ 0x55d] frame=100", "info", "[v4l2 @ 0x55d] frame=100"},
		{"no prefix", "frame=100 fps=30", "info", "frame=100 fps=30"},
		{"unclosed bracket", "[warning deprecated", "info", "[warning deprecated"},
		{"empty", "", "info", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, msg := ParseLogLevel(tt.input)
			if level != tt.wantLevel || msg != tt.wantMsg {
				t.Errorf("ParseLogLevel(%q) = (%q, %q), want (%q, %q)", tt.input, level, msg, tt.wantLevel, tt.wantMsg)
			}
		})
	}
}
