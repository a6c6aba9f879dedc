package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/smazurov/remotecam/internal/frame"
)

func TestPresetsResolve(t *testing.T) {
	tests := []struct {
		in      string
		want    frame.Resolution
		wantErr bool
	}{
		{"small-4:3", frame.Resolution{Width: 640, Height: 480}, false},
		{" Large-16:9 ", frame.Resolution{Width: 1920, Height: 1080}, false},
		{"800x600", frame.Resolution{Width: 800, Height: 600}, false},
		{"huge", frame.Resolution{}, true},
		{"0x600", frame.Resolution{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PiCameraV2Presets.Resolve(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoadPresets(t *testing.T) {
	path := writeFile(t, "config.toml", "[presets]\nTiny = \"160x120\"\n")
	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	if presets["tiny"] != (frame.Resolution{Width: 160, Height: 120}) || len(presets) != 1 {
		t.Errorf("presets = %v", presets)
	}

	presets, err = LoadPresets(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil || len(presets) != len(PiCameraV2Presets) {
		t.Errorf("default presets = %v, %v", presets, err)
	}

	if _, err := LoadPresets(writeFile(t, "bad.toml", "[presets]\nx = \"big\"\n")); err == nil {
		t.Error("invalid preset accepted")
	}
}

func TestLoadCameraSettings(t *testing.T) {
	path := writeFile(t, "camera.toml", "[camera]\nexposure_ms = 12.5\nresolution = \"small-16:9\"\n")
	s, err := LoadCameraSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.ExposureMS == nil || *s.ExposureMS != 12.5 || s.Resolution != "small-16:9" {
		t.Errorf("settings = %+v", s)
	}

	s, err = LoadCameraSettings(writeFile(t, "empty.toml", "[camera]\n"))
	if err != nil || s.ExposureMS != nil || s.Resolution != "" {
		t.Errorf("empty settings = %+v, %v", s, err)
	}
}

type recordingController struct {
	exposures   []float64
	resolutions []frame.Resolution
	err         error
}

func (c *recordingController) SetExposure(_ context.Context, ms float64) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.exposures = append(c.exposures, ms)
	return ms, nil
}

func (c *recordingController) SetResolution(_ context.Context, res frame.Resolution) (frame.Resolution, error) {
	if c.err != nil {
		return frame.Resolution{}, c.err
	}
	c.resolutions = append(c.resolutions, res)
	return res, nil
}

func TestApplyCameraSettings(t *testing.T) {
	exposure := 0.0
	c := &recordingController{}
	err := ApplyCameraSettings(context.Background(), c, CameraSettings{
		ExposureMS: &exposure,
		Resolution: "small-4:3",
	}, PiCameraV2Presets, newTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(c.exposures) != 1 || c.exposures[0] != 0 {
		t.Errorf("exposures = %v, auto exposure should be applied", c.exposures)
	}
	if len(c.resolutions) != 1 || c.resolutions[0] != (frame.Resolution{Width: 640, Height: 480}) {
		t.Errorf("resolutions = %v", c.resolutions)
	}
}

func TestApplyCameraSettingsSkipsUnset(t *testing.T) {
	c := &recordingController{}
	if err := ApplyCameraSettings(context.Background(), c, CameraSettings{}, PiCameraV2Presets, nil); err != nil {
		t.Fatal(err)
	}
	if len(c.exposures)+len(c.resolutions) != 0 {
		t.Error("unset settings were applied")
	}
}

func TestApplyCameraSettingsJoinsErrors(t *testing.T) {
	rejected := errors.New("rejected")
	exposure := 5.0
	c := &recordingController{err: rejected}

	err := ApplyCameraSettings(context.Background(), c, CameraSettings{
		ExposureMS: &exposure,
		Resolution: "nonsense",
	}, PiCameraV2Presets, newTestLogger())
	if !errors.Is(err, rejected) {
		t.Errorf("err = %v, want wrapped rejection", err)
	}
	if err == nil || len(c.exposures) != 0 {
		t.Fatal("expected failure")
	}
}
