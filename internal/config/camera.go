package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/remotecam/internal/frame"
)

// Presets maps resolution names to sizes.
type Presets map[string]frame.Resolution

// PiCameraV2Presets are the sensor modes of the Raspberry Pi camera v2.
var PiCameraV2Presets = Presets{
	"full-4:3":    {Width: 3280, Height: 2464},
	"partial-4:3": {Width: 1640, Height: 1232},
	"small-4:3":   {Width: 640, Height: 480},
	"large-16:9":  {Width: 1920, Height: 1080},
	"medium-16:9": {Width: 1640, Height: 922},
	"small-16:9":  {Width: 1280, Height: 720},
}

// Resolve returns the preset named s, or parses s as WxH.
func (p Presets) Resolve(s string) (frame.Resolution, error) {
	if res, ok := p[strings.ToLower(strings.TrimSpace(s))]; ok {
		return res, nil
	}
	res, err := frame.ParseResolution(s)
	if err != nil {
		return frame.Resolution{}, fmt.Errorf("unknown resolution preset or size %q", s)
	}
	return res, nil
}

// CameraSettings is the [camera] table of the settings file. Unset fields
// are left alone when applied.
type CameraSettings struct {
	ExposureMS *float64 `toml:"exposure_ms"`
	Resolution string   `toml:"resolution"`
}

// LoadCameraSettings reads the [camera] table from a TOML file.
func LoadCameraSettings(path string) (CameraSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CameraSettings{}, err
	}
	var doc struct {
		Camera CameraSettings `toml:"camera"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return CameraSettings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Camera, nil
}

// CameraController is the part of a frame consumer settings are applied through.
type CameraController interface {
	SetExposure(ctx context.Context, ms float64) (float64, error)
	SetResolution(ctx context.Context, res frame.Resolution) (frame.Resolution, error)
}

// ApplyCameraSettings sends each set field as a control request. Every
// field is attempted; the errors are joined.
func ApplyCameraSettings(ctx context.Context, c CameraController, s CameraSettings, presets Presets, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	if s.ExposureMS != nil {
		if ms, err := c.SetExposure(ctx, *s.ExposureMS); err != nil {
			errs = append(errs, fmt.Errorf("exposure: %w", err))
		} else {
			logger.Info("Applied exposure from settings file", "exposure_ms", ms)
		}
	}
	if s.Resolution != "" {
		res, err := presets.Resolve(s.Resolution)
		if err == nil {
			res, err = c.SetResolution(ctx, res)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("resolution: %w", err))
		} else {
			logger.Info("Applied resolution from settings file", "resolution", res.String())
		}
	}
	return errors.Join(errs...)
}

// LoadPresets reads a [presets] table of name = "WxH" entries. Without a
// table the Pi camera v2 presets are returned.
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return PiCameraV2Presets, nil
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		Presets map[string]string `toml:"presets"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Presets) == 0 {
		return PiCameraV2Presets, nil
	}

	presets := make(Presets, len(doc.Presets))
	for name, size := range doc.Presets {
		res, err := frame.ParseResolution(size)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		presets[strings.ToLower(name)] = res
	}
	return presets, nil
}
