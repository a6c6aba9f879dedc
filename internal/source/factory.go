package source

import (
	"errors"
	"fmt"

	"github.com/smazurov/remotecam/internal/logging"
)

// New selects and creates the source described by cfg.
//
// KindHardware fails with ErrHardwareUnavailable when no device is present;
// KindAuto falls back to the simulated source in that case.
func New(cfg Config, logger logging.Logger) (Source, error) {
	switch cfg.Kind {
	case KindSimulated:
		logger.Info("Using simulated camera", "image", cfg.ImagePath)
		return NewSimulated(cfg.ImagePath, cfg.FrameInterval, logger)

	case KindHardware:
		src, err := newHardware(cfg, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using hardware camera", "device", src.Name())
		return src, nil

	case KindAuto, "":
		src, err := newHardware(cfg, logger)
		if err == nil {
			logger.Info("Using hardware camera", "device", src.Name())
			return src, nil
		}
		if !errors.Is(err, ErrHardwareUnavailable) {
			return nil, err
		}
		logger.Warn("Camera hardware unavailable, falling back to simulated camera", "error", err)
		return NewSimulated(cfg.ImagePath, cfg.FrameInterval, logger)

	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
