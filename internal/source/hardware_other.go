//go:build !linux

package source

import (
	"fmt"
	"runtime"

	"github.com/smazurov/remotecam/internal/logging"
)

func newHardware(_ Config, _ logging.Logger) (Source, error) {
	return nil, fmt.Errorf("%w: V4L2 is not available on %s", ErrHardwareUnavailable, runtime.GOOS)
}

// ListDevices returns no devices on platforms without V4L2.
func ListDevices() ([]Device, error) {
	return []Device{}, nil
}
