//go:build linux

package v4l2

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"unsafe"
)

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		devicePath := "/dev/" + entry.Name()

		info, err := QueryDevice(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to query video device", "path", devicePath, "error", err)
			continue
		}
		if !info.IsCapture() {
			continue
		}
		devices = append(devices, info)
	}

	return devices, nil
}

// QueryDevice opens a device and reads its capabilities.
func QueryDevice(devicePath string) (DeviceInfo, error) {
	var c v4l2Capability
	err := withDevice(devicePath, func(fd int) error {
		return ioctl(fd, vidiocQuerycap, unsafe.Pointer(&c))
	})
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("query capabilities of %s: %w", devicePath, err)
	}

	caps := c.capabilities
	if caps&v4l2CapDeviceCaps != 0 {
		caps = c.deviceCaps
	}

	return DeviceInfo{
		DevicePath: devicePath,
		DeviceName: cstr(c.card[:]),
		Driver:     cstr(c.driver[:]),
		BusInfo:    cstr(c.busInfo[:]),
		Caps:       caps,
	}, nil
}

// IsCapture reports whether the device can capture video.
func (d DeviceInfo) IsCapture() bool {
	return d.Caps&v4l2CapVideoCapture != 0
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
