//go:build linux

// Package v4l2 provides pure Go bindings to the parts of the Video4Linux2
// (V4L2) API a still camera needs: capture device discovery, capability
// queries and exposure controls.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm). The ioctl numbers and
// struct layouts used here are identical on all of them.
//
// # Device Discovery
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s (%s)\n", dev.DevicePath, dev.DeviceName, dev.Driver)
//	}
//
// # Exposure
//
// Exposure is set in microseconds; zero selects automatic exposure:
//
//	if err := v4l2.SetExposure("/dev/video0", 20000); err != nil {
//	    // the device has no manual exposure control
//	}
package v4l2
