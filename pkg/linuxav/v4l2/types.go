//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 capture device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	Driver     string
	BusInfo    string
	Caps       uint32
}

// ControlID identifies a V4L2 control.
type ControlID uint32

// Camera class controls.
const (
	CIDExposureAuto     ControlID = 0x009a0901
	CIDExposureAbsolute ControlID = 0x009a0902
)

// ExposureMode is a value of the exposure_auto menu control.
type ExposureMode int32

// Exposure modes.
const (
	ExposureAuto             ExposureMode = 0
	ExposureManual           ExposureMode = 1
	ExposureShutterPriority  ExposureMode = 2
	ExposureAperturePriority ExposureMode = 3
)

// ControlRange describes the value range of an integer control.
type ControlRange struct {
	Name    string
	Minimum int32
	Maximum int32
	Step    int32
	Default int32
	Flags   uint32
}

// Clamp limits v to the control's range.
func (r ControlRange) Clamp(v int32) int32 {
	if v < r.Minimum {
		return r.Minimum
	}
	if r.Maximum > r.Minimum && v > r.Maximum {
		return r.Maximum
	}
	return v
}

// Capability flags.
const (
	v4l2CapVideoCapture = 0x00000001
	v4l2CapDeviceCaps   = 0x80000000
)

// Control flags.
const (
	v4l2CtrlFlagDisabled = 0x0001
)
