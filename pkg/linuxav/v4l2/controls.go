//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

// ErrControlUnsupported is returned when a device lacks a control.
var ErrControlUnsupported = errors.New("control not supported")

// GetControl reads the current value of a control.
func GetControl(devicePath string, id ControlID) (int32, error) {
	ctrl := v4l2Control{id: uint32(id)}
	err := withDevice(devicePath, func(fd int) error {
		return ioctl(fd, vidiocGCtrl, unsafe.Pointer(&ctrl))
	})
	if err != nil {
		return 0, controlError("get", id, err)
	}
	return ctrl.value, nil
}

// SetControl writes a control value.
func SetControl(devicePath string, id ControlID, value int32) error {
	return withDevice(devicePath, func(fd int) error {
		return setControl(fd, id, value)
	})
}

// QueryControl returns the range of an integer control.
func QueryControl(devicePath string, id ControlID) (ControlRange, error) {
	var r ControlRange
	err := withDevice(devicePath, func(fd int) error {
		var qerr error
		r, qerr = queryControl(fd, id)
		return qerr
	})
	return r, err
}

// SetExposure applies an exposure time in microseconds. Zero selects
// automatic exposure. Manual values are converted to the 100µs units of
// exposure_absolute and clamped to the device range.
func SetExposure(devicePath string, us int) error {
	if us < 0 {
		return fmt.Errorf("negative exposure %dµs", us)
	}

	return withDevice(devicePath, func(fd int) error {
		if us == 0 {
			// Most UVC cameras only offer aperture priority as their auto mode.
			err := setControl(fd, CIDExposureAuto, int32(ExposureAuto))
			if err == nil {
				return nil
			}
			return setControl(fd, CIDExposureAuto, int32(ExposureAperturePriority))
		}

		if err := setControl(fd, CIDExposureAuto, int32(ExposureManual)); err != nil {
			return err
		}

		value := ExposureUnits(us)
		if r, err := queryControl(fd, CIDExposureAbsolute); err == nil {
			value = r.Clamp(value)
		}
		return setControl(fd, CIDExposureAbsolute, value)
	})
}

// ExposureUnits converts microseconds to exposure_absolute units (100µs),
// rounding to the nearest unit with a minimum of one.
func ExposureUnits(us int) int32 {
	units := us / 100
	if us%100 >= 50 {
		units++
	}
	if units < 1 {
		return 1
	}
	if units > int(^uint32(0)>>1) {
		return int32(^uint32(0) >> 1)
	}
	return int32(units)
}

func setControl(fd int, id ControlID, value int32) error {
	ctrl := v4l2Control{id: uint32(id), value: value}
	if err := ioctl(fd, vidiocSCtrl, unsafe.Pointer(&ctrl)); err != nil {
		return controlError("set", id, err)
	}
	return nil
}

func queryControl(fd int, id ControlID) (ControlRange, error) {
	q := v4l2Queryctrl{id: uint32(id)}
	if err := ioctl(fd, vidiocQueryctrl, unsafe.Pointer(&q)); err != nil {
		return ControlRange{}, controlError("query", id, err)
	}
	if q.flags&v4l2CtrlFlagDisabled != 0 {
		return ControlRange{}, fmt.Errorf("query control 0x%08x: %w", uint32(id), ErrControlUnsupported)
	}
	return ControlRange{
		Name:    cstr(q.name[:]),
		Minimum: q.minimum,
		Maximum: q.maximum,
		Step:    q.step,
		Default: q.defaultValue,
		Flags:   q.flags,
	}, nil
}

func controlError(op string, id ControlID, err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return fmt.Errorf("%s control 0x%08x: %w", op, uint32(id), ErrControlUnsupported)
	}
	return fmt.Errorf("%s control 0x%08x: %w", op, uint32(id), err)
}
