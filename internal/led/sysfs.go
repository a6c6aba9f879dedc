package led

import (
	"fmt"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives an LED through the Linux sysfs LED class.
type sysfs struct {
	dir string // e.g. /sys/class/leds/ACT
}

func newSysfs(root, name string) *sysfs {
	return &sysfs{dir: filepath.Join(root, name)}
}

func (s *sysfs) Name() string { return filepath.Base(s.dir) }

// Set writes the trigger, then the brightness when the trigger is manual.
func (s *sysfs) Set(p Pattern) error {
	var trigger, brightness string
	switch p {
	case PatternOff:
		trigger, brightness = "none", "0"
	case PatternSolid:
		trigger, brightness = "none", "1"
	case PatternBlink:
		trigger = "heartbeat"
	default:
		return fmt.Errorf("unknown LED pattern %q", p)
	}

	if err := s.write("trigger", trigger); err != nil {
		return err
	}
	if brightness != "" {
		return s.write("brightness", brightness)
	}
	return nil
}

func (s *sysfs) write(attr, value string) error {
	if err := os.WriteFile(filepath.Join(s.dir, attr), []byte(value), 0o644); err != nil {
		return fmt.Errorf("LED %s %s: %w", s.Name(), attr, err)
	}
	return nil
}
