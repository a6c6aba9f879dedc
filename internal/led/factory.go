package led

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/smazurov/remotecam/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// boardLEDs maps device tree model substrings to their status LED.
var boardLEDs = []struct {
	model string
	led   string
}{
	{"Raspberry Pi", "ACT"},
	{"NanoPC-T6", "usr_led"},
	{"Orange Pi", "green_led"},
}

// New returns a controller for the sysfs LED called name, or for the
// board's status LED when name is empty. Without a usable LED a no-op
// controller is returned.
func New(name string, logger logging.Logger) Controller {
	return newController(sysfsLEDPath, name, detectBoard(deviceTreeModelPath), logger)
}

func newController(root, name, board string, logger logging.Logger) Controller {
	if name == "" {
		for _, b := range boardLEDs {
			if strings.Contains(board, b.model) {
				name = b.led
				break
			}
		}
	}
	if name == "" {
		logger.Info("No indicator LED for this board", "board_model", board)
		return &noop{logger: logger}
	}
	if _, err := os.Stat(filepath.Join(root, name)); err != nil {
		logger.Warn("Indicator LED not found", "led", name, "error", err)
		return &noop{logger: logger}
	}
	logger.Info("Using indicator LED", "led", name, "board_model", board)
	return newSysfs(root, name)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	// The model string is NUL terminated.
	return strings.TrimRight(string(data), "\x00")
}
