package led

import "github.com/smazurov/remotecam/internal/logging"

// noop stands in on boards without a usable LED.
type noop struct {
	logger logging.Logger
}

func (n *noop) Name() string { return "none" }

func (n *noop) Set(p Pattern) error {
	n.logger.Debug("LED control not available", "pattern", p)
	return nil
}
