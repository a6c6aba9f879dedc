// Package systemd reports service state to the systemd service manager.
package systemd

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/remotecam/internal/logging"
)

// Notifier sends sd_notify messages. Without NOTIFY_SOCKET every call is a no-op.
type Notifier struct {
	logger logging.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNotifier creates a notifier.
func NewNotifier(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) notify(state string) bool {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return false
	}
	return sent
}

// Ready reports that startup finished and starts watchdog pings when the
// unit has WatchdogSec set.
func (n *Notifier) Ready(ctx context.Context) {
	if n.notify(daemon.SdNotifyReady) {
		n.logger.Debug("Notified systemd", "state", "ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ctx, n.cancel = context.WithCancel(ctx)
	n.wg.Add(1)
	go n.watchdog(ctx, interval/2)
}

func (n *Notifier) watchdog(ctx context.Context, every time.Duration) {
	defer n.wg.Done()
	n.logger.Info("Systemd watchdog enabled", "interval", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.notify(daemon.SdNotifyWatchdog)
		}
	}
}

// Stopping reports shutdown and ends watchdog pings.
func (n *Notifier) Stopping() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
	n.notify(daemon.SdNotifyStopping)
}
