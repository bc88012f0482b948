// Package systemd reports service state and watchdog liveness to systemd.
package systemd

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/bnema/flashota/internal/logging"
)

// Notifier wraps sd_notify. Outside systemd every call is a no-op.
type Notifier struct {
	ctx      context.Context
	interval time.Duration
	notify   func(state string) (bool, error)
	now      func() time.Time

	mu       sync.Mutex
	lastKick time.Time
}

// NewNotifier creates a notifier. Watchdog kicks are sent at most every half
// of the service's WatchdogSec; without a watchdog Kick does nothing.
func NewNotifier(ctx context.Context) *Notifier {
	n := &Notifier{
		ctx:    ctx,
		notify: func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		now:    time.Now,
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("invalid systemd watchdog settings")
	}
	n.interval = interval / 2
	return n
}

// WatchdogInterval returns the kick interval, 0 when the watchdog is disabled.
func (n *Notifier) WatchdogInterval() time.Duration {
	return n.interval
}

// Kick implements port.Watchdog.
func (n *Notifier) Kick() {
	if n.interval <= 0 {
		return
	}

	n.mu.Lock()
	now := n.now()
	if !n.lastKick.IsZero() && now.Sub(n.lastKick) < n.interval {
		n.mu.Unlock()
		return
	}
	n.lastKick = now
	n.mu.Unlock()

	n.send(daemon.SdNotifyWatchdog)
}

// Ready tells systemd that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Reloading tells systemd that configuration is being reloaded.
func (n *Notifier) Reloading() {
	n.send(daemon.SdNotifyReloading)
}

// Stopping tells systemd that shutdown started.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status publishes a free-form status line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	log := logging.FromContext(n.ctx)
	if err != nil {
		log.Warn().Err(err).Str("state", state).Msg("failed to notify systemd")
		return
	}
	if sent {
		log.Trace().Str("state", state).Msg("notified systemd")
	}
}
