package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/flashota/internal/domain/entity"
	"github.com/bnema/flashota/internal/infrastructure/config"
	"github.com/bnema/flashota/internal/logging"
)

// Updater is the part of the engine the daemon drives.
type Updater interface {
	CheckForUpdates(ctx context.Context) bool
	StartUpdate(ctx context.Context) bool
	CancelUpdate()
	Status() entity.UpdateStatus
	StatusMessage() string
	LatestRelease() (entity.ReleaseInfo, bool)
	Close()
}

// ServiceNotifier reports daemon state to the service manager.
type ServiceNotifier interface {
	Ready()
	Reloading()
	Stopping()
	Status(msg string)
	Kick()
	WatchdogInterval() time.Duration
}

// UpdaterFactory builds an updater for a configuration.
type UpdaterFactory func(ctx context.Context, cfg *config.Config) (Updater, error)

// Daemon periodically checks for updates and optionally installs them.
type Daemon struct {
	build    UpdaterFactory
	notifier ServiceNotifier
	reloads  chan *config.Config

	mu      sync.Mutex
	cfg     config.DaemonConfig
	updater Updater
	cycles  int
	// installed is the version committed by this process, pending a restart.
	installed string
}

// NewDaemon creates a daemon for cfg.
func NewDaemon(ctx context.Context, cfg *config.Config, build UpdaterFactory, notifier ServiceNotifier) (*Daemon, error) {
	u, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build updater: %w", err)
	}
	return &Daemon{
		build:    build,
		notifier: notifier,
		reloads:  make(chan *config.Config, 1),
		cfg:      cfg.Daemon,
		updater:  u,
	}, nil
}

// Reload schedules cfg to replace the current configuration. It is applied
// between cycles; a newer pending configuration replaces an older one.
func (d *Daemon) Reload(cfg *config.Config) {
	for {
		select {
		case d.reloads <- cfg:
			return
		default:
		}
		select {
		case <-d.reloads:
		default:
		}
	}
}

// Cycles returns how many check cycles have completed.
func (d *Daemon) Cycles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cycles
}

// Run loops until ctx is cancelled, or until an update was committed and
// restart_on_success is set, in which case restart is true.
func (d *Daemon) Run(ctx context.Context) (restart bool, err error) {
	ctx = logging.WithComponent(ctx, "daemon")
	log := logging.FromContext(ctx)

	d.notifier.Ready()
	d.notifier.Status("starting")
	defer func() {
		d.notifier.Stopping()
		d.current().Close()
	}()

	var kick <-chan time.Time
	if interval := d.notifier.WatchdogInterval(); interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		kick = t.C
	}

	interval := d.config().CheckInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := d.startCycle(ctx)
	var pending *config.Config

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				d.current().CancelUpdate()
				<-done
			}
			log.Info().Msg("daemon stopped")
			return false, nil

		case <-kick:
			d.notifier.Kick()

		case <-ticker.C:
			if done == nil {
				done = d.startCycle(ctx)
			}

		case cfg := <-d.reloads:
			pending = cfg
			if done == nil {
				if err := d.apply(ctx, pending, ticker, &interval); err != nil {
					log.Warn().Err(err).Msg("config reload failed, keeping previous configuration")
				}
				pending = nil
			}

		case committed := <-done:
			done = nil
			if committed && d.config().RestartOnSuccess {
				log.Info().Msg("update committed, exiting for restart")
				return true, nil
			}
			if pending != nil {
				if err := d.apply(ctx, pending, ticker, &interval); err != nil {
					log.Warn().Err(err).Msg("config reload failed, keeping previous configuration")
				}
				pending = nil
			}
		}
	}
}

// startCycle runs one check (and install when enabled) in the background.
// The channel receives whether a new image was committed.
func (d *Daemon) startCycle(ctx context.Context) <-chan bool {
	done := make(chan bool, 1)
	u := d.current()
	autoInstall := d.config().AutoInstall

	go func() {
		committed := false
		defer func() {
			if r := recover(); r != nil {
				_ = logging.RecoverPanic(ctx, "update cycle", r, nil)
			}
			d.mu.Lock()
			d.cycles++
			d.mu.Unlock()
			done <- committed
		}()

		log := logging.FromContext(ctx)
		available := u.CheckForUpdates(ctx)
		d.notifier.Status(u.StatusMessage())
		if !available {
			return
		}
		if !autoInstall {
			log.Info().Str("status", u.StatusMessage()).Msg("update available, auto_install disabled")
			return
		}

		release, _ := u.LatestRelease()
		if installed := d.installedVersion(); installed != "" && release.Version == installed {
			log.Info().Str("version", installed).Msg("release already installed, waiting for restart")
			d.notifier.Status("update installed, restart required")
			return
		}

		u.StartUpdate(ctx)
		d.notifier.Status(u.StatusMessage())
		committed = u.Status() == entity.UpdateStatusSuccess
		if committed {
			d.mu.Lock()
			d.installed = release.Version
			d.mu.Unlock()
		}
	}()
	return done
}

func (d *Daemon) apply(ctx context.Context, cfg *config.Config, ticker *time.Ticker, interval *time.Duration) error {
	d.notifier.Reloading()
	defer d.notifier.Ready()

	u, err := d.build(ctx, cfg)
	if err != nil {
		return err
	}

	d.mu.Lock()
	old := d.updater
	d.updater = u
	d.cfg = cfg.Daemon
	d.mu.Unlock()
	old.Close()

	if cfg.Daemon.CheckInterval != *interval {
		*interval = cfg.Daemon.CheckInterval
		ticker.Reset(*interval)
	}
	logging.FromContext(ctx).Info().
		Dur("check_interval", *interval).
		Bool("auto_install", cfg.Daemon.AutoInstall).
		Msg("configuration reloaded")
	return nil
}

func (d *Daemon) installedVersion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.installed
}

func (d *Daemon) current() Updater {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updater
}

func (d *Daemon) config() config.DaemonConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}
