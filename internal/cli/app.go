// Package cli wires flashota's components for the command line and daemon.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/flashota/internal/application/engine"
	"github.com/bnema/flashota/internal/application/port"
	"github.com/bnema/flashota/internal/application/usecase"
	"github.com/bnema/flashota/internal/cli/styles"
	"github.com/bnema/flashota/internal/domain/build"
	"github.com/bnema/flashota/internal/infrastructure/config"
	"github.com/bnema/flashota/internal/infrastructure/flash"
	"github.com/bnema/flashota/internal/infrastructure/memory"
	"github.com/bnema/flashota/internal/infrastructure/netcheck"
	"github.com/bnema/flashota/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/flashota/internal/infrastructure/systemd"
	"github.com/bnema/flashota/internal/infrastructure/updater"
	"github.com/bnema/flashota/internal/logging"
)

// Options select the config file and override the logger level.
type Options struct {
	ConfigFile string
	LogLevel   string
}

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	ConfigMgr *config.Manager
	Theme     *styles.Theme
	BuildInfo build.Info
	Journal   port.SessionJournal
	Notifier  *systemd.Notifier

	ctx       context.Context
	db        *sqlite.LazyDB
	logCloser io.Closer
}

// NewApp loads the configuration and sets up logging and the journal. The
// update engine itself is built on demand with NewEngine.
func NewApp(opts Options, info build.Info) (*App, error) {
	var (
		mgr *config.Manager
		err error
	)
	if opts.ConfigFile != "" {
		mgr, err = config.NewManagerForFile(opts.ConfigFile)
	} else {
		mgr, err = config.NewManager()
	}
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if opts.LogLevel != "" {
		logCfg.Level = logging.ParseLevel(opts.LogLevel)
	}
	logCfg.Format = cfg.Logging.Format
	logCfg.TimeFormat = "15:04:05"
	logCfg.File = logging.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	logger, logCloser := logging.New(logCfg)
	ctx := logging.WithContext(context.Background(), logger)

	db := sqlite.NewLazyDB(cfg.Database.Path)

	return &App{
		Config:    cfg,
		ConfigMgr: mgr,
		Theme:     styles.NewTheme(),
		BuildInfo: info,
		Journal:   sqlite.NewLazyJournal(db),
		Notifier:  systemd.NewNotifier(ctx),
		ctx:       ctx,
		db:        db,
		logCloser: logCloser,
	}, nil
}

// Ctx returns the application context carrying the logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// NewEngine builds an update engine from the current configuration.
func (a *App) NewEngine() (*engine.Engine, error) {
	return BuildEngine(a.ctx, a.Config, Components{
		Versions: a.BuildInfo,
		Journal:  a.Journal,
		Watchdog: a.Notifier,
	})
}

// EngineFactory returns an UpdaterFactory that builds engines sharing the
// app's journal, version source and watchdog.
func (a *App) EngineFactory() UpdaterFactory {
	return func(ctx context.Context, cfg *config.Config) (Updater, error) {
		eng, err := BuildEngine(ctx, cfg, Components{
			Versions: a.BuildInfo,
			Journal:  a.Journal,
			Watchdog: a.Notifier,
		})
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// Components are the collaborators BuildEngine cannot derive from config.
type Components struct {
	Versions port.VersionSource
	Journal  port.SessionJournal
	Watchdog port.Watchdog
}

// BuildEngine assembles the update pipeline described by cfg.
func BuildEngine(ctx context.Context, cfg *config.Config, c Components) (*engine.Engine, error) {
	log := logging.FromContext(ctx)

	probe := netcheck.NewProbe(netcheck.Config{
		Target:   cfg.Network.ProbeTarget,
		Timeout:  cfg.Network.ProbeTimeout,
		CacheTTL: netcheck.DefaultCacheTTL,
	})

	apiClient := updater.NewAPIClient(updater.ClientConfig{
		Timeout:            cfg.Network.APITimeout,
		InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
	})
	downloadClient := updater.NewDownloadClient(updater.ClientConfig{
		Timeout:            cfg.Network.DownloadTimeout,
		InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
	})
	if cfg.Network.InsecureSkipVerify {
		log.Warn().Msg("TLS certificate validation is disabled (network.insecure_skip_verify)")
	}

	pool := memory.NewPoolPolicy(cfg.Memory.SecondaryPoolBuffers)
	pool.Warm()
	reclaimer := memory.NewReclaimer(memory.Config{
		Enabled: cfg.Memory.Reclaim,
		Rounds:  cfg.Memory.Rounds,
	}, probe, pool, apiClient, downloadClient)

	userAgent := updater.UserAgent(build.Product())
	strategies, err := updater.BuildStrategies(cfg.Release.Strategies, apiClient, updater.StrategyConfig{
		APIBaseURL:         cfg.Release.APIBaseURL,
		ProxyBaseURL:       cfg.Release.ProxyBaseURL,
		UserAgent:          userAgent,
		MaxResponseBytes:   cfg.Network.MaxResponseBytes,
		InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("release strategies: %w", err)
	}

	fetcher := updater.NewFetcher(probe, reclaimer, strategies...)
	parser := updater.NewParser(updater.ParserConfig{AssetTokens: cfg.Release.AssetTokens})
	streamer := updater.NewStreamOpener(downloadClient, updater.StreamConfig{
		UserAgent:          userAgent,
		IdleTimeout:        cfg.Network.DownloadTimeout,
		InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
	})

	slot := flash.NewSlot(cfg.Flash.SlotPath, cfg.Flash.SlotSize)
	if err := slot.CheckWritable(ctx); err != nil {
		log.Warn().Err(err).Str("slot", slot.Path()).Msg("flash slot is not writable, installs will fail")
	}

	watchdog := c.Watchdog
	if watchdog == nil {
		watchdog = noopWatchdog{}
	}

	checker := usecase.NewCheckUpdateUseCase(probe, fetcher, parser, c.Versions, cfg.Release.OwnerRepo)
	installer := usecase.NewApplyUpdateUseCase(slot, streamer, slot, reclaimer, pool, watchdog)

	log.Debug().
		Str("repo", cfg.Release.OwnerRepo).
		Strs("strategies", cfg.Release.Strategies).
		Str("slot", slot.Path()).
		Msg("update engine assembled")

	return engine.New(engine.Deps{
		Checker:   checker,
		Installer: installer,
		Versions:  c.Versions,
		Journal:   c.Journal,
	}, engine.Options{}), nil
}

type noopWatchdog struct{}

func (noopWatchdog) Kick() {}

var _ memory.IdleCloser = (*http.Client)(nil)
