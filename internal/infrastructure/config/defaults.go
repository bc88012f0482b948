package config

import (
	"time"

	"github.com/bnema/flashota/internal/infrastructure/memory"
	"github.com/bnema/flashota/internal/infrastructure/netcheck"
	"github.com/bnema/flashota/internal/infrastructure/updater"
)

const (
	defaultOwnerRepo     = "bnema/flashota"
	defaultSlotPath      = "/var/lib/flashota/firmware.bin"
	defaultCheckInterval = 6 * time.Hour
	defaultPoolBuffers   = 8

	minCheckInterval = time.Minute

	defaultLogMaxSizeMB  = 5
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 14
)

// DefaultConfig returns the default configuration values for flashota.
func DefaultConfig() *Config {
	return &Config{
		Release: ReleaseConfig{
			OwnerRepo:    defaultOwnerRepo,
			Strategies:   []string{updater.StrategyDirect, updater.StrategyProxy},
			APIBaseURL:   updater.DefaultAPIBaseURL,
			ProxyBaseURL: updater.DefaultProxyBaseURL,
			AssetTokens:  append([]string(nil), updater.DefaultAssetTokens...),
		},
		Network: NetworkConfig{
			InsecureSkipVerify: false,
			APITimeout:         updater.DefaultAPITimeout,
			DownloadTimeout:    updater.DefaultDownloadTimeout,
			MaxResponseBytes:   updater.DefaultMaxResponseBytes,
			ProbeTarget:        netcheck.DefaultTarget,
			ProbeTimeout:       netcheck.DefaultTimeout,
		},
		Flash: FlashConfig{
			SlotPath: defaultSlotPath,
		},
		Memory: MemoryConfig{
			Reclaim:              true,
			Rounds:               memory.DefaultConfig().Rounds,
			SecondaryPoolBuffers: defaultPoolBuffers,
		},
		Daemon: DaemonConfig{
			CheckInterval:    defaultCheckInterval,
			RestartOnSuccess: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   true,
		},
		Database: DatabaseConfig{
			// Path is set dynamically in Load()
		},
	}
}
