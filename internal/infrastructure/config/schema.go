package config

import "time"

// Config represents the complete configuration for flashota.
type Config struct {
	// Release selects where releases are looked up and which assets count as firmware.
	Release ReleaseConfig `mapstructure:"release" toml:"release" json:"release"`
	// Network tunes HTTP clients and the connectivity probe.
	Network NetworkConfig `mapstructure:"network" toml:"network" json:"network"`
	// Flash describes the slot the firmware image is written to.
	Flash FlashConfig `mapstructure:"flash" toml:"flash" json:"flash"`
	// Memory controls heap reclamation before TLS-heavy work.
	Memory MemoryConfig `mapstructure:"memory" toml:"memory" json:"memory"`
	// Daemon controls the behavior of `flashota run`.
	Daemon   DaemonConfig   `mapstructure:"daemon" toml:"daemon" json:"daemon"`
	Logging  LoggingConfig  `mapstructure:"logging" toml:"logging" json:"logging"`
	Database DatabaseConfig `mapstructure:"database" toml:"database" json:"database"`
}

// ReleaseConfig holds release source settings.
type ReleaseConfig struct {
	// OwnerRepo is the GitHub repository, as "owner/repo".
	OwnerRepo string `mapstructure:"owner_repo" toml:"owner_repo" json:"owner_repo" jsonschema:"pattern=^[^/]+/[^/]+$"`
	// Strategies are tried in order until one returns a body (direct, proxy).
	Strategies   []string `mapstructure:"strategies" toml:"strategies" json:"strategies"`
	APIBaseURL   string   `mapstructure:"api_base_url" toml:"api_base_url" json:"api_base_url"`
	ProxyBaseURL string   `mapstructure:"proxy_base_url" toml:"proxy_base_url" json:"proxy_base_url"`
	// AssetTokens mark an asset as firmware when its name contains one of them.
	AssetTokens []string `mapstructure:"asset_tokens" toml:"asset_tokens" json:"asset_tokens"`
}

// NetworkConfig holds HTTP and probe settings.
type NetworkConfig struct {
	// InsecureSkipVerify disables certificate validation. Only for devices without a CA bundle.
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" toml:"insecure_skip_verify" json:"insecure_skip_verify"`
	APITimeout         time.Duration `mapstructure:"api_timeout" toml:"api_timeout" json:"api_timeout"`
	// DownloadTimeout is the longest a firmware download may go without receiving data.
	DownloadTimeout  time.Duration `mapstructure:"download_timeout" toml:"download_timeout" json:"download_timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" toml:"max_response_bytes" json:"max_response_bytes"`
	ProbeTarget      string        `mapstructure:"probe_target" toml:"probe_target" json:"probe_target"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout" toml:"probe_timeout" json:"probe_timeout"`
}

// FlashConfig holds the flash slot settings.
type FlashConfig struct {
	SlotPath string `mapstructure:"slot_path" toml:"slot_path" json:"slot_path"`
	// SlotSize caps the image size in bytes; 0 means limited by free disk space only.
	SlotSize int64 `mapstructure:"slot_size" toml:"slot_size" json:"slot_size" jsonschema:"minimum=0"`
}

// MemoryConfig holds reclamation settings.
type MemoryConfig struct {
	Reclaim bool `mapstructure:"reclaim" toml:"reclaim" json:"reclaim"`
	Rounds  int  `mapstructure:"rounds" toml:"rounds" json:"rounds"`
	// SecondaryPoolBuffers sizes the 2 KiB scratch pool; 0 disables it.
	SecondaryPoolBuffers int `mapstructure:"secondary_pool_buffers" toml:"secondary_pool_buffers" json:"secondary_pool_buffers"`
}

// DaemonConfig holds `flashota run` settings.
type DaemonConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval" toml:"check_interval" json:"check_interval"`
	AutoInstall   bool          `mapstructure:"auto_install" toml:"auto_install" json:"auto_install"`
	// RestartOnSuccess exits the daemon after a committed update so the service manager restarts it.
	RestartOnSuccess bool `mapstructure:"restart_on_success" toml:"restart_on_success" json:"restart_on_success"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error"`
	Format string `mapstructure:"format" toml:"format" json:"format" jsonschema:"enum=console,enum=json"`
	// File enables a rotated JSON log file when set.
	File       string `mapstructure:"file" toml:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" toml:"max_age_days" json:"max_age_days"`
	Compress   bool   `mapstructure:"compress" toml:"compress" json:"compress"`
}

// DatabaseConfig holds the update journal location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path"`
}
