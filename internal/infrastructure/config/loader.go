// Package config loads flashota's TOML configuration with Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	explicit  bool
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a manager that looks for config.toml in the XDG config
// directory, then in the working directory.
func NewManager() (*Manager, error) {
	v := newViper()

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
	}
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	if err := bindEnv(v); err != nil {
		return nil, err
	}
	return &Manager{viper: v}, nil
}

// NewManagerForFile creates a manager reading exactly path. A missing file is
// created with the defaults.
func NewManagerForFile(path string) (*Manager, error) {
	if path == "" {
		return nil, errors.New("config file path cannot be empty")
	}
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := bindEnv(v); err != nil {
		return nil, err
	}
	return &Manager{viper: v, explicit: true}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FLASHOTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// bindEnv adds the short logging variables shared with logging.NewFromEnv.
func bindEnv(v *viper.Viper) error {
	if err := v.BindEnv("logging.level", "FLASHOTA_LOG_LEVEL", "FLASHOTA_LOGGING_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind FLASHOTA_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "FLASHOTA_LOG_FORMAT", "FLASHOTA_LOGGING_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind FLASHOTA_LOG_FORMAT: %w", err)
	}
	return nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.explicit {
		if err := EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to ensure directories: %w", err)
		}
	}

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	if err := ensureDatabasePath(config); err != nil {
		return err
	}
	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !(m.explicit && errors.Is(err, os.ErrNotExist)) {
		return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid TOML) and permissions", m.configPath(), err)
	}

	if createErr := m.createDefaultConfig(); createErr != nil {
		return fmt.Errorf(
			"failed to create default config at %s: %w\nTry creating the directory manually or check permissions",
			m.configPath(),
			createErr,
		)
	}
	if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
		return fmt.Errorf(
			"failed to read newly created config file: %w\nThe config file was created but couldn't be read. Please check the file format",
			rereadErr,
		)
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			m.viper.ConfigFileUsed(),
			err,
		)
	}
	return config, nil
}

func ensureDatabasePath(config *Config) error {
	if config.Database.Path != "" {
		return nil
	}
	dbPath, err := GetDatabaseFile()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	config.Database.Path = dbPath
	return nil
}

// normalizeConfig canonicalizes values that have harmless spelling variants.
func normalizeConfig(config *Config) {
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	if config.Logging.Level == "warning" {
		config.Logging.Level = "warn"
	}
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))

	strategies := config.Release.Strategies[:0]
	for _, s := range config.Release.Strategies {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			strategies = append(strategies, s)
		}
	}
	config.Release.Strategies = strategies

	config.Release.OwnerRepo = strings.Trim(strings.TrimSpace(config.Release.OwnerRepo), "/")
	config.Release.APIBaseURL = strings.TrimRight(config.Release.APIBaseURL, "/")
	config.Release.ProxyBaseURL = strings.TrimRight(config.Release.ProxyBaseURL, "/")
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	configCopy := *m.config
	return &configCopy
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

func (m *Manager) configPath() string {
	if used := m.viper.ConfigFileUsed(); used != "" {
		return used
	}
	path, err := GetConfigFile()
	if err != nil {
		return configName
	}
	return path
}

// createDefaultConfig writes the defaults to the config file and the JSON
// schema next to it.
func (m *Manager) createDefaultConfig() error {
	configFile := m.configPath()

	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	m.viper.SetConfigType("toml")
	if err := m.viper.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	m.viper.SetConfigFile(configFile)

	if err := WriteSchemaFile(filepath.Join(filepath.Dir(configFile), schemaName)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Created default configuration file: %s (TOML format)\n", configFile)
	return nil
}

// setDefaults registers every key so environment overrides and Unmarshal see
// them. Durations are registered as strings so the written file stays readable.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.setReleaseDefaults(defaults)
	m.setNetworkDefaults(defaults)
	m.setFlashDefaults(defaults)
	m.setMemoryDefaults(defaults)
	m.setDaemonDefaults(defaults)
	m.setLoggingDefaults(defaults)
	m.viper.SetDefault("database.path", defaults.Database.Path)
}

func (m *Manager) setReleaseDefaults(defaults *Config) {
	m.viper.SetDefault("release.owner_repo", defaults.Release.OwnerRepo)
	m.viper.SetDefault("release.strategies", defaults.Release.Strategies)
	m.viper.SetDefault("release.api_base_url", defaults.Release.APIBaseURL)
	m.viper.SetDefault("release.proxy_base_url", defaults.Release.ProxyBaseURL)
	m.viper.SetDefault("release.asset_tokens", defaults.Release.AssetTokens)
}

func (m *Manager) setNetworkDefaults(defaults *Config) {
	m.viper.SetDefault("network.insecure_skip_verify", defaults.Network.InsecureSkipVerify)
	m.viper.SetDefault("network.api_timeout", defaults.Network.APITimeout.String())
	m.viper.SetDefault("network.download_timeout", defaults.Network.DownloadTimeout.String())
	m.viper.SetDefault("network.max_response_bytes", defaults.Network.MaxResponseBytes)
	m.viper.SetDefault("network.probe_target", defaults.Network.ProbeTarget)
	m.viper.SetDefault("network.probe_timeout", defaults.Network.ProbeTimeout.String())
}

func (m *Manager) setFlashDefaults(defaults *Config) {
	m.viper.SetDefault("flash.slot_path", defaults.Flash.SlotPath)
	m.viper.SetDefault("flash.slot_size", defaults.Flash.SlotSize)
}

func (m *Manager) setMemoryDefaults(defaults *Config) {
	m.viper.SetDefault("memory.reclaim", defaults.Memory.Reclaim)
	m.viper.SetDefault("memory.rounds", defaults.Memory.Rounds)
	m.viper.SetDefault("memory.secondary_pool_buffers", defaults.Memory.SecondaryPoolBuffers)
}

func (m *Manager) setDaemonDefaults(defaults *Config) {
	m.viper.SetDefault("daemon.check_interval", defaults.Daemon.CheckInterval.String())
	m.viper.SetDefault("daemon.auto_install", defaults.Daemon.AutoInstall)
	m.viper.SetDefault("daemon.restart_on_success", defaults.Daemon.RestartOnSuccess)
}

func (m *Manager) setLoggingDefaults(defaults *Config) {
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.file", defaults.Logging.File)
	m.viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	m.viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	m.viper.SetDefault("logging.max_age_days", defaults.Logging.MaxAgeDays)
	m.viper.SetDefault("logging.compress", defaults.Logging.Compress)
}
