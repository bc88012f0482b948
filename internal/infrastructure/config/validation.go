package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// validateConfig performs comprehensive validation of configuration values
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateRelease(config)...)
	validationErrors = append(validationErrors, validateNetwork(config)...)
	validationErrors = append(validationErrors, validateFlash(config)...)
	validationErrors = append(validationErrors, validateMemory(config)...)
	validationErrors = append(validationErrors, validateDaemon(config)...)
	validationErrors = append(validationErrors, validateLogging(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}

func validateRelease(config *Config) []string {
	var validationErrors []string

	owner, repo, ok := strings.Cut(config.Release.OwnerRepo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		validationErrors = append(validationErrors, "release.owner_repo must be in the form owner/repo")
	}

	if len(config.Release.Strategies) == 0 {
		validationErrors = append(validationErrors, "release.strategies must list at least one strategy")
	}
	for _, s := range config.Release.Strategies {
		if s != "direct" && s != "proxy" {
			validationErrors = append(validationErrors, fmt.Sprintf("release.strategies: unknown strategy %q (must be direct or proxy)", s))
		}
	}

	validationErrors = append(validationErrors, validateBaseURL("release.api_base_url", config.Release.APIBaseURL)...)
	validationErrors = append(validationErrors, validateBaseURL("release.proxy_base_url", config.Release.ProxyBaseURL)...)

	for _, token := range config.Release.AssetTokens {
		if strings.TrimSpace(token) == "" {
			validationErrors = append(validationErrors, "release.asset_tokens must not contain empty tokens")
			break
		}
	}
	return validationErrors
}

func validateBaseURL(key, raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return []string{fmt.Sprintf("%s must be an absolute http(s) URL", key)}
	}
	return nil
}

func validateNetwork(config *Config) []string {
	var validationErrors []string
	n := config.Network
	if n.APITimeout <= 0 {
		validationErrors = append(validationErrors, "network.api_timeout must be positive")
	}
	if n.DownloadTimeout <= 0 {
		validationErrors = append(validationErrors, "network.download_timeout must be positive")
	}
	if n.ProbeTimeout <= 0 {
		validationErrors = append(validationErrors, "network.probe_timeout must be positive")
	}
	if n.MaxResponseBytes < 1024 {
		validationErrors = append(validationErrors, "network.max_response_bytes must be at least 1024")
	}
	if _, _, err := net.SplitHostPort(n.ProbeTarget); err != nil {
		validationErrors = append(validationErrors, "network.probe_target must be host:port")
	}
	return validationErrors
}

func validateFlash(config *Config) []string {
	var validationErrors []string
	if strings.TrimSpace(config.Flash.SlotPath) == "" {
		validationErrors = append(validationErrors, "flash.slot_path must not be empty")
	}
	if config.Flash.SlotSize < 0 {
		validationErrors = append(validationErrors, "flash.slot_size must be non-negative")
	}
	return validationErrors
}

func validateMemory(config *Config) []string {
	var validationErrors []string
	if config.Memory.Rounds < 0 {
		validationErrors = append(validationErrors, "memory.rounds must be non-negative")
	}
	if config.Memory.SecondaryPoolBuffers < 0 {
		validationErrors = append(validationErrors, "memory.secondary_pool_buffers must be non-negative")
	}
	return validationErrors
}

func validateDaemon(config *Config) []string {
	if config.Daemon.CheckInterval < minCheckInterval {
		return []string{fmt.Sprintf("daemon.check_interval must be at least %s", minCheckInterval)}
	}
	return nil
}

func validateLogging(config *Config) []string {
	var validationErrors []string

	switch config.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.level %q is invalid (must be trace, debug, info, warn or error)", config.Logging.Level))
	}

	switch config.Logging.Format {
	case "console", "json":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.format %q is invalid (must be console or json)", config.Logging.Format))
	}

	if config.Logging.MaxSizeMB < 0 || config.Logging.MaxBackups < 0 || config.Logging.MaxAgeDays < 0 {
		validationErrors = append(validationErrors, "logging rotation limits must be non-negative")
	}
	return validationErrors
}
