// Package config provides configuration management for the docnav panel and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/ini.v1"

	"github.com/lenderdesk/docnav/internal/constants"
)

// Config is the runtime configuration shared by the CLI and the embedded
// document panel.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\lenderdesk\docnav.ini
//   - Unix: ~/.config/lenderdesk/docnav.ini
//
// INI format:
//
//	[lenderdesk]
//	platform_url = https://platform.lenderdesk.com
//	api_key = <token-or-api-key>
//
//	[docnav.proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy =
//
//	[docnav.prefetch]
//	enabled = true
//	workers = 4
type Config struct {
	// Platform connection settings
	APIBaseURL string `ini:"platform_url"`
	APIKey     string `ini:"api_key"`

	// Proxy settings
	ProxyMode     string `ini:"mode"` // "no-proxy", "ntlm", "basic", "system"
	ProxyHost     string `ini:"host"`
	ProxyPort     int    `ini:"port"`
	ProxyUser     string `ini:"user"`
	ProxyPassword string `ini:"-"`        // Never persisted; resolved at runtime
	NoProxy       string `ini:"no_proxy"` // Comma-separated list of hosts to bypass proxy

	// Prefetch settings
	PrefetchEnabled bool `ini:"enabled"`
	PrefetchWorkers int  `ini:"workers"`
}

// Validation errors
var (
	ErrMissingPlatformURL = errors.New("platform_url is required")
	ErrMissingAPIKey      = errors.New("api_key is required")
	ErrInvalidProxyMode   = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
	ErrInvalidWorkers     = errors.New("prefetch workers must be between 1 and 16")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		APIBaseURL:      "https://platform.lenderdesk.com",
		ProxyMode:       "no-proxy",
		PrefetchEnabled: true,
		PrefetchWorkers: constants.PrefetchWorkers,
	}
}

// DefaultConfigPath returns the default path for the docnav config file.
//   - Windows: %USERPROFILE%\.config\lenderdesk\docnav.ini
//   - Unix: ~/.config/lenderdesk/docnav.ini
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "docnav.ini"), nil
}

// ConfigDir returns the lenderdesk config directory for the current user.
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		return filepath.Join(userProfile, ".config", "lenderdesk"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lenderdesk"), nil
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	section := iniFile.Section("lenderdesk")
	cfg.APIBaseURL = section.Key("platform_url").MustString(cfg.APIBaseURL)
	cfg.APIKey = section.Key("api_key").String()

	proxy := iniFile.Section("docnav.proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString("no-proxy")
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(0)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()

	prefetch := iniFile.Section("docnav.prefetch")
	cfg.PrefetchEnabled = prefetch.Key("enabled").MustBool(true)
	cfg.PrefetchWorkers = prefetch.Key("workers").MustInt(constants.PrefetchWorkers)

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist. The API key is stored in
// the file, so the file is written with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	section := iniFile.Section("lenderdesk")
	section.Key("platform_url").SetValue(cfg.APIBaseURL)
	section.Key("api_key").SetValue(cfg.APIKey)

	proxy := iniFile.Section("docnav.proxy")
	proxy.Key("mode").SetValue(cfg.ProxyMode)
	proxy.Key("host").SetValue(cfg.ProxyHost)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxy.Key("user").SetValue(cfg.ProxyUser)
	proxy.Key("no_proxy").SetValue(cfg.NoProxy)

	prefetch := iniFile.Section("docnav.prefetch")
	prefetch.Key("enabled").SetValue(fmt.Sprintf("%t", cfg.PrefetchEnabled))
	prefetch.Key("workers").SetValue(fmt.Sprintf("%d", cfg.PrefetchWorkers))

	if err := iniFile.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// Validate checks the config for use against the platform API.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingPlatformURL
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch c.ProxyMode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	if c.PrefetchWorkers < 1 || c.PrefetchWorkers > 16 {
		return ErrInvalidWorkers
	}
	return nil
}
