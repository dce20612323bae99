// Package config provides configuration management for the docnav panel and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveAPIKey returns an API key by checking multiple sources in priority order.
// This provides consistent API key resolution across the CLI and the embedded panel.
//
// Priority (highest to lowest):
//  1. Provided apiKey parameter (if non-empty) - e.g., from --api-key flag
//  2. Config INI file (~/.config/lenderdesk/docnav.ini)
//  3. Token file (~/.config/lenderdesk/token) - created by 'config init'
//  4. DOCNAV_API_KEY environment variable
//
// Returns empty string if no API key found in any source.
func ResolveAPIKey(apiKey string, configPath string) string {
	key, _ := ResolveAPIKeySource(apiKey, configPath)
	return key
}

// ResolveAPIKeySource returns the API key and its source for debugging/logging.
// This is useful for CLI --verbose mode to show where the API key came from.
//
// Source is one of "flag", "config", "token-file", "environment", or "" if
// no key was found.
func ResolveAPIKeySource(apiKey string, configPath string) (string, string) {
	// 1. If explicitly provided, use it (highest priority)
	if apiKey != "" {
		return apiKey, "flag"
	}

	// 2. Config INI file
	if cfg, err := Load(configPath); err == nil && cfg.APIKey != "" {
		return cfg.APIKey, "config"
	}

	// 3. Token file
	if tokenPath, err := DefaultTokenPath(); err == nil {
		if key, err := ReadTokenFile(tokenPath); err == nil && key != "" {
			return key, "token-file"
		}
	}

	// 4. Environment variable (lowest priority)
	if envKey := os.Getenv("DOCNAV_API_KEY"); envKey != "" {
		return envKey, "environment"
	}

	return "", ""
}

// DefaultTokenPath returns the path of the standalone token file.
func DefaultTokenPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// ReadTokenFile reads an API key from a token file.
// The file contains the bare key, optionally with surrounding whitespace.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteTokenFile writes an API key to a token file with owner-only permissions.
func WriteTokenFile(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	return os.WriteFile(path, []byte(key+"\n"), 0600)
}
