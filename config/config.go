// Copyright 2026 The Bimsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for bimsync.
//
// Configuration is loaded from a YAML file specified by:
//   - BIMSYNC_CONFIG environment variable, or
//   - --config flag passed to the command
//
// Unlike a server deployment, a sync CLI has to work out of the box, so
// when neither is set the built-in defaults apply (local backend,
// standard session path). Environment variables never override loaded
// values; the only expansion performed is ${VAR} in paths for
// portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baps-project/bimsync/api"
	"github.com/baps-project/bimsync/session"
)

// Config is the bimsync configuration.
type Config struct {
	// Backend configures the API endpoint.
	Backend BackendConfig `yaml:"backend"`

	// Session configures local session storage.
	Session SessionConfig `yaml:"session"`

	// Extract configures element extraction.
	Extract ExtractConfig `yaml:"extract"`

	// Snapshot configures model snapshot storage.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Sync configures the sync state kept between runs.
	Sync SyncConfig `yaml:"sync"`
}

// BackendConfig configures the API endpoint.
type BackendConfig struct {
	// BaseURL is the backend API root.
	// Default: http://localhost:3001/api
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP request, as a duration string.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// SessionConfig configures local session storage.
type SessionConfig struct {
	// File is the session file path. Empty means the standard
	// location (BIMSYNC_SESSION_FILE, then the user config dir).
	File string `yaml:"file"`
}

// ExtractConfig configures element extraction.
type ExtractConfig struct {
	// SelectorsFile is a JSONC file defining which categories to
	// extract and which properties to read. Empty means the built-in
	// selector set.
	SelectorsFile string `yaml:"selectors_file"`
}

// SnapshotConfig configures model snapshot storage.
type SnapshotConfig struct {
	// Dir is where snapshots are written. Default: ${HOME}/.cache/bimsync.
	Dir string `yaml:"dir"`

	// Compression selects the snapshot codec: "zstd", "lz4", or
	// "none". Default: zstd.
	Compression string `yaml:"compression"`
}

// SyncConfig configures the sync state kept between runs.
type SyncConfig struct {
	// StateFile holds record fingerprints from the last successful
	// upload, enabling changed-only sync. Default:
	// ${HOME}/.cache/bimsync/state.cbor.
	StateFile string `yaml:"state_file"`
}

// Default returns the built-in configuration. A config file is
// optional; these values are a working setup for a local backend.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: api.DefaultBaseURL,
			Timeout: "30s",
		},
		Session: SessionConfig{
			File: "",
		},
		Snapshot: SnapshotConfig{
			Dir:         "${HOME}/.cache/bimsync",
			Compression: "zstd",
		},
		Sync: SyncConfig{
			StateFile: "${HOME}/.cache/bimsync/state.cbor",
		},
	}
}

// Load loads configuration from the BIMSYNC_CONFIG environment
// variable, falling back to defaults when it is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("BIMSYNC_CONFIG")
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Session.File = expandVars(c.Session.File, vars)
	c.Extract.SelectorsFile = expandVars(c.Extract.SelectorsFile, vars)
	c.Snapshot.Dir = expandVars(c.Snapshot.Dir, vars)
	c.Sync.StateFile = expandVars(c.Sync.StateFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.BaseURL == "" {
		errs = append(errs, fmt.Errorf("backend.base_url is required"))
	}
	if _, err := c.RequestTimeout(); err != nil {
		errs = append(errs, err)
	}

	switch c.Snapshot.Compression {
	case "", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: none, lz4, zstd"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequestTimeout parses the backend timeout. Empty means no timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Backend.Timeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("backend.timeout %q: %w", c.Backend.Timeout, err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("backend.timeout %q: negative", c.Backend.Timeout)
	}
	return timeout, nil
}

// SessionPath returns the configured session file path, or the
// standard location when none is configured.
func (c *Config) SessionPath() string {
	if c.Session.File != "" {
		return c.Session.File
	}
	return session.DefaultPath()
}
