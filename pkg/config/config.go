// Package config loads the oracle's and ingestion daemon's
// configuration (spec.md §6), resolving each option through CLI flag,
// environment variable, config file, XDG user config, and system
// config, in that order, the first source that sets an option wins.
// This replaces the teacher's YAML ConfigProvider — that interface
// existed to manage hardware weather-station device definitions that
// do not exist in this domain — with a flat TOML struct, since
// spec.md §6 names `oracle.toml`/`daemon.toml` as the discovered
// filenames.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SourceConfig names one remote feed the ingestion daemon polls
// (spec.md §4.F "a list of sources").
type SourceConfig struct {
	Name             string `toml:"name"`
	ObservationsURL  string `toml:"observations_url"`
	ForecastsURL     string `toml:"forecasts_url"`
}

// OracleConfig is the oracle process's configuration (spec.md §6
// "Oracle:" table).
type OracleConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	DataDir                string `toml:"data_dir"`
	EventDB                string `toml:"event_db"`
	PrivateKeyPath         string `toml:"private_key_path"`
	UIDir                  string `toml:"ui_dir"`
	LogLevel               string `toml:"log_level"`
	LogFile                string `toml:"log_file"`
	SnapshotRetentionDays  int    `toml:"snapshot_retention_days"`
	FreezeWorkers          int    `toml:"freeze_workers"`
}

// DaemonConfig is the ingestion daemon's configuration (spec.md §6
// "Daemon:" table).
type DaemonConfig struct {
	BaseURL       string         `toml:"base_url"`
	DataDir       string         `toml:"data_dir"`
	SleepInterval int            `toml:"sleep_interval"`
	LogLevel      string         `toml:"log_level"`
	LogFile       string         `toml:"log_file"`
	Sources       []SourceConfig `toml:"sources"`
}

// applyOracleDefaults fills in spec.md §6's documented defaults for
// any option the loaded layers left at its zero value.
func applyOracleDefaults(c *OracleConfig) {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.SnapshotRetentionDays == 0 {
		c.SnapshotRetentionDays = 30
	}
	if c.FreezeWorkers == 0 {
		c.FreezeWorkers = 4
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// applyDaemonDefaults fills in spec.md §4.F's documented defaults.
func applyDaemonDefaults(c *DaemonConfig) {
	if c.SleepInterval == 0 {
		c.SleepInterval = 3600
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// ValidateOracle checks the options spec.md §6 marks required.
func ValidateOracle(c *OracleConfig) error {
	var missing []string
	if c.DataDir == "" {
		missing = append(missing, "data_dir")
	}
	if c.EventDB == "" {
		missing = append(missing, "event_db")
	}
	if c.PrivateKeyPath == "" {
		missing = append(missing, "private_key_path")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required oracle configuration: %v", missing)
	}
	return nil
}

// ValidateDaemon checks the options spec.md §6 marks required.
func ValidateDaemon(c *DaemonConfig) error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.DataDir == "" {
		missing = append(missing, "data_dir")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required daemon configuration: %v", missing)
	}
	return nil
}

// candidateConfigPaths returns the file/XDG/system locations
// loadFirstExistingTOML checks, in spec.md §6's resolution order, for a config file named
// filename (e.g. "oracle.toml").
func candidateConfigPaths(filename string) []string {
	paths := []string{filepath.Join(".", filename)}
	if xdg, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(xdg, "wxoracle", filename))
	}
	paths = append(paths, filepath.Join("/etc/wxoracle", filename))
	return paths
}

// loadFirstExistingTOML decodes the first existing file among
// candidateConfigPaths(filename) into dst, returning ("", nil) if none
// exist (an oracle/daemon may be configured entirely via flags/env).
func loadFirstExistingTOML(filename string, dst interface{}) (string, error) {
	for _, path := range candidateConfigPaths(filename) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if _, err := toml.DecodeFile(path, dst); err != nil {
			return path, fmt.Errorf("parse %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}
