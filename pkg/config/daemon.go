package config

import (
	"flag"
	"os"
	"strconv"
)

// LoadDaemonConfig resolves the ingestion daemon's configuration the
// same way LoadOracleConfig does: file → XDG → system, then
// environment variables, then CLI flags parsed from args. Sources are
// only ever set from the config file — spec.md §4.F's source list is
// structured data that doesn't have a sane flag/env encoding.
func LoadDaemonConfig(args []string) (*DaemonConfig, error) {
	cfg := &DaemonConfig{}
	if _, err := loadFirstExistingTOML("daemon.toml", cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("WXORACLE_DAEMON_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("WXORACLE_DAEMON_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WXORACLE_DAEMON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WXORACLE_DAEMON_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("WXORACLE_DAEMON_SLEEP_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SleepInterval = n
		}
	}

	fs := flag.NewFlagSet("ingestd", flag.ContinueOnError)
	baseURL := fs.String("base-url", cfg.BaseURL, "oracle upload base URL")
	dataDir := fs.String("data-dir", cfg.DataDir, "scratch directory for staged uploads")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level")
	logFile := fs.String("log-file", cfg.LogFile, "optional rotated log file path, in addition to stdout")
	sleepInterval := fs.Int("sleep-interval", cfg.SleepInterval, "seconds between poll cycles")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.BaseURL = *baseURL
	cfg.DataDir = *dataDir
	cfg.LogLevel = *logLevel
	cfg.LogFile = *logFile
	cfg.SleepInterval = *sleepInterval

	applyDaemonDefaults(cfg)
	return cfg, nil
}
