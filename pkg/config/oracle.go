package config

import (
	"flag"
	"os"
	"strconv"
)

// LoadOracleConfig resolves the oracle's configuration through
// file → XDG → system (loadFirstExistingTOML's tiered lookup), then
// environment variables, then CLI flags parsed from args, matching
// the precedence spec.md §6 documents (flag > env > file > XDG >
// system — later layers here override earlier ones). Defaults from
// spec.md §6 are applied to whatever remains unset. ValidateOracle is
// not called here; callers should call it once layering is complete.
func LoadOracleConfig(args []string) (*OracleConfig, error) {
	cfg := &OracleConfig{}
	if _, err := loadFirstExistingTOML("oracle.toml", cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("WXORACLE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("WXORACLE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("WXORACLE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("WXORACLE_EVENT_DB"); v != "" {
		cfg.EventDB = v
	}
	if v := os.Getenv("WXORACLE_PRIVATE_KEY_PATH"); v != "" {
		cfg.PrivateKeyPath = v
	}
	if v := os.Getenv("WXORACLE_UI_DIR"); v != "" {
		cfg.UIDir = v
	}
	if v := os.Getenv("WXORACLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WXORACLE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("WXORACLE_SNAPSHOT_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SnapshotRetentionDays = n
		}
	}

	fs := flag.NewFlagSet("oracled", flag.ContinueOnError)
	host := fs.String("host", cfg.Host, "listen host")
	port := fs.Int("port", cfg.Port, "listen port")
	dataDir := fs.String("data-dir", cfg.DataDir, "snapshot store directory")
	eventDB := fs.String("event-db", cfg.EventDB, "metadata store DSN or sqlite path")
	privKeyPath := fs.String("private-key-path", cfg.PrivateKeyPath, "oracle signing key PEM path")
	uiDir := fs.String("ui-dir", cfg.UIDir, "embedded dashboard UI directory (unused by the core)")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level")
	logFile := fs.String("log-file", cfg.LogFile, "optional rotated log file path, in addition to stdout")
	retention := fs.Int("snapshot-retention-days", cfg.SnapshotRetentionDays, "snapshot retention horizon in days")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Host = *host
	cfg.Port = *port
	cfg.DataDir = *dataDir
	cfg.EventDB = *eventDB
	cfg.PrivateKeyPath = *privKeyPath
	cfg.UIDir = *uiDir
	cfg.LogLevel = *logLevel
	cfg.LogFile = *logFile
	cfg.SnapshotRetentionDays = *retention

	applyOracleDefaults(cfg)
	return cfg, nil
}
