package config

import (
	"os"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadOracleConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, "oracle.toml", `
data_dir = "/var/lib/wxoracle"
event_db = "/var/lib/wxoracle/oracle.db"
private_key_path = "/var/lib/wxoracle/oracle.key"
`)

	cfg, err := LoadOracleConfig(nil)
	if err != nil {
		t.Fatalf("LoadOracleConfig: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("expected default host, got %q", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.SnapshotRetentionDays != 30 {
		t.Fatalf("expected default retention 30, got %d", cfg.SnapshotRetentionDays)
	}
	if err := ValidateOracle(cfg); err != nil {
		t.Fatalf("ValidateOracle: %v", err)
	}
}

func TestLoadOracleConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, "oracle.toml", `
host = "127.0.0.1"
data_dir = "/data"
event_db = "/data/oracle.db"
private_key_path = "/data/oracle.key"
`)
	t.Setenv("WXORACLE_HOST", "10.0.0.5")

	cfg, err := LoadOracleConfig(nil)
	if err != nil {
		t.Fatalf("LoadOracleConfig: %v", err)
	}
	if cfg.Host != "10.0.0.5" {
		t.Fatalf("expected env override, got %q", cfg.Host)
	}
}

func TestLoadOracleConfigFlagOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, "oracle.toml", `
data_dir = "/data"
event_db = "/data/oracle.db"
private_key_path = "/data/oracle.key"
`)
	t.Setenv("WXORACLE_PORT", "9000")

	cfg, err := LoadOracleConfig([]string{"-port", "9500"})
	if err != nil {
		t.Fatalf("LoadOracleConfig: %v", err)
	}
	if cfg.Port != 9500 {
		t.Fatalf("expected flag to win over env, got %d", cfg.Port)
	}
}

func TestLoadOracleConfigLogFileFlagOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, "oracle.toml", `
data_dir = "/data"
event_db = "/data/oracle.db"
private_key_path = "/data/oracle.key"
`)
	t.Setenv("WXORACLE_LOG_FILE", "/var/log/wxoracle-env.log")

	cfg, err := LoadOracleConfig([]string{"-log-file", "/var/log/wxoracle-flag.log"})
	if err != nil {
		t.Fatalf("LoadOracleConfig: %v", err)
	}
	if cfg.LogFile != "/var/log/wxoracle-flag.log" {
		t.Fatalf("expected flag to win over env for log_file, got %q", cfg.LogFile)
	}
}

func TestValidateOracleRejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := LoadOracleConfig(nil)
	if err != nil {
		t.Fatalf("LoadOracleConfig: %v", err)
	}
	if err := ValidateOracle(cfg); err == nil {
		t.Fatal("expected validation error for an unconfigured oracle")
	}
}

func TestLoadDaemonConfigResolvesSources(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, "daemon.toml", `
base_url = "https://oracle.example.com"
data_dir = "/var/lib/wxoracled"

[[sources]]
name = "nws"
observations_url = "https://api.weather.gov/stations/KORD/observations"
forecasts_url = "https://api.weather.gov/gridpoints/LOT/76,73/forecast"
`)

	cfg, err := LoadDaemonConfig(nil)
	if err != nil {
		t.Fatalf("LoadDaemonConfig: %v", err)
	}
	if cfg.SleepInterval != 3600 {
		t.Fatalf("expected default sleep interval, got %d", cfg.SleepInterval)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "nws" {
		t.Fatalf("expected one source named nws, got %+v", cfg.Sources)
	}
	if err := ValidateDaemon(cfg); err != nil {
		t.Fatalf("ValidateDaemon: %v", err)
	}
}

// chdir switches the working directory for the duration of the test so
// candidateConfigPaths' "./filename" entry resolves inside a temp dir,
// restoring the previous directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(prev)
	})
}
