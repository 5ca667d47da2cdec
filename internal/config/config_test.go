package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoConfigFilePresent(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.SweepInterval.Seconds() != 30 {
		t.Errorf("SweepInterval = %v, want 30s", cfg.SweepInterval)
	}
}

func TestLoadReadsConfigTomlAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	volumectlDir := filepath.Join(dir, ".volumectl")
	if err := os.MkdirAll(volumectlDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	contents := "log-level = \"debug\"\nsweep-interval = \"1m\"\n"
	if err := os.WriteFile(filepath.Join(volumectlDir, "config.toml"), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("VOLUMECTL_LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q (env must win over config file)", cfg.LogLevel, "warn")
	}
	if cfg.SweepInterval.String() != "1m0s" {
		t.Errorf("SweepInterval = %v, want 1m0s from config file", cfg.SweepInterval)
	}
}
