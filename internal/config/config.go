// Package config loads volumectl's runtime configuration: the database path,
// the sweeper's poll interval, and logging verbosity.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is the resolved configuration for a volumectl process.
type Config struct {
	DBPath        string        `mapstructure:"db-path"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
	LogLevel      string        `mapstructure:"log-level"`
	LockPath      string        `mapstructure:"lock-path"`

	// ConfigDir is the directory the config.toml was discovered in, if any;
	// empty when no file was found. The sweeper's fsnotify watcher watches
	// this directory and logs when the file changes; changed values take
	// effect only on restart. Not a field read by viper.
	ConfigDir string `mapstructure:"-"`
}

// Load resolves configuration from, in ascending precedence: built-in
// defaults, a config.toml discovered by walking up from the working
// directory or from $XDG_CONFIG_HOME/volumectl, then VOLUMECTL_-prefixed
// environment variables.
//
// config.toml is parsed with BurntSushi/toml directly rather than through
// viper's own format registry, then folded into viper via MergeConfigMap, so
// a malformed file surfaces the BurntSushi parse error rather than a vaguer
// viper one.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("db-path", defaultDBPath())
	v.SetDefault("sweep-interval", "30s")
	v.SetDefault("log-level", "info")
	v.SetDefault("lock-path", defaultDBPath()+".lock")

	var configDir string
	if path, ok := findConfigFile(); ok {
		var raw map[string]any
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if err := v.MergeConfigMap(raw); err != nil {
			return Config{}, fmt.Errorf("merge config file %s: %w", path, err)
		}
		configDir = filepath.Dir(path)
	}

	v.SetEnvPrefix("VOLUMECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigDir = configDir
	return cfg, nil
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "volumectl", "volumes.db")
	}
	return "volumes.db"
}

// findConfigFile walks up from the working directory looking for
// .volumectl/config.toml, falling back to $XDG_CONFIG_HOME/volumectl/config.toml.
func findConfigFile() (string, bool) {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			path := filepath.Join(dir, ".volumectl", "config.toml")
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "volumectl", "config.toml")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
