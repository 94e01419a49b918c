// Package config loads chitin's per-user configuration.
//
// Precedence, lowest to highest: built-in defaults, ~/.chitin/config.yaml,
// CHITIN_* environment variables. The shim must work with no config file
// present, and a broken config file degrades to defaults; configuration is
// never a reason to fail an invocation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable overrides.
const (
	EnvCacheEnabled = "CHITIN_CACHE_ENABLED"
	EnvCacheTTL     = "CHITIN_CACHE_TTL"
	EnvCacheDir     = "CHITIN_CACHE_DIR"
	EnvLogLevel     = "CHITIN_LOG_LEVEL"
	EnvLogFile      = "CHITIN_LOG_FILE"
	EnvOpenclawBin  = "CHITIN_OPENCLAW_BIN"
)

// DefaultTTL is the help cache expiry. Version drift invalidates entries
// immediately regardless of this value; the TTL is the safety net for
// installs that change behavior without a version bump.
const DefaultTTL = 24 * time.Hour

const configFileName = "config.yaml"

// Config is the merged chitin configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// CacheConfig controls the help cache.
type CacheConfig struct {
	// Enabled turns the cache off entirely when false.
	Enabled bool `yaml:"enabled"`

	// TTL is either an integer number of seconds or a Go duration string
	// ("24h", "90m"). Empty or invalid values fall back to DefaultTTL.
	TTL string `yaml:"ttl"`

	// Dir overrides the cache directory (default ~/.chitin/cache).
	Dir string `yaml:"dir"`
}

// LoggingConfig controls shim diagnostics.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RuntimeConfig pins the delegated CLI.
type RuntimeConfig struct {
	// OpenclawBin, when set, is used as the openclaw executable instead of
	// PATH/global-install discovery. Useful for dev builds and tests.
	OpenclawBin string `yaml:"openclaw_bin"`
}

func defaults() *Config {
	return &Config{
		Cache: CacheConfig{Enabled: true},
	}
}

// Load reads the config file (if any) and applies environment overrides.
func Load() *Config {
	cfg := defaults()

	if dir, err := Dir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(dir, configFileName)); err == nil {
			// Parse failures keep the defaults already in cfg.
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		cfg.Cache.TTL = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv(EnvOpenclawBin); v != "" {
		cfg.Runtime.OpenclawBin = v
	}
}

// CacheTTL resolves the configured TTL, falling back to DefaultTTL for
// empty, invalid, or non-positive values.
func (c *Config) CacheTTL() time.Duration {
	s := c.Cache.TTL
	if s == "" {
		return DefaultTTL
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return DefaultTTL
		}
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return DefaultTTL
}

// CacheDir resolves the cache directory, honoring the config/env override.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

// Dir returns chitin's per-user configuration directory (~/.chitin).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chitin"), nil
}
