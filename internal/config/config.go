// Package config loads the catalog CLI settings from a TOML file and
// CATALOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the resolved settings.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	RedisAddr   string
	RedisDB     int
	LogLevel    string
	LogPretty   bool
	MetricsAddr string

	// Path is the config file that was read, empty when none existed.
	Path string
}

const (
	defaultConfigPath = "~/.config/space-catalog/config.toml"
	defaultBaseURL    = "http://localhost:3000/api"
	defaultUserAgent  = "space-catalog/1.0"
	defaultTimeout    = 10 * time.Second
	defaultLogLevel   = "info"
)

// Environment variables that override the file.
const (
	EnvBaseURL     = "CATALOG_BASE_URL"
	EnvUserAgent   = "CATALOG_USER_AGENT"
	EnvTimeout     = "CATALOG_TIMEOUT"
	EnvRedisAddr   = "CATALOG_REDIS_ADDR"
	EnvRedisDB     = "CATALOG_REDIS_DB"
	EnvLogLevel    = "CATALOG_LOG_LEVEL"
	EnvLogPretty   = "CATALOG_LOG_PRETTY"
	EnvMetricsAddr = "CATALOG_METRICS_ADDR"
)

// Default returns the settings used when neither file nor environment set
// anything.
func Default() Config {
	return Config{
		BaseURL:   defaultBaseURL,
		UserAgent: defaultUserAgent,
		Timeout:   defaultTimeout,
		LogLevel:  defaultLogLevel,
	}
}

// Load reads path (the default location when empty), falling back to
// defaults when the file is missing, then applies the environment.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ApplyEnv(cfg, os.LookupEnv)
}

// LoadFile reads path without looking at the environment.
func LoadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL     string `toml:"base_url"`
		UserAgent   string `toml:"user_agent"`
		Timeout     string `toml:"timeout"`
		RedisAddr   string `toml:"redis_addr"`
		RedisDB     int    `toml:"redis_db"`
		LogLevel    string `toml:"log_level"`
		LogPretty   bool   `toml:"log_pretty"`
		MetricsAddr string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(raw.UserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: timeout: %w", err)
		}
		cfg.Timeout = d
	}
	cfg.RedisAddr = strings.TrimSpace(raw.RedisAddr)
	cfg.RedisDB = raw.RedisDB
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogPretty = raw.LogPretty
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.Path = resolved

	return cfg, cfg.validate()
}

// ApplyEnv overrides cfg with the CATALOG_* variables found by lookup.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get(EnvBaseURL); ok {
		cfg.BaseURL = v
	}
	if v, ok := get(EnvUserAgent); ok {
		cfg.UserAgent = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := get(EnvRedisAddr); ok {
		cfg.RedisAddr = v
	}
	if v, ok := get(EnvRedisDB); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		cfg.RedisDB = db
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvLogPretty); ok {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLogPretty, err)
		}
		cfg.LogPretty = pretty
	}
	if v, ok := get(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis_db must not be negative (got %d)", c.RedisDB)
	}
	return nil
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
