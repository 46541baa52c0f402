package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML
// file and are then overridden by environment variables.
type Config struct {
	Addr      string `yaml:"addr"`       // RDS_ADDR, default ":8080"
	DBPath    string `yaml:"db"`         // RDS_DB, default "rdstree.db"
	AuthToken string `yaml:"auth_token"` // RDS_AUTH_TOKEN, optional
	LogLevel  string `yaml:"log_level"`  // RDS_LOG_LEVEL, default "info"
	Seed      bool   `yaml:"seed"`       // RDS_SEED, load the sample facility on start
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:     ":8080",
		DBPath:   "rdstree.db",
		LogLevel: "info",
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML file over the defaults, then applies environment
// overrides. An empty path is the same as Load.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Addr = envOr("RDS_ADDR", c.Addr)
	c.DBPath = envOr("RDS_DB", c.DBPath)
	c.AuthToken = envOr("RDS_AUTH_TOKEN", c.AuthToken)
	c.LogLevel = envOr("RDS_LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("RDS_SEED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Seed = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: must be debug, info, warn or error", s)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
