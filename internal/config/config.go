// Package config loads service configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// UpstreamConfig overrides the external data sources; empty values keep the
// production endpoints.
type UpstreamConfig struct {
	CountriesURL string `yaml:"countries_url"`
	RatesURL     string `yaml:"rates_url"`
}

type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// RefreshConfig enables the optional periodic refresher when Interval is a
// positive duration string (e.g. "1h").
type RefreshConfig struct {
	Interval string `yaml:"interval"`
}

type HTTPConfig struct {
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitPerSecond int      `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
}

// Load reads CONFIG_PATH (default config.yaml). A missing file is not an
// error; defaults plus environment overrides apply.
func Load() (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseConfig{Driver: "postgres", MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 300},
		Logging:  LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
		Cache:    CacheConfig{Dir: "cache"},
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	if _, err := cfg.RefreshInterval(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RefreshInterval parses the optional refresh interval; zero means the
// periodic refresher stays disabled.
func (c *Config) RefreshInterval() (time.Duration, error) {
	if c.Refresh.Interval == "" {
		return 0, nil
	}
	interval, err := time.ParseDuration(c.Refresh.Interval)
	if err != nil {
		return 0, fmt.Errorf("parse refresh interval: %w", err)
	}
	if interval < 0 {
		return 0, fmt.Errorf("refresh interval must not be negative")
	}
	return interval, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("COUNTRIES_URL"); v != "" {
		cfg.Upstream.CountriesURL = v
	}
	if v := os.Getenv("RATES_URL"); v != "" {
		cfg.Upstream.RatesURL = v
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		cfg.Refresh.Interval = v
	}
}
