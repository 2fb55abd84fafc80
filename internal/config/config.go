// Package config loads lyphgraph.toml.
//
// # Lookup
//
// Without an explicit --config path the first existing file wins:
//
//  1. ./lyphgraph.toml
//  2. $XDG_CONFIG_HOME/lyphgraph/config.toml (~/.config/lyphgraph/config.toml)
//
// No file at all is fine; [Default] applies.
//
// # Example
//
//	[log]
//	level = "debug"
//
//	[schema]
//	path = "schemas/physiology.json"
//	default_class = "Graph"
//
//	[cache]
//	backend = "redis"             # file | redis | none
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[export]
//	depth = 1
//	inline = false
//
//	[server]
//	addr = ":8080"
//
// LYPHGRAPH_REDIS_URL overrides cache.redis_url and selects the redis backend.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/open-physiology/lyphgraph/pkg/errors"
)

// FileName is the project-local config file name.
const FileName = "lyphgraph.toml"

// EnvRedisURL overrides the Redis URL.
const EnvRedisURL = "LYPHGRAPH_REDIS_URL"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full configuration file.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Schema SchemaConfig `toml:"schema"`
	Cache  CacheConfig  `toml:"cache"`
	Export ExportConfig `toml:"export"`
	Server ServerConfig `toml:"server"`

	path string
}

// LogConfig configures the charmbracelet logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// SchemaConfig selects the metamodel schema.
type SchemaConfig struct {
	// Path to a JSON or YAML schema. Empty uses the built-in schema.
	Path         string `toml:"path"`
	DefaultClass string `toml:"default_class"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Depth  int    `toml:"depth"`
	Inline bool   `toml:"inline"`
	Format string `toml:"format"`
}

// ServerConfig configures `lyphgraph serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Duration is a time.Duration written as a string ("90s", "24h").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info"},
		Schema: SchemaConfig{DefaultClass: "Graph"},
		Cache: CacheConfig{
			Backend: BackendFile,
			Prefix:  "lyphgraph:",
			TTL:     Duration{24 * time.Hour},
		},
		Export: ExportConfig{Format: "json"},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 8 << 20,
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
		},
	}
}

// Candidates returns the search path used when no explicit file is given.
func Candidates() []string {
	out := []string{FileName}
	if dir, err := configDir(); err == nil {
		out = append(out, filepath.Join(dir, "config.toml"))
	}
	return out
}

func configDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, "lyphgraph"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lyphgraph"), nil
}

// Load reads the configuration. An explicit path must exist; otherwise the
// first candidate that exists is used, or the defaults when none does.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, c := range Candidates() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}

	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
		cfg.path = path
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration from TOML text on top of the defaults.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if url := os.Getenv(EnvRedisURL); url != "" {
		c.Cache.RedisURL = url
		c.Cache.Backend = BackendRedis
	}
}

// Path returns the file the configuration was read from, or "".
func (c *Config) Path() string { return c.path }

var (
	validLevels   = []string{"debug", "info", "warn", "error"}
	validBackends = []string{BackendFile, BackendRedis, BackendNone}
	validFormats  = []string{"json", "yaml"}
)

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Log.Level) {
		return errors.New(errors.ErrCodeInvalidConfig, "log.level %q must be one of %s", c.Log.Level, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validBackends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q must be one of %s", c.Cache.Backend, strings.Join(validBackends, ", "))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend (or set %s)", EnvRedisURL)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Export.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "export.depth must be >= 0")
	}
	if !slices.Contains(validFormats, c.Export.Format) {
		return errors.New(errors.ErrCodeInvalidConfig, "export.format %q must be json or yaml", c.Export.Format)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
