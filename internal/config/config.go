package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig holds HTTP gateway settings.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig points at the back-office REST API.
type UpstreamConfig struct {
	BaseURL string   `yaml:"base_url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection settings for the redis cache backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "bolt", "redis", "daemon".
	Backend string `yaml:"backend"`
	// TTL is the staleness window for reference data.
	TTL Duration `yaml:"ttl"`
	// SearchTTL is the shorter window for search results.
	SearchTTL Duration `yaml:"search_ttl"`
	// Path is the bolt database file (bolt backend).
	Path string `yaml:"path"`
	// Socket is the daemon socket path (daemon backend).
	Socket string `yaml:"socket"`
	// Coalesce collapses concurrent misses for the same key into one
	// upstream fetch. Off by default: independent concurrent misses each
	// fetch, last write wins.
	Coalesce bool        `yaml:"coalesce"`
	Redis    RedisConfig `yaml:"redis"`
}

// Config is the central configuration for the gateway and MCP server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	LogPath  string         `yaml:"log_path"`
}

// Default returns a Config with working defaults for a local setup.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8085",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:8000",
			Timeout: Duration(15 * time.Second),
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       Duration(5 * time.Minute),
			SearchTTL: Duration(2 * time.Minute),
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "refgate:",
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the config.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("REFGATE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("REFGATE_UPSTREAM_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("REFGATE_UPSTREAM_TOKEN"); v != "" {
		cfg.Upstream.Token = v
	}
	if v := os.Getenv("REFGATE_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REFGATE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = Duration(d)
		}
	}
	if v := os.Getenv("REFGATE_CACHE_SEARCH_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SearchTTL = Duration(d)
		}
	}
	if v := os.Getenv("REFGATE_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("REFGATE_CACHE_SOCK"); v != "" {
		cfg.Cache.Socket = v
	}
	if v := os.Getenv("REFGATE_CACHE_COALESCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Coalesce = b
		}
	}
	if v := os.Getenv("REFGATE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REFGATE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("REFGATE_LOG"); v != "" {
		cfg.LogPath = v
	}
}

// Load resolves the effective configuration: defaults, then the optional
// file at path, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	LoadFromEnv(cfg)
	return cfg, nil
}
