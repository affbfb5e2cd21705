package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the AEGIS gateway configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig selects and tunes the response cache store.
type CacheConfig struct {
	Driver           string `yaml:"driver"` // postgres, redis, valkey, memory (default: memory)
	DSN              string `yaml:"dsn"`    // postgres only
	TTLHours         int    `yaml:"ttl_hours"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	MaxOpenConns     int    `yaml:"max_open_conns"`
	LogSQL           bool   `yaml:"log_sql"`
}

// RedisConfig holds the Redis/Valkey connection shared by cache and limiter.
type RedisConfig struct {
	Addrs      []string `yaml:"addrs"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	DB         int      `yaml:"db"`
	Standalone bool     `yaml:"standalone"`
}

// RateLimitConfig holds the fixed-window limiter settings.
type RateLimitConfig struct {
	Driver           string `yaml:"driver"` // memory, shared (default: memory)
	Limit            int    `yaml:"limit"`
	WindowMs         int    `yaml:"window_ms"`
	SweepIntervalSec int    `yaml:"sweep_interval_sec"`
}

// UpstreamConfig holds the language-model provider settings.
type UpstreamConfig struct {
	APIKey        string            `yaml:"api_key"`
	BaseURL       string            `yaml:"base_url"`
	TimeoutSec    int               `yaml:"timeout_sec"`
	MaxTokens     int               `yaml:"max_tokens"`
	Temperature   float32           `yaml:"temperature"`
	TopP          float32           `yaml:"top_p"`
	SearchDomains []string          `yaml:"search_domains"`
	Models        map[string]string `yaml:"models"` // mode -> model
}

// GatewayConfig holds orchestration toggles.
type GatewayConfig struct {
	SingleFlight bool `yaml:"single_flight"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Upstream calls take up to a minute.
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.RateLimit.Driver == "" {
		c.RateLimit.Driver = "memory"
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 10
	}
	if c.RateLimit.WindowMs <= 0 {
		c.RateLimit.WindowMs = 60000
	}
	if c.RateLimit.SweepIntervalSec <= 0 {
		c.RateLimit.SweepIntervalSec = 60
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://api.perplexity.ai"
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 60
	}
}

// Validate checks the configuration for correctness.
// A missing upstream api_key is reported by the provider client at startup.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Cache.Driver {
	case "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("cache.dsn is required for driver postgres")
		}
	case "redis", "valkey":
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required for cache driver %s", c.Cache.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("cache.driver must be one of postgres, redis, valkey, memory, got %q", c.Cache.Driver)
	}

	switch c.RateLimit.Driver {
	case "memory":
	case "shared":
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required for rate_limit driver shared")
		}
	default:
		return fmt.Errorf("rate_limit.driver must be \"memory\" or \"shared\", got %q", c.RateLimit.Driver)
	}

	for m := range c.Upstream.Models {
		switch m {
		case "deep_research", "reasoning_pro", "search_citation":
		default:
			return fmt.Errorf("upstream.models: unknown mode %q", m)
		}
	}
	return nil
}

// NeedsRedis reports whether any component talks to Redis/Valkey.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Driver == "redis" || c.Cache.Driver == "valkey" || c.RateLimit.Driver == "shared"
}

// CacheTTL returns the response cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// RateLimitWindow returns the limiter window length.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMs) * time.Millisecond
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
