// Package config holds the service configuration loaded from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type App struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
	// RateLimitMs is the minimum gap between two requests of one client.
	RateLimitMs int `yaml:"rate_limit_ms"`
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Exchange struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	OrderBookLimit int    `yaml:"order_book_limit"`
}

type Registry struct {
	RefreshIntervalSec int `yaml:"refresh_interval_sec"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Cache struct {
	Backend  string   `yaml:"backend"`
	TTLSec   int      `yaml:"ttl_sec"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
}

type Config struct {
	App      App      `yaml:"app"`
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Exchange Exchange `yaml:"exchange"`
	Registry Registry `yaml:"registry"`
	Cache    Cache    `yaml:"cache"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&c.App.LogLevel, "LOG_LEVEL")
	override(&c.HTTP.Addr, "HTTP_ADDR")
	override(&c.GRPC.Addr, "GRPC_ADDR")
	override(&c.Cache.Redis.Addr, "REDIS_ADDR")
	override(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	override(&c.Cache.Postgres.DSN, "POSTGRES_DSN")
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "depthbook"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimitMs <= 0 {
		c.HTTP.RateLimitMs = 100
	}
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://api.binance.com"
	}
	if c.Exchange.TimeoutMs <= 0 {
		c.Exchange.TimeoutMs = 10000
	}
	if c.Exchange.OrderBookLimit <= 0 {
		c.Exchange.OrderBookLimit = 5000
	}
	if c.Registry.RefreshIntervalSec <= 0 {
		c.Registry.RefreshIntervalSec = 300
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendRedis
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
}

func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendRedis, BackendMemory:
	case BackendPostgres:
		if c.Cache.Postgres.DSN == "" {
			return fmt.Errorf("cache.postgres.dsn is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Registry.RefreshIntervalSec) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.Exchange.TimeoutMs) * time.Millisecond
}

func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.HTTP.RateLimitMs) * time.Millisecond
}
