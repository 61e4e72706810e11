package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Tables     TablesConfig     `yaml:"tables"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Watch      WatchConfig      `yaml:"watch"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`

	// Notes describes defaults that replaced invalid settings. Load runs before logging is
	// set up, so callers log these themselves.
	Notes []string `yaml:"-"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port" env:"PORT"`
	Environment     string   `yaml:"environment" env:"APP_ENV"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" env:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds" env:"CACHE_TTL_SECONDS"`
	AllowedOrigins  []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
}

// ScheduleConfig holds the thresholds used when projecting a category's status.
type ScheduleConfig struct {
	PreOpenMinutes  int `yaml:"pre_open_minutes"`
	PreCloseMinutes int `yaml:"pre_close_minutes"`
}

// TablesConfig holds table session defaults.
type TablesConfig struct {
	DefaultCapacity int `yaml:"default_capacity"`
}

// RealtimeConfig holds the websocket and polling transport settings.
type RealtimeConfig struct {
	SendBuffer          int           `yaml:"send_buffer"`
	WriteTimeoutSeconds int           `yaml:"write_timeout_seconds"`
	PongWaitSeconds     int           `yaml:"pong_wait_seconds"`
	PollLeaseSeconds    int           `yaml:"poll_lease_seconds"`
	WriteTimeout        time.Duration `yaml:"-"`
	PongWait            time.Duration `yaml:"-"`
	PollLease           time.Duration `yaml:"-"`
}

// WatchConfig holds the menu visibility watcher configuration.
type WatchConfig struct {
	Enabled         bool          `yaml:"enabled" env:"WATCH_ENABLED"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" env:"VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" env:"VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path, then applies environment overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 10
	}

	if cfg.Schedule.PreOpenMinutes <= 0 {
		cfg.Schedule.PreOpenMinutes = 30
	}
	if cfg.Schedule.PreCloseMinutes <= 0 {
		cfg.Schedule.PreCloseMinutes = 15
	}

	if cfg.Tables.DefaultCapacity <= 0 {
		cfg.Tables.DefaultCapacity = 4
	}

	if cfg.Realtime.SendBuffer <= 0 {
		cfg.Realtime.SendBuffer = 32
	}
	if cfg.Realtime.WriteTimeoutSeconds <= 0 {
		cfg.Realtime.WriteTimeoutSeconds = 10
	}
	if cfg.Realtime.PongWaitSeconds <= 0 {
		cfg.Realtime.PongWaitSeconds = 60
	}
	if cfg.Realtime.PollLeaseSeconds <= 0 {
		cfg.Realtime.PollLeaseSeconds = 45
	}
	cfg.Realtime.WriteTimeout = time.Duration(cfg.Realtime.WriteTimeoutSeconds) * time.Second
	cfg.Realtime.PongWait = time.Duration(cfg.Realtime.PongWaitSeconds) * time.Second
	cfg.Realtime.PollLease = time.Duration(cfg.Realtime.PollLeaseSeconds) * time.Second

	if cfg.Watch.IntervalSeconds <= 0 {
		cfg.Watch.IntervalSeconds = 60
	}
	cfg.Watch.Interval = time.Duration(cfg.Watch.IntervalSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.Notes = append(cfg.Notes, "worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
