package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Liveness   LivenessConfig   `yaml:"liveness"`
	Clock      ClockConfig      `yaml:"clock"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// LivenessConfig holds the thresholds and intervals for the device
// liveness tracker. Values are given in seconds; the parsed durations
// are filled in by Load.
type LivenessConfig struct {
	OfflineThresholdSeconds int `yaml:"offline_threshold_seconds"`
	SweepIntervalSeconds    int `yaml:"sweep_interval_seconds"`
	CleanupIntervalSeconds  int `yaml:"cleanup_interval_seconds"`

	OfflineThreshold time.Duration `yaml:"-"`
	SweepInterval    time.Duration `yaml:"-"`
	CleanupInterval  time.Duration `yaml:"-"`
}

// ClockConfig holds the display clock configuration.
type ClockConfig struct {
	Timezone string `yaml:"timezone"`
}

// PushConfig holds the VAPID keys for web push offline alerts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in unset values. The offline threshold must exceed
// the devices' report interval so a single delayed report does not flag
// a bin offline; the cleanup interval must exceed the threshold by a
// wide margin so entries are not evicted while still informative.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Liveness.OfflineThresholdSeconds <= 0 {
		cfg.Liveness.OfflineThresholdSeconds = 20
	}
	if cfg.Liveness.SweepIntervalSeconds <= 0 {
		cfg.Liveness.SweepIntervalSeconds = 10
	}
	if cfg.Liveness.CleanupIntervalSeconds <= 0 {
		cfg.Liveness.CleanupIntervalSeconds = 3600
	}
	cfg.Liveness.OfflineThreshold = time.Duration(cfg.Liveness.OfflineThresholdSeconds) * time.Second
	cfg.Liveness.SweepInterval = time.Duration(cfg.Liveness.SweepIntervalSeconds) * time.Second
	cfg.Liveness.CleanupInterval = time.Duration(cfg.Liveness.CleanupIntervalSeconds) * time.Second

	if cfg.Liveness.CleanupInterval <= cfg.Liveness.OfflineThreshold {
		log.Printf("Warning: liveness.cleanup_interval_seconds (%d) should be much larger than offline_threshold_seconds (%d)",
			cfg.Liveness.CleanupIntervalSeconds, cfg.Liveness.OfflineThresholdSeconds)
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
