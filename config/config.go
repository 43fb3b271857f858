package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"tour-ops-backend/internal/timeline"
)

// EnvPrefix prefixes every environment override, e.g. TOUROPS_DATABASE_DSN.
const EnvPrefix = "TOUROPS"

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Timeline   TimelineConfig   `yaml:"timeline"`
	Feed       FeedConfig       `yaml:"feed"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" split_words:"true"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" split_words:"true"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" split_words:"true"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TimelineConfig holds the engine and live-loop settings.
type TimelineConfig struct {
	Timezone             string                  `yaml:"timezone"`
	Location             *time.Location          `yaml:"-" ignored:"true"`
	DefaultDurationHours float64                 `yaml:"default_duration_hours" split_words:"true"`
	MinSpanMinutes       int                     `yaml:"min_span_minutes" split_words:"true"`
	MidnightPolicy       string                  `yaml:"midnight_policy" split_words:"true"`
	Midnight             timeline.MidnightPolicy `yaml:"-" ignored:"true"`
	BusyThreshold        *int                    `yaml:"busy_threshold" split_words:"true"`
	TickMillis           int                     `yaml:"tick_millis" split_words:"true"`
	Tick                 time.Duration           `yaml:"-" ignored:"true"`
}

// FeedConfig describes the remote booking API.
type FeedConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds" split_words:"true"`
	Interval        time.Duration `yaml:"-" ignored:"true"`
	HTTPProxy       string        `yaml:"http_proxy" split_words:"true"`
	Request         FeedRequest   `yaml:"request"`
}

// FeedRequest defines the HTTP request sent to the booking API.
type FeedRequest struct {
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	PageSize int               `yaml:"pageSize" split_words:"true"`
	Payload  map[string]any    `yaml:"payload" ignored:"true"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns           int    `yaml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" split_words:"true"`
	LogQueries             bool   `yaml:"log_queries" split_words:"true"`
}

// PushConfig holds the VAPID keys for busy-hour web push alerts.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads the configuration from the given path, then applies .env and
// TOUROPS_* environment overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := godotenv.Load(); err == nil {
		log.Info().Msg("loaded overrides from .env")
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	// A negative rate or TTL switches the feature off; zero means unset.
	switch {
	case cfg.Server.RateLimitPerSec == 0:
		cfg.Server.RateLimitPerSec = 10
	case cfg.Server.RateLimitPerSec < 0:
		log.Info().Msg("rate limiting disabled")
		cfg.Server.RateLimitPerSec = 0
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	switch {
	case cfg.Server.CacheTTLSeconds == 0:
		cfg.Server.CacheTTLSeconds = 30
	case cfg.Server.CacheTTLSeconds < 0:
		log.Info().Msg("response cache disabled")
		cfg.Server.CacheTTLSeconds = 0
	}

	tl := &cfg.Timeline
	if tl.Timezone == "" {
		log.Warn().Msg("no timezone configured, using UTC")
		tl.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(tl.Timezone)
	if err != nil {
		log.Error().Err(err).Str("timezone", tl.Timezone).Msg("failed to load timezone, falling back to UTC")
		loc = time.UTC
	}
	tl.Location = loc

	if tl.DefaultDurationHours <= 0 {
		tl.DefaultDurationHours = timeline.DefaultDuration.Hours()
	}
	if tl.MinSpanMinutes <= 0 {
		tl.MinSpanMinutes = int(timeline.DefaultMinSpan.Minutes())
	}
	if tl.BusyThreshold == nil || *tl.BusyThreshold < 0 {
		threshold := timeline.DefaultBusyThreshold
		tl.BusyThreshold = &threshold
	}
	if tl.TickMillis <= 0 {
		tl.TickMillis = 1000
	}
	tl.Tick = time.Duration(tl.TickMillis) * time.Millisecond

	policy, err := timeline.ParseMidnightPolicy(tl.MidnightPolicy)
	if err != nil {
		return err
	}
	tl.Midnight = policy

	if cfg.Feed.IntervalSeconds <= 0 {
		cfg.Feed.IntervalSeconds = 60
	}
	cfg.Feed.Interval = time.Duration(cfg.Feed.IntervalSeconds) * time.Second

	if cfg.Feed.Request.PageSize <= 0 {
		cfg.Feed.Request.PageSize = 100
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Warn().Msg("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// EngineOptions translates the timeline section into engine options.
func (tl TimelineConfig) EngineOptions() timeline.Options {
	return timeline.Options{
		Location:        tl.Location,
		DefaultDuration: time.Duration(tl.DefaultDurationHours * float64(time.Hour)),
		MinSpan:         time.Duration(tl.MinSpanMinutes) * time.Minute,
		Midnight:        tl.Midnight,
	}
}
