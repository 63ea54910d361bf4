// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	JobStore    JobStoreConfig    `mapstructure:"jobstore"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	PubSub      PubSubConfig      `mapstructure:"pubsub"`
	Progress    ProgressConfig    `mapstructure:"progress"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Application ApplicationConfig `mapstructure:"application"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DatabaseConfig controls access to the relational record store. An empty
// DSN keeps the service on the in-memory repository.
type DatabaseConfig struct {
	DSN                    string `mapstructure:"dsn"`
	RequestsTable          string `mapstructure:"requests_table"`
	SentimentsTable        string `mapstructure:"sentiments_table"`
	EventsTable            string `mapstructure:"events_table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// ProviderConfig configures the upstream sentiment provider client.
type ProviderConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Providers      string `mapstructure:"providers"`
	Language       string `mapstructure:"language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AnalysisConfig governs dispatcher and job pipeline behavior. The two
// delay knobs keep submitted jobs observably pending and running for
// clients that poll immediately after submission.
type AnalysisConfig struct {
	Workers           int `mapstructure:"workers"`
	QueueDepth        int `mapstructure:"queue_depth"`
	PendingDelayMs    int `mapstructure:"pending_delay_ms"`
	ProcessingDelayMs int `mapstructure:"processing_delay_ms"`
}

// JobStoreConfig selects the async job metadata backend.
type JobStoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds connection settings for the redis job store backend.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// ArchiveConfig sets the backend and paths for raw provider responses.
type ArchiveConfig struct {
	Backend     string `mapstructure:"backend"`
	Bucket      string `mapstructure:"bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
	LocalDir    string `mapstructure:"local_dir"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ProgressConfig tunes the job event pipeline.
type ProgressConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	LogEnabled     bool `mapstructure:"log_enabled"`
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	BufferSize     int  `mapstructure:"buffer_size"`
	SinkTimeoutMs  int  `mapstructure:"sink_timeout_ms"`
	BatchMaxEvents int  `mapstructure:"batch_max_events"`
	BatchMaxWaitMs int  `mapstructure:"batch_max_wait_ms"`
}

// RateLimitConfig paces provider calls across workers.
type RateLimitConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DefaultRPS   float64 `mapstructure:"default_rps"`
	DefaultBurst int     `mapstructure:"default_burst"`
}

// ApplicationConfig identifies the deployment for telemetry resources.
type ApplicationConfig struct {
	ServiceName   string `mapstructure:"service_name"`
	Version       string `mapstructure:"version"`
	ProjectID     string `mapstructure:"project_id"`
	ProjectNumber string `mapstructure:"project_number"`
	Region        string `mapstructure:"region"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SENTIMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The provider key historically shipped as EDENAI_API_KEY; honor both.
	if err := v.BindEnv("provider.api_key", "SENTIMENT_PROVIDER_API_KEY", "EDENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind provider api key: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("database.requests_table", "requests")
	v.SetDefault("database.sentiments_table", "sentiments")
	v.SetDefault("database.events_table", "job_events")
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("provider.base_url", "https://api.edenai.run/v2/text/sentiment_analysis")
	v.SetDefault("provider.providers", "google")
	v.SetDefault("provider.language", "en")
	v.SetDefault("provider.timeout_seconds", 15)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.queue_depth", 64)
	v.SetDefault("analysis.pending_delay_ms", 2000)
	v.SetDefault("analysis.processing_delay_ms", 2000)
	v.SetDefault("jobstore.backend", "memory")
	v.SetDefault("jobstore.redis.addr", "localhost:6379")
	v.SetDefault("jobstore.redis.db", 0)
	v.SetDefault("jobstore.redis.ttl_minutes", 1440)
	v.SetDefault("archive.backend", "memory")
	v.SetDefault("archive.prefix", "responses")
	v.SetDefault("archive.content_type", "application/json")
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.log_enabled", false)
	v.SetDefault("progress.metrics_enabled", true)
	v.SetDefault("progress.buffer_size", 4096)
	v.SetDefault("progress.sink_timeout_ms", 10000)
	v.SetDefault("progress.batch_max_events", 256)
	v.SetDefault("progress.batch_max_wait_ms", 500)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.default_rps", 2)
	v.SetDefault("ratelimit.default_burst", 4)
	v.SetDefault("application.service_name", "sentiment-service")
	v.SetDefault("application.version", "0.3.0")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("analysis.workers must be > 0")
	}
	if c.Analysis.QueueDepth <= 0 {
		return fmt.Errorf("analysis.queue_depth must be > 0")
	}
	if c.Analysis.PendingDelayMs < 0 || c.Analysis.ProcessingDelayMs < 0 {
		return fmt.Errorf("analysis delays must be >= 0")
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return fmt.Errorf("provider.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.JobStore.Backend {
	case "memory":
	case "redis":
		if c.JobStore.Redis.Addr == "" {
			return fmt.Errorf("jobstore.redis.addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("jobstore.backend must be memory or redis, got %q", c.JobStore.Backend)
	}
	switch c.Archive.Backend {
	case "memory":
	case "gcs":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set for the gcs backend")
		}
	case "local":
		if c.Archive.LocalDir == "" {
			return fmt.Errorf("archive.local_dir must be set for the local backend")
		}
	default:
		return fmt.Errorf("archive.backend must be memory, gcs, or local, got %q", c.Archive.Backend)
	}
	if c.RateLimit.Enabled && c.RateLimit.DefaultRPS <= 0 {
		return fmt.Errorf("ratelimit.default_rps must be > 0 when rate limiting is enabled")
	}
	return nil
}

// RequestTimeout bounds a single API request end to end.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ProviderTimeout bounds one upstream provider call.
func (c Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// PendingDelay is how long a job stays visibly pending before work starts.
func (c Config) PendingDelay() time.Duration {
	return time.Duration(c.Analysis.PendingDelayMs) * time.Millisecond
}

// ProcessingDelay is how long a job stays visibly running before the
// provider call is made.
func (c Config) ProcessingDelay() time.Duration {
	return time.Duration(c.Analysis.ProcessingDelayMs) * time.Millisecond
}
