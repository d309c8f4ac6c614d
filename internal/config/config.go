// Package config provides configuration management for the paper agent.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the paper agent.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// ArXiv contains feed fetcher settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// LLM contains evaluator client settings.
	LLM LLMConfig `mapstructure:"llm"`
	// PDF contains document extractor settings.
	PDF PDFConfig `mapstructure:"pdf"`
	// Notify contains notification channel settings.
	Notify NotifyConfig `mapstructure:"notify"`
	// Pipeline contains orchestrator settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Scheduler contains the daily auto-update schedule.
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	// SSE streams are exempted via per-route timeouts.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPAddress returns the host:port address for the HTTP server.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password. Loaded exclusively from the
	// environment, never from config files.
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool.
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open.
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a pooled connection.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is how long a connection may sit idle before closing.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the directory containing SQL schema migrations.
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun applies pending schema migrations at startup.
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the output format (json, console).
	Format string `mapstructure:"format"`
	// Output is the output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line number to log entries.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the time format for timestamps.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint when true.
	Enabled bool `mapstructure:"enabled"`
	// Path is the metrics endpoint path (default: /metrics).
	Path string `mapstructure:"path"`
}

// ArXivConfig holds feed fetcher configuration.
type ArXivConfig struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Categories are the subject categories to follow (e.g. cs.CV, cs.CL).
	Categories []string `mapstructure:"categories"`
	// SyncLimit caps how many entries one feed pull may return.
	SyncLimit int `mapstructure:"sync_limit"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second to the arXiv API.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
}

// LLMConfig holds evaluator client configuration.
type LLMConfig struct {
	// Provider selects the evaluator backend (openai, anthropic).
	Provider string `mapstructure:"provider"`
	// Temperature for scoring calls; summaries use a fixed higher value.
	Temperature float64 `mapstructure:"temperature"`
	// Timeout bounds a single evaluator call.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the retry budget for transient provider errors.
	MaxRetries int `mapstructure:"max_retries"`
	// Profile is the standing interest profile papers are scored against.
	Profile string `mapstructure:"profile"`
	// OpenAI holds OpenAI provider settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
	// Anthropic holds Anthropic provider settings.
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	// APIKey is loaded exclusively from the environment.
	APIKey string `mapstructure:"-"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API base URL (empty means default).
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	// APIKey is loaded exclusively from the environment.
	APIKey string `mapstructure:"-"`
	// Model is the model identifier.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API base URL (empty means default).
	BaseURL string `mapstructure:"base_url"`
}

// PDFConfig holds document extractor configuration.
type PDFConfig struct {
	// Timeout bounds a single download attempt.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxSizeBytes is the maximum PDF size accepted.
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	// UserAgent is the User-Agent header sent when downloading.
	UserAgent string `mapstructure:"user_agent"`
}

// NotifyConfig holds notification channel configuration. The first channel
// with complete credentials wins: Telegram, then Pushover, then Kafka.
type NotifyConfig struct {
	// Telegram holds Telegram bot settings.
	Telegram TelegramConfig `mapstructure:"telegram"`
	// Pushover holds Pushover settings.
	Pushover PushoverConfig `mapstructure:"pushover"`
	// Kafka holds Kafka digest topic settings.
	Kafka KafkaNotifyConfig `mapstructure:"kafka"`
}

// TelegramConfig holds Telegram bot API settings.
type TelegramConfig struct {
	// BotToken is loaded exclusively from the environment.
	BotToken string `mapstructure:"-"`
	// ChatID is the destination chat.
	ChatID string `mapstructure:"chat_id"`
}

// PushoverConfig holds Pushover API settings.
type PushoverConfig struct {
	// APIToken is loaded exclusively from the environment.
	APIToken string `mapstructure:"-"`
	// UserKey is the destination user key.
	UserKey string `mapstructure:"user_key"`
}

// KafkaNotifyConfig holds Kafka digest publisher settings.
type KafkaNotifyConfig struct {
	// Brokers is the list of broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the digest topic.
	Topic string `mapstructure:"topic"`
}

// PipelineConfig holds orchestrator configuration.
type PipelineConfig struct {
	// ScoreThreshold is the minimum score to pass filtering (default: 85).
	ScoreThreshold int `mapstructure:"score_threshold"`
	// Concurrency bounds simultaneous external calls per stage (default: 5).
	Concurrency int `mapstructure:"concurrency"`
	// RescoreCooldown is the per-date forced re-score cooldown window.
	RescoreCooldown time.Duration `mapstructure:"rescore_cooldown"`
	// ResummarizeCooldown is the per-paper re-summarize cooldown window.
	ResummarizeCooldown time.Duration `mapstructure:"resummarize_cooldown"`
}

// SchedulerConfig holds the daily auto-update schedule.
type SchedulerConfig struct {
	// Enabled turns the daily cycle trigger on.
	Enabled bool `mapstructure:"enabled"`
	// Time is the daily trigger time in "HH:MM" (UTC).
	Time string `mapstructure:"time"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables.
	v.SetEnvPrefix("PAPERAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paper-agent")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables. These fields use mapstructure:"-" to prevent loading from
// config files.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv("PAPERAGENT_DATABASE_PASSWORD")
	cfg.LLM.OpenAI.APIKey = os.Getenv("PAPERAGENT_LLM_OPENAI_API_KEY")
	cfg.LLM.Anthropic.APIKey = os.Getenv("PAPERAGENT_LLM_ANTHROPIC_API_KEY")
	cfg.Notify.Telegram.BotToken = os.Getenv("PAPERAGENT_NOTIFY_TELEGRAM_BOT_TOKEN")
	cfg.Notify.Pushover.APIToken = os.Getenv("PAPERAGENT_NOTIFY_PUSHOVER_API_TOKEN")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "paperagent")
	v.SetDefault("database.name", "paper_agent")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// ArXiv defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.categories", []string{"cs.CV", "cs.CL", "cs.AI"})
	v.SetDefault("arxiv.sync_limit", 500)
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 3.0)
	v.SetDefault("arxiv.burst_size", 3)

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.profile", "")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")

	// PDF defaults
	v.SetDefault("pdf.timeout", "30s")
	v.SetDefault("pdf.max_size_bytes", 50*1024*1024)
	v.SetDefault("pdf.user_agent", "PaperAgent/1.0")

	// Notify defaults
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.pushover.user_key", "")
	v.SetDefault("notify.kafka.brokers", []string{})
	v.SetDefault("notify.kafka.topic", "paper-digests")

	// Pipeline defaults
	v.SetDefault("pipeline.score_threshold", 85)
	v.SetDefault("pipeline.concurrency", 5)
	v.SetDefault("pipeline.rescore_cooldown", "60s")
	v.SetDefault("pipeline.resummarize_cooldown", "30s")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.time", "06:00")
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort)
	}

	switch c.Database.SSLMode {
	case SSLModeDisable, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
	default:
		return fmt.Errorf("database.ssl_mode must be one of disable, require, verify-ca, verify-full; got %q", c.Database.SSLMode)
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be >= database.min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	if len(c.ArXiv.Categories) == 0 {
		return fmt.Errorf("arxiv.categories must not be empty")
	}
	if c.ArXiv.SyncLimit <= 0 {
		return fmt.Errorf("arxiv.sync_limit must be positive, got %d", c.ArXiv.SyncLimit)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}

	if c.Pipeline.ScoreThreshold < 0 || c.Pipeline.ScoreThreshold > 100 {
		return fmt.Errorf("pipeline.score_threshold must be between 0 and 100, got %d", c.Pipeline.ScoreThreshold)
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be positive, got %d", c.Pipeline.Concurrency)
	}

	if c.Scheduler.Enabled {
		if _, _, err := ParseClock(c.Scheduler.Time); err != nil {
			return fmt.Errorf("scheduler.time: %w", err)
		}
	}

	return nil
}

// ParseClock parses a "HH:MM" clock string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock out of range: %q", s)
	}
	return hour, minute, nil
}
