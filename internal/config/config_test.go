package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, SSLModeRequire, cfg.Database.SSLMode)
	assert.True(t, cfg.Database.MigrationAutoRun)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 500, cfg.ArXiv.SyncLimit)
	assert.NotEmpty(t, cfg.ArXiv.Categories)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)

	assert.Equal(t, 85, cfg.Pipeline.ScoreThreshold)
	assert.Equal(t, 5, cfg.Pipeline.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.RescoreCooldown)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.ResummarizeCooldown)

	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "06:00", cfg.Scheduler.Time)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAPERAGENT_SERVER_HTTP_PORT", "9090")
	t.Setenv("PAPERAGENT_DATABASE_HOST", "db.internal")
	t.Setenv("PAPERAGENT_PIPELINE_SCORE_THRESHOLD", "70")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 70, cfg.Pipeline.ScoreThreshold)
}

func TestLoad_SecretsFromEnvOnly(t *testing.T) {
	t.Setenv("PAPERAGENT_DATABASE_PASSWORD", "s3cret")
	t.Setenv("PAPERAGENT_LLM_OPENAI_API_KEY", "sk-test")
	t.Setenv("PAPERAGENT_NOTIFY_TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "123:abc", cfg.Notify.Telegram.BotToken)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "user@host",
		Password: "p@ss/word",
		Name:     "paper_agent",
		SSLMode:  SSLModeDisable,
	}

	dsn := dbCfg.DSN()
	assert.Contains(t, dsn, "user%40host")
	assert.Contains(t, dsn, "p%40ss%2Fword")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{HTTPPort: 8080},
			Database: DatabaseConfig{SSLMode: SSLModeDisable, MaxConns: 10, MinConns: 1},
			ArXiv:    ArXivConfig{Categories: []string{"cs.CV"}, SyncLimit: 500},
			LLM:      LLMConfig{Provider: "openai"},
			Pipeline: PipelineConfig{ScoreThreshold: 85, Concurrency: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: "http_port",
		},
		{
			name:    "bad ssl mode",
			mutate:  func(c *Config) { c.Database.SSLMode = "maybe" },
			wantErr: "ssl_mode",
		},
		{
			name:    "max conns below min",
			mutate:  func(c *Config) { c.Database.MaxConns = 1; c.Database.MinConns = 5 },
			wantErr: "max_conns",
		},
		{
			name:    "no categories",
			mutate:  func(c *Config) { c.ArXiv.Categories = nil },
			wantErr: "categories",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.LLM.Provider = "llama-at-home" },
			wantErr: "provider",
		},
		{
			name:    "threshold above 100",
			mutate:  func(c *Config) { c.Pipeline.ScoreThreshold = 101 },
			wantErr: "score_threshold",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Pipeline.Concurrency = 0 },
			wantErr: "concurrency",
		},
		{
			name:    "bad scheduler clock",
			mutate:  func(c *Config) { c.Scheduler.Enabled = true; c.Scheduler.Time = "25:99" },
			wantErr: "scheduler.time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("06:30")
	require.NoError(t, err)
	assert.Equal(t, 6, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClock("6")
	assert.Error(t, err)

	_, _, err = ParseClock("24:00")
	assert.Error(t, err)
}
