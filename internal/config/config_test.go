package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv(EnvHeliusAPIKey, "helius-key")
	t.Setenv(EnvOpenAIAPIKey, "openai-key")
}

func TestLoad_Defaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "helius-key", cfg.Helius.APIKey)
	assert.Equal(t, "openai-key", cfg.OpenAI.APIKey)
	assert.Equal(t, 3, cfg.HTTP.Retries)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, time.Second, cfg.HTTP.RetryDelay)
	assert.Equal(t, 500, cfg.Analysis.TargetCount)
	assert.Equal(t, 0.1, cfg.Analysis.SmallThresholdSOL)
	assert.Equal(t, 20, cfg.Analysis.BatchSize)
	assert.Equal(t, 100, cfg.Analysis.MaxSignatures)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoad_MissingSecrets(t *testing.T) {
	tests := []struct {
		name    string
		helius  string
		openai  string
		missing string
	}{
		{"no helius", "", "k", EnvHeliusAPIKey},
		{"no openai", "k", "", EnvOpenAIAPIKey},
		{"whitespace helius", "   ", "k", EnvHeliusAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvHeliusAPIKey, tt.helius)
			t.Setenv(EnvOpenAIAPIKey, tt.openai)

			_, err := Load("")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingSecret))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv(EnvPostgresDSN, "postgres://u:p@localhost:5432/db")
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092 ,")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
http:
  retries: 5
  timeout: 10s
  retry_delay: 250ms
analysis:
  target_count: 200
  small_threshold_sol: 0.5
  batch_delay: 2s
storage:
  postgres_dsn: postgres://ignored
  save_file: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.HTTP.Retries)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.RetryDelay)
	assert.Equal(t, 200, cfg.Analysis.TargetCount)
	assert.Equal(t, 0.5, cfg.Analysis.SmallThresholdSOL)
	assert.Equal(t, 2*time.Second, cfg.Analysis.BatchDelay)
	assert.True(t, cfg.Storage.SaveFile)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.Storage.PostgresDSN)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Storage.KafkaBrokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Analysis.BatchSize)
}

func TestLoad_BadFile(t *testing.T) {
	setSecrets(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [unclosed"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero retries", func(c *Config) { c.HTTP.Retries = 0 }},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"zero target", func(c *Config) { c.Analysis.TargetCount = 0 }},
		{"negative threshold", func(c *Config) { c.Analysis.SmallThresholdSOL = -1 }},
		{"zero threshold", func(c *Config) { c.Analysis.SmallThresholdSOL = 0 }},
		{"page size too large", func(c *Config) { c.Analysis.PageSize = 101 }},
		{"zero batch", func(c *Config) { c.Analysis.BatchSize = 0 }},
		{"negative batch delay", func(c *Config) { c.Analysis.BatchDelay = -time.Second }},
		{"kafka without topic", func(c *Config) {
			c.Storage.KafkaBrokers = []string{"k:9092"}
			c.Storage.KafkaTopic = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Helius.APIKey = "k"
			c.OpenAI.APIKey = "k"
			require.NoError(t, c.Validate())

			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_InvalidTargetEnv(t *testing.T) {
	setSecrets(t)
	t.Setenv("ANALYZER_TARGET_COUNT", "many")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_ZeroThresholdRejected(t *testing.T) {
	setSecrets(t)

	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  small_threshold_sol: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "small_threshold_sol")
}
