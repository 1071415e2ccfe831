// Package config loads analyzer configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the YAML file.
const (
	EnvHeliusAPIKey  = "HELIUS_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvHeliusRPCURL  = "HELIUS_RPC_URL"
	EnvSolanaRPCURL  = "SOLANA_RPC_URL"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickHouseDSN = "CLICKHOUSE_DSN"
	EnvKafkaBrokers  = "KAFKA_BROKERS"
	EnvLogLevel      = "LOG_LEVEL"
)

// ErrMissingSecret is returned when a required API key is absent.
var ErrMissingSecret = errors.New("missing required secret")

// Config is the complete analyzer configuration.
type Config struct {
	Helius   HeliusConfig   `yaml:"helius"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	HTTP     HTTPConfig     `yaml:"http"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HeliusConfig holds indexer endpoints. APIKey only comes from the environment.
type HeliusConfig struct {
	APIKey string `yaml:"-"`
	// RPCURL serves DAS methods (getAssetsByOwner).
	RPCURL string `yaml:"rpc_url"`
	// StakeRPCURL serves getProgramAccounts for stake lookups.
	StakeRPCURL string `yaml:"stake_rpc_url"`
	// APIURL is the enhanced transactions API base.
	APIURL string `yaml:"api_url"`
}

// OpenAIConfig configures the narrative generator.
type OpenAIConfig struct {
	APIKey      string  `yaml:"-"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// HTTPConfig configures the resilient request client.
type HTTPConfig struct {
	Retries        int           `yaml:"retries"`
	Timeout        time.Duration `yaml:"timeout"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"` // 0 disables
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// AnalysisConfig holds pagination, batching and threshold parameters.
type AnalysisConfig struct {
	TargetCount       int           `yaml:"target_count"`
	SmallThresholdSOL float64       `yaml:"small_threshold_sol"`
	PageSize          int           `yaml:"page_size"`
	AssetPageLimit    int           `yaml:"asset_page_limit"`
	BatchSize         int           `yaml:"batch_size"`
	BatchDelay        time.Duration `yaml:"batch_delay"`
	MaxSignatures     int           `yaml:"max_signatures"` // 0 disables the cap
}

// StorageConfig selects where finished reports are persisted.
type StorageConfig struct {
	OutputDir     string   `yaml:"output_dir"`
	SaveFile      bool     `yaml:"save_file"`
	PostgresDSN   string   `yaml:"postgres_dsn"`
	ClickHouseDSN string   `yaml:"clickhouse_dsn"`
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

// LoggingConfig configures the logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Helius: HeliusConfig{
			RPCURL:      "https://mainnet.helius-rpc.com",
			StakeRPCURL: "https://api.mainnet-beta.solana.com",
			APIURL:      "https://api.helius.xyz",
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4.1-nano-2025-04-14",
			MaxTokens:   800,
			Temperature: 0.5,
		},
		HTTP: HTTPConfig{
			Retries:        3,
			Timeout:        30 * time.Second,
			RetryDelay:     time.Second,
			RateLimitBurst: 1,
		},
		Analysis: AnalysisConfig{
			TargetCount:       500,
			SmallThresholdSOL: 0.1,
			PageSize:          100,
			AssetPageLimit:    100,
			BatchSize:         20,
			BatchDelay:        time.Second,
			MaxSignatures:     100,
		},
		Storage: StorageConfig{
			OutputDir:  ".",
			KafkaTopic: "credit-reports",
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr", // stdout carries prompts and summaries
		},
	}
}

// Load reads the YAML file at path (optional), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Helius.APIKey = strings.TrimSpace(os.Getenv(EnvHeliusAPIKey))
	c.OpenAI.APIKey = strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey))

	if v := strings.TrimSpace(os.Getenv(EnvHeliusRPCURL)); v != "" {
		c.Helius.RPCURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSolanaRPCURL)); v != "" {
		c.Helius.StakeRPCURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOpenAIBaseURL)); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvClickHouseDSN)); v != "" {
		c.Storage.ClickHouseDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKafkaBrokers)); v != "" {
		c.Storage.KafkaBrokers = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("ANALYZER_TARGET_COUNT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse ANALYZER_TARGET_COUNT: %w", err)
		}
		c.Analysis.TargetCount = n
	}
	return nil
}

// Validate checks required secrets and numeric bounds.
func (c *Config) Validate() error {
	if c.Helius.APIKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingSecret, EnvHeliusAPIKey)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingSecret, EnvOpenAIAPIKey)
	}
	if c.Helius.RPCURL == "" || c.Helius.StakeRPCURL == "" || c.Helius.APIURL == "" {
		return fmt.Errorf("helius endpoints are required")
	}
	if c.HTTP.Retries < 1 {
		return fmt.Errorf("http.retries must be at least 1")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be greater than 0")
	}
	if c.HTTP.RetryDelay < 0 {
		return fmt.Errorf("http.retry_delay must not be negative")
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must not be negative")
	}
	if c.Analysis.TargetCount <= 0 {
		return fmt.Errorf("analysis.target_count must be greater than 0")
	}
	if c.Analysis.SmallThresholdSOL <= 0 {
		return fmt.Errorf("analysis.small_threshold_sol must be greater than 0")
	}
	if c.Analysis.PageSize <= 0 || c.Analysis.PageSize > 100 {
		return fmt.Errorf("analysis.page_size must be in [1, 100]")
	}
	if c.Analysis.AssetPageLimit <= 0 || c.Analysis.AssetPageLimit > 1000 {
		return fmt.Errorf("analysis.asset_page_limit must be in [1, 1000]")
	}
	if c.Analysis.BatchSize <= 0 || c.Analysis.BatchSize > 100 {
		return fmt.Errorf("analysis.batch_size must be in [1, 100]")
	}
	if c.Analysis.BatchDelay < 0 {
		return fmt.Errorf("analysis.batch_delay must not be negative")
	}
	if c.Analysis.MaxSignatures < 0 {
		return fmt.Errorf("analysis.max_signatures must not be negative")
	}
	if len(c.Storage.KafkaBrokers) > 0 && c.Storage.KafkaTopic == "" {
		return fmt.Errorf("storage.kafka_topic is required when kafka brokers are set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
