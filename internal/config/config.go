// Package config loads application configuration and owns the scoring weight
// tables. Weights are constructed once and passed by value into the scorers;
// nothing in this package is mutated after Load.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Gemini GeminiConfig `yaml:"gemini" mapstructure:"gemini"`
	Claude ClaudeConfig `yaml:"claude" mapstructure:"claude"`
	NLP    NLPConfig    `yaml:"nlp" mapstructure:"nlp"`
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the candidate/result store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// GeminiConfig holds the semantic-judgment and embedding collaborator settings.
type GeminiConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	JudgeModel  string `yaml:"judge_model" mapstructure:"judge_model"`
	EmbedModel  string `yaml:"embed_model" mapstructure:"embed_model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RPM         int    `yaml:"rpm" mapstructure:"rpm"`
}

// ClaudeConfig holds the summary-generation collaborator settings.
type ClaudeConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// NLPConfig holds the syntax/sentiment collaborator settings.
type NLPConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LimitsConfig bounds external-call and worker concurrency.
type LimitsConfig struct {
	// MaxLLMConcurrency caps simultaneous LLM calls across the process.
	MaxLLMConcurrency int `yaml:"max_llm_concurrency" mapstructure:"max_llm_concurrency"`
	// MaxScanWorkers caps parallel candidate comparisons in duplicate scans.
	MaxScanWorkers int `yaml:"max_scan_workers" mapstructure:"max_scan_workers"`
}

// ServerConfig configures the thin HTTP wrapper.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EQUALLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "equallens.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("gemini.judge_model", "gemini-2.0-flash")
	v.SetDefault("gemini.embed_model", "gemini-embedding-001")
	v.SetDefault("gemini.timeout_secs", 30)
	v.SetDefault("gemini.rpm", 60)
	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("claude.timeout_secs", 20)
	v.SetDefault("nlp.base_url", "https://language.googleapis.com")
	v.SetDefault("nlp.timeout_secs", 10)
	v.SetDefault("limits.max_llm_concurrency", 5)
	v.SetDefault("limits.max_scan_workers", 8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
