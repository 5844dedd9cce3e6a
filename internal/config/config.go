// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the typed application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console text json"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// MetricsConfig optionally names a Prometheus textfile written after each command.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LLMConfig selects and tunes the classification provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=openai anthropic"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=0"`
	RateLimit   int           `mapstructure:"rate_limit" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// FetchConfig tunes the receipt page downloader.
type FetchConfig struct {
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// SetDefaults registers default values on v. Every key gets one so that
// environment overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", "$HOME/.local/share/ledger/ledger.db")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("fetch.user_agent", "receipt-ledger/1.0")
}

// Load reads the configuration from v, fills provider specific defaults and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Metrics.Textfile = ExpandPath(cfg.Metrics.Textfile)

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "gpt-4o-mini"
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic":
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = "claude-3-5-haiku-latest"
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	return &cfg, nil
}
