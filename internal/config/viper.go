// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultMaxUploadBytes is the upload size ceiling (10 MiB).
const DefaultMaxUploadBytes int64 = 10 << 20

// Config represents the complete application configuration
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Server         ServerConfig         `mapstructure:"server" yaml:"server"`
	Upload         UploadConfig         `mapstructure:"upload" yaml:"upload"`
	Parsing        ParsingConfig        `mapstructure:"parsing" yaml:"parsing"`
	Parsers        ParsersConfig        `mapstructure:"parsers" yaml:"parsers"`
	AI             AIConfig             `mapstructure:"ai" yaml:"ai"`
	Categorization CategorizationConfig `mapstructure:"categorization" yaml:"categorization"`
	Analysis       AnalysisConfig       `mapstructure:"analysis" yaml:"analysis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address" yaml:"address"`
	Mode           string `mapstructure:"mode" yaml:"mode"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

type UploadConfig struct {
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// ParsingConfig controls the shared parsing pipeline.
type ParsingConfig struct {
	DefaultCurrency string `mapstructure:"default_currency" yaml:"default_currency"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// DateOrder resolves numeric dates such as 03/04/2024 where both
	// components are <= 12. Either "mdy" or "dmy".
	DateOrder      string `mapstructure:"date_order" yaml:"date_order"`
	HeaderScanRows int    `mapstructure:"header_scan_rows" yaml:"header_scan_rows"`
}

type ParsersConfig struct {
	PDF struct {
		OCREnabled bool `mapstructure:"ocr_enabled" yaml:"ocr_enabled"`
	} `mapstructure:"pdf" yaml:"pdf"`
	Text struct {
		DefaultSign      string   `mapstructure:"default_sign" yaml:"default_sign"`
		PositiveKeywords []string `mapstructure:"positive_keywords" yaml:"positive_keywords"`
	} `mapstructure:"text" yaml:"text"`
}

type AIConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	Model             string `mapstructure:"model" yaml:"model"`
	OCRModel          string `mapstructure:"ocr_model" yaml:"ocr_model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
	APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
}

type CategorizationConfig struct {
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"`
}

type AnalysisConfig struct {
	ForecastHorizons []int `mapstructure:"forecast_horizons" yaml:"forecast_horizons"`
}

// ParseTimeout returns the parsing budget as a duration.
func (c *Config) ParseTimeout() time.Duration {
	return time.Duration(c.Parsing.TimeoutSeconds) * time.Second
}

// AITimeout returns the per-call budget for OCR and recommendation requests.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.statement-insights")
	v.AddConfigPath(".statement-insights")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("STATEMENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key is always read from the unprefixed variable
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by the defaults alone, without
// reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode cleanly.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_bytes", DefaultMaxUploadBytes)

	v.SetDefault("upload.temp_dir", "")

	v.SetDefault("parsing.default_currency", "USD")
	v.SetDefault("parsing.timeout_seconds", 30)
	v.SetDefault("parsing.date_order", "mdy")
	v.SetDefault("parsing.header_scan_rows", 10)

	v.SetDefault("parsers.pdf.ocr_enabled", true)
	v.SetDefault("parsers.text.default_sign", "negative")
	v.SetDefault("parsers.text.positive_keywords", []string{
		"deposit", "credit", "salary", "payroll", "refund", "interest", "transfer in",
	})

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.ocr_model", "gemini-2.0-flash")
	v.SetDefault("ai.requests_per_minute", 10)
	v.SetDefault("ai.timeout_seconds", 60)
	v.SetDefault("ai.max_retries", 3)

	v.SetDefault("categorization.rules_file", "")

	v.SetDefault("analysis.forecast_horizons", []int{5, 10, 25})
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode: %s (must be 'debug', 'release' or 'test')", config.Server.Mode)
	}

	if config.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	if len(config.Parsing.DefaultCurrency) != 3 {
		return fmt.Errorf("parsing.default_currency must be a 3-letter code, got: %s", config.Parsing.DefaultCurrency)
	}

	if config.Parsing.DateOrder != "mdy" && config.Parsing.DateOrder != "dmy" {
		return fmt.Errorf("parsing.date_order must be 'mdy' or 'dmy', got: %s", config.Parsing.DateOrder)
	}

	if config.Parsing.TimeoutSeconds < 1 || config.Parsing.TimeoutSeconds > 600 {
		return fmt.Errorf("parsing.timeout_seconds must be between 1 and 600, got: %d", config.Parsing.TimeoutSeconds)
	}

	if config.Parsing.HeaderScanRows < 1 {
		return fmt.Errorf("parsing.header_scan_rows must be at least 1, got: %d", config.Parsing.HeaderScanRows)
	}

	if s := config.Parsers.Text.DefaultSign; s != "negative" && s != "positive" {
		return fmt.Errorf("parsers.text.default_sign must be 'negative' or 'positive', got: %s", s)
	}

	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}

		if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
			return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
		}

		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}

		if config.AI.MaxRetries < 0 || config.AI.MaxRetries > 10 {
			return fmt.Errorf("ai.max_retries must be between 0 and 10, got: %d", config.AI.MaxRetries)
		}
	}

	for _, years := range config.Analysis.ForecastHorizons {
		if years < 1 {
			return fmt.Errorf("analysis.forecast_horizons must be positive, got: %d", years)
		}
	}

	return nil
}
