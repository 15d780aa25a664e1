package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config contains the settings controlled by environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PricingAPIEnabled turns on live price lookups against the AWS Price
	// List API. When false (or when the API fails) the static price
	// tables are used.
	PricingAPIEnabled bool          `envconfig:"PRICING_API_ENABLED" default:"false"`
	PriceCacheTTL     time.Duration `envconfig:"PRICE_CACHE_TTL" default:"24h"`

	// UseBedrock switches insight generation from static templates to the
	// Bedrock Runtime API. Failures always fall back to templates.
	UseBedrock     bool   `envconfig:"USE_BEDROCK" default:"false"`
	BedrockModelID string `envconfig:"BEDROCK_MODEL_ID" default:"anthropic.claude-3-haiku-20240307-v1:0"`
	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a valid port number, got %d", cfg.Port)
	}
	return cfg, nil
}

func (c Config) logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
