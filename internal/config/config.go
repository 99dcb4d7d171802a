// Package config provides application configuration loading from environment variables and .env files.
// It uses viper for flexible configuration management with sensible defaults.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables or .env file.
// Configuration priority: environment variables > .env file > defaults.
type Config struct {
	AppEnv              string        // Application environment (dev, staging, prod)
	Port                int           // HTTP port, bound on HTTPHost
	HTTPHost            string        // HTTP bind host ("0.0.0.0" = all interfaces)
	ModelPath           string        // Path to the pretrained model artifact
	ModelKind           string        // Artifact format (catboost_json)
	MetricsAddr         string        // Metrics server bind address; empty disables it
	LogLevel            string        // zerolog level
	LogFormat           string        // json or console
	LogFile             string        // Optional rotated log file
	RequestTimeout      time.Duration // Per-request deadline
	MaxBodyBytes        int64         // Maximum accepted request body
	RateLimitPerIP      int           // Prediction requests per minute per IP; 0 disables limiting
	PredictionCacheSize int           // LRU size for memoized predictions; 0 disables the cache
	StrictCategoricals  bool          // Reject unrecognized categorical values instead of encoding 0
	OTLPEndpoint        string        // OTLP/HTTP trace collector (host:port); empty disables tracing
}

// Load reads configuration from environment variables and .env file (if present).
// Environment variables take precedence over .env file values.
// Returns a Config struct with all values populated (either from env or defaults).
//
// Load does not check value constraints; call Validate before serving.
func Load() (*Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigFile(".env") // Optional; silently ignored if file doesn't exist
	viperInstance.SetConfigType("env")
	_ = viperInstance.ReadInConfig() // Ignore error - .env is optional
	viperInstance.AutomaticEnv()     // Read from environment variables

	setConfigDefaults(viperInstance)

	return &Config{
		AppEnv:              viperInstance.GetString("APP_ENV"),
		Port:                viperInstance.GetInt("PORT"),
		HTTPHost:            viperInstance.GetString("APP_HTTP_HOST"),
		ModelPath:           viperInstance.GetString("MODEL_PATH"),
		ModelKind:           viperInstance.GetString("MODEL_KIND"),
		MetricsAddr:         viperInstance.GetString("METRICS_ADDR"),
		LogLevel:            viperInstance.GetString("LOG_LEVEL"),
		LogFormat:           viperInstance.GetString("LOG_FORMAT"),
		LogFile:             viperInstance.GetString("LOG_FILE"),
		RequestTimeout:      viperInstance.GetDuration("REQUEST_TIMEOUT"),
		MaxBodyBytes:        viperInstance.GetInt64("MAX_BODY_BYTES"),
		RateLimitPerIP:      viperInstance.GetInt("RATE_LIMIT_PER_IP"),
		PredictionCacheSize: viperInstance.GetInt("PREDICTION_CACHE_SIZE"),
		StrictCategoricals:  viperInstance.GetBool("STRICT_CATEGORICALS"),
		OTLPEndpoint:        viperInstance.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

// setConfigDefaults sets default values for all configuration options.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 5000)
	v.SetDefault("APP_HTTP_HOST", "0.0.0.0")
	v.SetDefault("MODEL_PATH", "catboost_er_model.json")
	v.SetDefault("MODEL_KIND", "catboost_json")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("MAX_BODY_BYTES", 64*1024)
	v.SetDefault("RATE_LIMIT_PER_IP", 0)
	v.SetDefault("PREDICTION_CACHE_SIZE", 1024)
	v.SetDefault("STRICT_CATEGORICALS", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// HTTPAddr is the listen address of the API server.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.Port))
}

// ValidationError represents a configuration validation error with details about what failed.
type ValidationError struct {
	Field   string // Name of the configuration field
	Message string // Human-readable error message
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed [%s]: %s", e.Field, e.Message)
}

// Validate checks that the configuration can be served.
//
// Validation Rules:
//  1. PORT must be in 1..65535
//  2. MODEL_PATH must be non-empty
//  3. MODEL_KIND must be "catboost_json"
//  4. LOG_FORMAT must be "json" or "console"
//  5. REQUEST_TIMEOUT and MAX_BODY_BYTES must be positive
//  6. RATE_LIMIT_PER_IP and PREDICTION_CACHE_SIZE must not be negative
//
// Returns the first failure as a ValidationError.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ValidationError{
			Field:   "PORT",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Port),
		}
	}

	if c.ModelPath == "" {
		return ValidationError{
			Field:   "MODEL_PATH",
			Message: "model artifact path cannot be empty",
		}
	}

	if c.ModelKind != "catboost_json" {
		return ValidationError{
			Field:   "MODEL_KIND",
			Message: fmt.Sprintf("must be 'catboost_json', got '%s'", c.ModelKind),
		}
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return ValidationError{
			Field:   "LOG_FORMAT",
			Message: fmt.Sprintf("must be 'json' or 'console', got '%s'", c.LogFormat),
		}
	}

	if c.RequestTimeout <= 0 {
		return ValidationError{
			Field:   "REQUEST_TIMEOUT",
			Message: "request timeout must be positive",
		}
	}

	if c.MaxBodyBytes <= 0 {
		return ValidationError{
			Field:   "MAX_BODY_BYTES",
			Message: "maximum body size must be positive",
		}
	}

	if c.RateLimitPerIP < 0 {
		return ValidationError{
			Field:   "RATE_LIMIT_PER_IP",
			Message: "rate limit cannot be negative (0 disables it)",
		}
	}

	if c.PredictionCacheSize < 0 {
		return ValidationError{
			Field:   "PREDICTION_CACHE_SIZE",
			Message: "cache size cannot be negative (0 disables it)",
		}
	}

	return nil
}
