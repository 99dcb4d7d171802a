package config

import (
	"os"
	"testing"
	"time"
)

var allKeys = []string{
	"APP_ENV", "PORT", "APP_HTTP_HOST", "MODEL_PATH", "MODEL_KIND", "METRICS_ADDR",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "REQUEST_TIMEOUT", "MAX_BODY_BYTES",
	"RATE_LIMIT_PER_IP", "PREDICTION_CACHE_SIZE", "STRICT_CATEGORICALS",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// t.Setenv restores the original value after the test
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv='dev', got '%s'", cfg.AppEnv)
	}
	if cfg.Port != 5000 {
		t.Errorf("Expected Port=5000, got %d", cfg.Port)
	}
	if cfg.HTTPAddr() != "0.0.0.0:5000" {
		t.Errorf("Expected HTTPAddr()='0.0.0.0:5000', got '%s'", cfg.HTTPAddr())
	}
	if cfg.ModelPath != "catboost_er_model.json" {
		t.Errorf("Expected default ModelPath, got '%s'", cfg.ModelPath)
	}
	if cfg.ModelKind != "catboost_json" {
		t.Errorf("Expected ModelKind='catboost_json', got '%s'", cfg.ModelKind)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("Expected MetricsAddr=':9090', got '%s'", cfg.MetricsAddr)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected RequestTimeout=5s, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBodyBytes != 64*1024 {
		t.Errorf("Expected MaxBodyBytes=65536, got %d", cfg.MaxBodyBytes)
	}
	if cfg.RateLimitPerIP != 0 {
		t.Errorf("Expected RateLimitPerIP=0, got %d", cfg.RateLimitPerIP)
	}
	if cfg.PredictionCacheSize != 1024 {
		t.Errorf("Expected PredictionCacheSize=1024, got %d", cfg.PredictionCacheSize)
	}
	if cfg.StrictCategoricals {
		t.Error("Expected StrictCategoricals=false")
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("Expected tracing disabled, got endpoint '%s'", cfg.OTLPEndpoint)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("APP_HTTP_HOST", "127.0.0.1")
	t.Setenv("MODEL_PATH", "/models/er.json")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("REQUEST_TIMEOUT", "250ms")
	t.Setenv("RATE_LIMIT_PER_IP", "30")
	t.Setenv("PREDICTION_CACHE_SIZE", "0")
	t.Setenv("STRICT_CATEGORICALS", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTPAddr() != "127.0.0.1:8081" {
		t.Errorf("Expected HTTPAddr()='127.0.0.1:8081', got '%s'", cfg.HTTPAddr())
	}
	if cfg.ModelPath != "/models/er.json" {
		t.Errorf("Expected ModelPath override, got '%s'", cfg.ModelPath)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("Expected LogFormat='console', got '%s'", cfg.LogFormat)
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Errorf("Expected RequestTimeout=250ms, got %v", cfg.RequestTimeout)
	}
	if cfg.RateLimitPerIP != 30 {
		t.Errorf("Expected RateLimitPerIP=30, got %d", cfg.RateLimitPerIP)
	}
	if cfg.PredictionCacheSize != 0 {
		t.Errorf("Expected PredictionCacheSize=0, got %d", cfg.PredictionCacheSize)
	}
	if !cfg.StrictCategoricals {
		t.Error("Expected StrictCategoricals=true")
	}
	if cfg.OTLPEndpoint != "collector:4318" {
		t.Errorf("Expected OTLPEndpoint override, got '%s'", cfg.OTLPEndpoint)
	}
}

func validConfig() *Config {
	return &Config{
		Port:                5000,
		HTTPHost:            "0.0.0.0",
		ModelPath:           "model.json",
		ModelKind:           "catboost_json",
		LogFormat:           "json",
		RequestTimeout:      time.Second,
		MaxBodyBytes:        1024,
		PredictionCacheSize: 10,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Port = 0 }, "PORT"},
		{"port too large", func(c *Config) { c.Port = 70000 }, "PORT"},
		{"empty model path", func(c *Config) { c.ModelPath = "" }, "MODEL_PATH"},
		{"unknown model kind", func(c *Config) { c.ModelKind = "onnx" }, "MODEL_KIND"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"zero body limit", func(c *Config) { c.MaxBodyBytes = 0 }, "MAX_BODY_BYTES"},
		{"negative rate limit", func(c *Config) { c.RateLimitPerIP = -1 }, "RATE_LIMIT_PER_IP"},
		{"negative cache", func(c *Config) { c.PredictionCacheSize = -1 }, "PREDICTION_CACHE_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}

			verr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("Expected ValidationError, got %T (%v)", err, err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Expected field '%s', got '%s'", tt.wantField, verr.Field)
			}
		})
	}
}
