package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the interview persona service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	AuthSecret    string
	AuthTokenTTL  time.Duration
	AuthDevTokens bool

	CompletionMode    string
	CompletionTimeout time.Duration
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string

	SourceResolveTimeout time.Duration
	SourceMaxBytes       int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "alterview"),
		AllowAnyOrigin:   false,
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		AuthSecret:       stringsTrimSpace("AUTH_JWT_SECRET"),
		CompletionMode:   envOrDefault("COMPLETION_MODE", "auto"),
		OpenAIAPIKey:     stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIBaseURL:    stringsTrimSpace("OPENAI_BASE_URL"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		ShutdownTimeout:      15 * time.Second,
		AuthTokenTTL:         24 * time.Hour,
		AuthDevTokens:        false,
		CompletionTimeout:    30 * time.Second,
		SourceResolveTimeout: 10 * time.Second,
		SourceMaxBytes:       256 * 1024,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AuthTokenTTL, err = durationFromEnv("AUTH_TOKEN_TTL", cfg.AuthTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AuthDevTokens, err = boolFromEnv("AUTH_DEV_TOKENS", cfg.AuthDevTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SourceResolveTimeout, err = durationFromEnv("SOURCE_RESOLVE_TIMEOUT", cfg.SourceResolveTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SourceMaxBytes, err = intFromEnv("SOURCE_MAX_BYTES", cfg.SourceMaxBytes)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if cfg.AuthTokenTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}
	switch cfg.CompletionMode {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("COMPLETION_MODE must be auto, openai or mock")
	}
	if cfg.CompletionTimeout < time.Second {
		return Config{}, fmt.Errorf("COMPLETION_TIMEOUT must be at least 1s")
	}
	if cfg.SourceResolveTimeout <= 0 {
		return Config{}, fmt.Errorf("SOURCE_RESOLVE_TIMEOUT must be positive")
	}
	if cfg.SourceMaxBytes <= 0 {
		return Config{}, fmt.Errorf("SOURCE_MAX_BYTES must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
