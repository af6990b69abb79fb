// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	envAPIKey      = "OPENAI_API_KEY"
	envAPIKeyParam = "OPENAI_API_KEY_PARAM"
	envBaseURL     = "OPENAI_BASE_URL"
	envLogLevel    = "LOG_LEVEL"
	envPort        = "PORT"
)

type Config struct {
	// APIKeyEnv names the variable the key is read from at call time.
	APIKeyEnv   string
	// APIKeyParam, when set, makes the key come from SSM instead.
	APIKeyParam string
	BaseURL     string
	LogLevel    slog.Level
	Port        string
}

// Load reads the environment through lookup (os.LookupEnv in production).
// The API key itself is not read here.
func Load(lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		APIKeyEnv:   envAPIKey,
		APIKeyParam: get(envAPIKeyParam),
		BaseURL:     get(envBaseURL),
		Port:        get(envPort),
	}
	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	level, err := parseLevel(get(envLogLevel))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if cfg.APIKeyParam == "" && get(envAPIKey) == "" {
		return Config{}, errors.New("config: either OPENAI_API_KEY or OPENAI_API_KEY_PARAM must be set")
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", envLogLevel, s, err)
	}
	return level, nil
}
