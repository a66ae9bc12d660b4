package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/marioigor1982/leco-imoveis-site-simples/config"
)

// InitLogger initializes the structured logger. LOG_LEVEL=debug lowers the threshold.
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EnabledFeatures lists the optional sign-in paths and endpoints for startup logs.
func EnabledFeatures(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	features := []string{"credentials:" + string(cfg.Auth.Provider), "authz:" + string(cfg.Auth.Model)}
	if cfg.Auth.OAuth.Enabled() {
		features = append(features, "oauth:google")
	}
	if cfg.IsDev && cfg.Auth.DevAuth.Enabled {
		features = append(features, "oauth:dev")
	}
	if cfg.Auth.BreakGlass.Enabled {
		features = append(features, "break-glass")
	}
	if cfg.Metrics.Enabled {
		features = append(features, "metrics")
	}
	return features
}
