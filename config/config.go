package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: identity provider, OAuth, break-glass and authorization model
//   - database.go: Postgres and Redis
//   - http.go: HTTP server, cookies and rate limits
//   - site.go: storage, WhatsApp contact and metrics
type AppConfig struct {
	// IsDev relaxes cookie security and allows the dev OAuth provider.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth     AuthConfig
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	HTTP     HTTPConfig
	Storage  StorageConfig `envPrefix:"STORAGE_"`
	Site     SiteConfig    `envPrefix:"SITE_"`
	Metrics  MetricsConfig `envPrefix:"METRICS_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()
	c.HTTP.Sanitize()
	c.Auth.Sanitize()
	c.Site.Sanitize()
	c.Storage.Sanitize()
	if c.IsDev {
		c.HTTP.CookieSecure = false
	}
}

// Validate reports cross-field problems that make the configuration unusable.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.Dir == "" {
		errs = append(errs, errors.New("STORAGE_DIR is required"))
	}
	if c.Site.WhatsAppNumber == "" {
		errs = append(errs, errors.New("SITE_WHATSAPP_NUMBER must contain digits"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
