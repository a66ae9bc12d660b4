package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public URL of the site, used for OAuth redirects.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks cookies Secure. Forced off in dev mode.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LoginRatePerMinute bounds POST /login and /register per client address.
	LoginRatePerMinute int `env:"HTTP_LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst         int `env:"HTTP_LOGIN_BURST"           envDefault:"5"`

	// TrustProxy makes the rate limiter key on X-Forwarded-For.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	// GuardTimeout bounds session resolution before the checking page is shown.
	GuardTimeout time.Duration `env:"HTTP_GUARD_TIMEOUT" envDefault:"3s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.LoginRatePerMinute <= 0 {
		h.LoginRatePerMinute = 10
	}
	if h.LoginBurst <= 0 {
		h.LoginBurst = 1
	}
	if h.GuardTimeout <= 0 {
		h.GuardTimeout = 3 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}
