package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/util"
)

// CredentialProvider selects the password backend behind the identity gateway.
type CredentialProvider string

const (
	// CredentialProviderLocal keeps bcrypt hashes in the accounts table.
	CredentialProviderLocal CredentialProvider = "local"
	// CredentialProviderKratos delegates to an Ory Kratos instance.
	CredentialProviderKratos CredentialProvider = "kratos"
)

// UnmarshalText implements encoding.TextUnmarshaler for CredentialProvider.
func (p *CredentialProvider) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "local", "kratos":
		*p = CredentialProvider(v)
		return nil
	default:
		return fmt.Errorf("invalid AUTH_PROVIDER: %q (valid options: local, kratos)", v)
	}
}

// OAuthConfig contains Google (or any OIDC issuer) sign-in settings.
// Sign-in with Google is offered only when ClientID is set.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
	Scope        string `env:"SCOPE"         envDefault:"openid email profile"`
	Issuer       string `env:"ISSUER"        envDefault:"https://accounts.google.com"`
}

// Enabled reports whether OAuth sign-in is configured.
func (c OAuthConfig) Enabled() bool { return c.ClientID != "" }

// DevAuthConfig controls the local OAuth stand-in. Only honored in dev mode.
type DevAuthConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	UserID  string `env:"USER_ID" envDefault:"dev-user"`
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name    string `env:"NAME"    envDefault:"Corretor Dev"`
}

// KratosConfig points at the Kratos public API.
type KratosConfig struct {
	PublicURL string        `env:"PUBLIC_URL" envDefault:"http://localhost:4433"`
	Timeout   time.Duration `env:"TIMEOUT"    envDefault:"10s"`
}

// BreakGlassConfig enables an emergency administrator login.
//
// This is a standing liability: anyone holding these values has full admin
// access without the identity provider. Keep it disabled unless the provider
// is down, rotate the password and signing key after every use, and never
// commit them.
type BreakGlassConfig struct {
	Enabled    bool          `env:"ENABLED"     envDefault:"false"`
	Email      string        `env:"EMAIL"`
	Password   string        `env:"PASSWORD"`
	SigningKey string        `env:"SIGNING_KEY"`
	TTL        time.Duration `env:"TTL"         envDefault:"2h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Provider CredentialProvider `env:"AUTH_PROVIDER" envDefault:"local"`

	// Model is the single authorization rule set of this deployment.
	Model domainauth.Model `env:"AUTHZ_MODEL" envDefault:"approval"`

	// AdminEmail is always authorized and manages users.
	AdminEmail string `env:"AUTH_ADMIN_EMAIL" envDefault:"admin@dharmaimoveis.com.br"`

	// AllowedEmails is consulted only by the allowlist model. Entries are
	// normalized like session emails and then matched exactly.
	AllowedEmails []string `env:"AUTH_ALLOWED_EMAILS" envSeparator:","`

	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"12h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" envDefault:"12"`

	OAuth      OAuthConfig      `envPrefix:"OAUTH_"`
	DevAuth    DevAuthConfig    `envPrefix:"DEV_AUTH_"`
	Kratos     KratosConfig     `envPrefix:"KRATOS_"`
	BreakGlass BreakGlassConfig `envPrefix:"BREAK_GLASS_"`
}

// Sanitize normalizes the configured addresses the way sessions carry them
// and drops empty list entries.
func (a *AuthConfig) Sanitize() {
	a.AdminEmail = sanitizeEmail(a.AdminEmail)
	out := a.AllowedEmails[:0]
	for _, e := range a.AllowedEmails {
		if e = sanitizeEmail(e); e != "" {
			out = append(out, e)
		}
	}
	a.AllowedEmails = out
	if a.SessionTTL <= 0 {
		a.SessionTTL = 12 * time.Hour
	}
}

// Validate checks the auth settings that depend on each other.
func (a *AuthConfig) Validate(isDev bool) error {
	var errs []error
	if a.OAuth.Enabled() && (a.OAuth.ClientSecret == "" || a.OAuth.RedirectURL == "") {
		errs = append(errs, errors.New("OAUTH_CLIENT_SECRET and OAUTH_REDIRECT_URL are required with OAUTH_CLIENT_ID"))
	}
	if a.DevAuth.Enabled && !isDev {
		errs = append(errs, errors.New("DEV_AUTH_ENABLED requires DEV=true"))
	}
	if a.AdminEmail != "" {
		if _, err := util.NormalizeEmail(a.AdminEmail); err != nil {
			errs = append(errs, fmt.Errorf("AUTH_ADMIN_EMAIL %q: %w", a.AdminEmail, err))
		}
	}
	for _, e := range a.AllowedEmails {
		if _, err := util.NormalizeEmail(e); err != nil {
			errs = append(errs, fmt.Errorf("AUTH_ALLOWED_EMAILS entry %q: %w", e, err))
		}
	}
	if a.Model == domainauth.ModelAllowList && len(a.AllowedEmails) == 0 && a.AdminEmail == "" {
		errs = append(errs, errors.New("AUTHZ_MODEL=allowlist needs AUTH_ALLOWED_EMAILS or AUTH_ADMIN_EMAIL"))
	}
	if bg := a.BreakGlass; bg.Enabled {
		if bg.Email == "" || bg.Password == "" {
			errs = append(errs, errors.New("BREAK_GLASS_EMAIL and BREAK_GLASS_PASSWORD are required when BREAK_GLASS_ENABLED=true"))
		}
		if len(bg.SigningKey) < 32 {
			errs = append(errs, errors.New("BREAK_GLASS_SIGNING_KEY must be at least 32 bytes"))
		}
	}
	return errors.Join(errs...)
}

// sanitizeEmail returns the normalized form of e, or e trimmed when it is not
// a valid address so Validate can report it.
func sanitizeEmail(e string) string {
	e = strings.TrimSpace(e)
	if e == "" {
		return ""
	}
	if n, err := util.NormalizeEmail(e); err == nil {
		return n
	}
	return e
}
