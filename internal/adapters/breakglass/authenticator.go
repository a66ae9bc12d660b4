// Package breakglass issues emergency admin sessions from credentials held in
// the environment. Sessions are self-contained signed tokens that never reach
// the identity provider. Only revoked token ids are shared between instances.
package breakglass

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

const (
	// UserID is the subject of every break-glass session.
	UserID = "break-glass"

	defaultTTL    = 2 * time.Hour
	defaultIssuer = "leco-break-glass"
	minKeyLen     = 32

	revocationTimeout = 2 * time.Second
)

// RevocationList shares revoked token ids with the other instances.
type RevocationList interface {
	Add(ctx context.Context, id string, until time.Time) error
	Contains(ctx context.Context, id string) (bool, error)
}

// Config holds the break-glass credentials. Enabled must be set explicitly.
type Config struct {
	Enabled    bool
	Email      string
	Password   string
	SigningKey []byte
	TTL        time.Duration
	Issuer     string
	Revoked    RevocationList // Optional: without it revocation is local to this process
	Logger     *slog.Logger
}

// Authenticator implements ports.OverrideAuthenticator with HS256 tokens.
type Authenticator struct {
	enabled  bool
	email    []byte
	password []byte
	key      []byte
	ttl      time.Duration
	issuer   string
	logger   *slog.Logger
	now      func() time.Time
	shared   RevocationList

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

type sessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// New validates cfg. A disabled config yields an Authenticator that rejects everything.
func New(cfg Config) (*Authenticator, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		issuer:  cfg.Issuer,
		logger:  logger.With("component", "break_glass"),
		now:     time.Now,
		shared:  cfg.Revoked,
		revoked: make(map[string]time.Time),
	}
	if !cfg.Enabled {
		return a, nil
	}
	email := strings.TrimSpace(cfg.Email)
	if email == "" || cfg.Password == "" {
		return nil, errors.New("break-glass: email and password are required when enabled")
	}
	if len(cfg.SigningKey) < minKeyLen {
		return nil, errors.New("break-glass: signing key must be at least 32 bytes")
	}
	a.email = []byte(strings.ToLower(email))
	a.password = []byte(cfg.Password)
	a.key = cfg.SigningKey
	if a.ttl <= 0 {
		a.ttl = defaultTTL
	}
	if a.issuer == "" {
		a.issuer = defaultIssuer
	}
	return a, nil
}

// Enabled reports whether break-glass logins are accepted.
func (a *Authenticator) Enabled() bool { return a != nil && a.enabled }

// Authenticate compares the credentials in constant time and issues a session.
func (a *Authenticator) Authenticate(identifier, secret string) (*domainauth.Session, bool) {
	if !a.Enabled() {
		return nil, false
	}
	id := []byte(strings.ToLower(strings.TrimSpace(identifier)))
	emailOK := subtle.ConstantTimeCompare(id, a.email) == 1
	passOK := subtle.ConstantTimeCompare([]byte(secret), a.password) == 1
	if !emailOK || !passOK {
		return nil, false
	}

	now := a.now()
	claims := sessionClaims{
		Email: string(a.email),
		Name:  "Acesso de emergência",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    a.issuer,
			Subject:   UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		a.logger.Error("sign break-glass token", "error", err)
		return nil, false
	}
	a.logger.Warn("break-glass session issued", "expires_at", claims.ExpiresAt.Time)
	return a.session(token, &claims), true
}

// Resolve verifies token and returns the session it encodes.
func (a *Authenticator) Resolve(token string) (*domainauth.Session, bool) {
	claims, ok := a.parse(token)
	if !ok {
		return nil, false
	}
	if a.isRevoked(claims.ID) {
		return nil, false
	}
	return a.session(token, claims), true
}

func (a *Authenticator) isRevoked(id string) bool {
	a.mu.Lock()
	_, revoked := a.revoked[id]
	a.mu.Unlock()
	if revoked || a.shared == nil {
		return revoked
	}
	ctx, cancel := context.WithTimeout(context.Background(), revocationTimeout)
	defer cancel()
	revoked, err := a.shared.Contains(ctx, id)
	if err != nil {
		// Break-glass must keep working while Redis is down.
		a.logger.Warn("break-glass revocation lookup failed", "error", err)
		return false
	}
	return revoked
}

// Revoke denylists token until it would have expired anyway.
func (a *Authenticator) Revoke(token string) {
	claims, ok := a.parse(token)
	if !ok {
		return
	}
	now := a.now()
	a.mu.Lock()
	for jti, exp := range a.revoked {
		if !now.Before(exp) {
			delete(a.revoked, jti)
		}
	}
	a.revoked[claims.ID] = claims.ExpiresAt.Time
	a.mu.Unlock()

	if a.shared != nil {
		ctx, cancel := context.WithTimeout(context.Background(), revocationTimeout)
		defer cancel()
		if err := a.shared.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			a.logger.Error("share break-glass revocation", "error", err)
		}
	}
	a.logger.Warn("break-glass session revoked")
}

func (a *Authenticator) parse(token string) (*sessionClaims, bool) {
	if !a.Enabled() || token == "" {
		return nil, false
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithSubject(UserID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.ID == "" {
		return nil, false
	}
	return &claims, true
}

func (a *Authenticator) session(token string, c *sessionClaims) *domainauth.Session {
	return &domainauth.Session{
		Token:     token,
		UserID:    UserID,
		Email:     c.Email,
		Name:      c.Name,
		Source:    domainauth.SourceStaticOverride,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}
}
