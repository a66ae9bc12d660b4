package devauth

// Package devauth provides a config-driven OAuth provider for local development.

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

// CallbackPath is where Begin sends the browser; it must match the route the
// OAuth callback handler is mounted on.
const CallbackPath = "/auth-callback"

// Config controls the dev provider. UserID and Email are required.
type Config struct {
	UserID          string
	Email           string
	Name            string
	SessionDuration time.Duration // default 8h when zero
}

// Provider short-circuits the OAuth redirect by sending the browser straight
// back to our own callback. Exchange returns the configured identity for the
// code it handed out.
type Provider struct {
	identity        domainauth.Identity
	sessionDuration time.Duration

	mu    sync.Mutex
	codes map[string]string // code -> nonce
	now   func() time.Time
}

// NewProvider constructs a dev provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		identity:        domainauth.Identity{UserID: cfg.UserID, Email: cfg.Email, Name: cfg.Name},
		sessionDuration: dur,
		codes:           make(map[string]string),
		now:             time.Now,
	}, nil
}

// Begin returns a local callback URL carrying a one-time code and the state.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state := uuid.NewString()
	nonce := uuid.NewString()
	code := uuid.NewString()

	p.mu.Lock()
	p.codes[code] = nonce
	p.mu.Unlock()

	q := url.Values{"code": {code}, "state": {state}}
	return CallbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange redeems a code from Begin. Codes are single use and bound to the nonce.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	nonce, ok := p.codes[in.Code]
	delete(p.codes, in.Code)
	p.mu.Unlock()

	if !ok {
		return domainauth.Identity{}, errors.New("dev auth: unknown code")
	}
	if nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("dev auth: invalid nonce")
	}
	id := p.identity
	id.ExpiresAt = p.now().Add(p.sessionDuration)
	return id, nil
}
