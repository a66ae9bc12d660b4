// Package identity assembles the application's identity provider from a
// credential backend, OAuth providers, a session repository and an optional
// cross-instance event bus.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

// ErrUnknownOAuthProvider is returned for provider names that are not configured.
var ErrUnknownOAuthProvider = errors.New("unknown oauth provider")

// GatewayOptions groups the Gateway's collaborators.
type GatewayOptions struct {
	Credentials ports.CredentialBackend        // Required
	Sessions    ports.SessionRepository        // Required
	OAuth       map[string]ports.OAuthProvider // keyed by provider name, e.g. "google"
	Events      ports.AuthEventBus             // Optional; nil keeps events in-process
	SessionTTL  time.Duration                  // default 12h
	Logger      *slog.Logger
}

// Gateway implements ports.IdentityProvider.
type Gateway struct {
	creds    ports.CredentialBackend
	sessions ports.SessionRepository
	oauth    map[string]ports.OAuthProvider
	events   ports.AuthEventBus
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	handlers map[uint64]func(domainauth.ChangeEvent)
	nextID   uint64
}

var _ ports.IdentityProvider = (*Gateway)(nil)

// NewGateway constructs a Gateway.
func NewGateway(opts GatewayOptions) *Gateway {
	if opts.Credentials == nil || opts.Sessions == nil {
		panic("identity gateway requires Credentials and Sessions")
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	oauth := make(map[string]ports.OAuthProvider, len(opts.OAuth))
	for name, p := range opts.OAuth {
		oauth[name] = p
	}
	return &Gateway{
		creds:    opts.Credentials,
		sessions: opts.Sessions,
		oauth:    oauth,
		events:   opts.Events,
		ttl:      ttl,
		logger:   logger.With("component", "identity_gateway"),
		now:      time.Now,
		handlers: make(map[uint64]func(domainauth.ChangeEvent)),
	}
}

// OAuthProviders lists the configured provider names in sorted order.
func (g *Gateway) OAuthProviders() []string {
	names := make([]string, 0, len(g.oauth))
	for name := range g.oauth {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (g *Gateway) SignInWithPassword(ctx context.Context, in ports.PasswordSignInInput) (*domainauth.Session, error) {
	res, err := g.creds.Authenticate(ctx, in)
	if err != nil {
		return nil, err
	}
	return g.issue(ctx, res.Identity, res.ProviderToken)
}

func (g *Gateway) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	return g.creds.Register(ctx, in)
}

func (g *Gateway) BeginOAuth(ctx context.Context, in ports.BeginOAuthInput) (*ports.BeginOAuthResult, error) {
	p, ok := g.oauth[in.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOAuthProvider, in.Provider)
	}
	authURL, state, nonce, err := p.Begin(ctx, ports.BeginInput{RedirectURL: in.RedirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin %s: %w", in.Provider, err)
	}
	return &ports.BeginOAuthResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

func (g *Gateway) CompleteOAuth(ctx context.Context, in ports.CompleteOAuthInput) (*domainauth.Session, error) {
	p, ok := g.oauth[in.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOAuthProvider, in.Provider)
	}
	id, err := p.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange %s: %w", in.Provider, err)
	}
	// OAuth provider tokens are not kept; the session lives for our own TTL.
	id.ExpiresAt = time.Time{}
	return g.issue(ctx, id, "")
}

func (g *Gateway) GetSession(ctx context.Context, token string) (*domainauth.Session, error) {
	sess, err := g.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domainauth.ErrProviderUnavailable, err)
	}
	return &sess, nil
}

// SignOut revokes any upstream session, deletes ours and announces the change.
// Unknown tokens are not an error.
func (g *Gateway) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sess, err := g.sessions.Get(ctx, token)
	switch {
	case err == nil:
		if revokeErr := g.creds.Revoke(ctx, sess.ProviderToken); revokeErr != nil {
			g.logger.WarnContext(ctx, "upstream revoke failed", "user_id", sess.UserID, "error", revokeErr)
		}
	case !errors.Is(err, domainauth.ErrSessionNotFound):
		return fmt.Errorf("%w: %w", domainauth.ErrProviderUnavailable, err)
	}
	if err := g.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %w", domainauth.ErrProviderUnavailable, err)
	}
	g.emit(ctx, domainauth.ChangeEvent{Kind: domainauth.ChangeSignedOut, Token: token, At: g.now()})
	return nil
}

// OnAuthStateChange registers handler for session changes on this and, when an
// event bus is configured, every other instance.
func (g *Gateway) OnAuthStateChange(handler func(domainauth.ChangeEvent)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.handlers[id] = handler
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.handlers, id)
			g.mu.Unlock()
		})
	}
}

// Run relays events from other instances to local handlers until ctx is done.
// It returns immediately when no event bus is configured.
func (g *Gateway) Run(ctx context.Context) error {
	if g.events == nil {
		return nil
	}
	return g.events.Listen(ctx, g.deliver)
}

func (g *Gateway) issue(ctx context.Context, id domainauth.Identity, providerToken string) (*domainauth.Session, error) {
	if id.UserID == "" {
		return nil, fmt.Errorf("%w: identity has no user id", domainauth.ErrProviderUnavailable)
	}
	now := g.now()
	expires := now.Add(g.ttl)
	if !id.ExpiresAt.IsZero() && id.ExpiresAt.Before(expires) {
		expires = id.ExpiresAt
	}
	sess := domainauth.Session{
		Token:         uuid.NewString(),
		UserID:        id.UserID,
		Email:         id.Email,
		Name:          id.Name,
		Source:        domainauth.SourceProviderSession,
		IssuedAt:      now,
		ExpiresAt:     expires,
		ProviderToken: providerToken,
	}
	if err := g.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: save session: %w", domainauth.ErrProviderUnavailable, err)
	}
	out := sess
	g.emit(ctx, domainauth.ChangeEvent{Kind: domainauth.ChangeSignedIn, Token: sess.Token, Session: &sess, At: now})
	return &out, nil
}

func (g *Gateway) emit(ctx context.Context, ev domainauth.ChangeEvent) {
	g.deliver(ev)
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, ev); err != nil {
		g.logger.WarnContext(ctx, "publish auth event failed", "kind", ev.Kind, "error", err)
	}
}

func (g *Gateway) deliver(ev domainauth.ChangeEvent) {
	g.mu.RLock()
	hs := make([]func(domainauth.ChangeEvent), 0, len(g.handlers))
	for _, h := range g.handlers {
		hs = append(hs, h)
	}
	g.mu.RUnlock()
	for _, h := range hs {
		h(ev)
	}
}
