package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

// IdentityProvider is the hosted-auth contract the application consumes:
// password sign-in, sign-up, OAuth redirect/callback, session lookup,
// a change stream and sign-out.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, in PasswordSignInInput) (*domainauth.Session, error)
	SignUp(ctx context.Context, in SignUpInput) (*SignUpResult, error)
	BeginOAuth(ctx context.Context, in BeginOAuthInput) (*BeginOAuthResult, error)
	CompleteOAuth(ctx context.Context, in CompleteOAuthInput) (*domainauth.Session, error)
	GetSession(ctx context.Context, token string) (*domainauth.Session, error)
	SignOut(ctx context.Context, token string) error
	// OnAuthStateChange registers handler for session change events and
	// returns the function that removes it.
	OnAuthStateChange(handler func(domainauth.ChangeEvent)) (unsubscribe func())
}

// PasswordSignInInput is the request for SignInWithPassword.
type PasswordSignInInput struct {
	Identifier string
	Secret     string
}

// SignUpInput is the request for SignUp.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignUpResult identifies the newly created account.
type SignUpResult struct {
	UserID string
	Email  string
}

// BeginOAuthInput starts an OAuth redirect flow.
type BeginOAuthInput struct {
	Provider    string
	RedirectURL string
}

// BeginOAuthResult carries the authorization URL plus the state and nonce the
// caller must keep until the callback.
type BeginOAuthResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// CompleteOAuthInput finishes an OAuth flow.
type CompleteOAuthInput struct {
	Provider string
	Code     string
	State    string
	Nonce    string
}

// CredentialBackend verifies passwords and creates accounts. It is the part of
// the identity provider that differs between deployments (local accounts or Kratos).
type CredentialBackend interface {
	Authenticate(ctx context.Context, in PasswordSignInInput) (*CredentialResult, error)
	Register(ctx context.Context, in SignUpInput) (*SignUpResult, error)
	// Revoke ends the upstream session identified by providerToken, if any.
	Revoke(ctx context.Context, providerToken string) error
}

// CredentialResult is a verified identity plus an optional upstream session handle.
type CredentialResult struct {
	Identity      domainauth.Identity
	ProviderToken string
}

// BeginInput carries inputs for initiating an OAuth flow.
type BeginInput struct {
	RedirectURL string
}

// OAuthProvider initiates and completes an authentication flow against an IdP.
type OAuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionRepository persists and retrieves sessions by token.
type SessionRepository interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, token string) (domainauth.Session, error)
	Delete(ctx context.Context, token string) error
}

// AuthEventBus carries session change events between instances.
type AuthEventBus interface {
	Publish(ctx context.Context, ev domainauth.ChangeEvent) error
	// Listen delivers events published by other instances until ctx is done.
	Listen(ctx context.Context, handler func(domainauth.ChangeEvent)) error
}

// UserMetadataReader is the lookup the credential validator depends on.
// Implementations return domainauth.ErrMetadataNotFound when no record exists.
type UserMetadataReader interface {
	GetByUserID(ctx context.Context, userID string) (*domainauth.UserMetadata, error)
}

// OverrideAuthenticator handles break-glass credentials. Sessions it issues
// carry SourceStaticOverride and never touch the identity provider.
type OverrideAuthenticator interface {
	Enabled() bool
	Authenticate(identifier, secret string) (*domainauth.Session, bool)
	Resolve(token string) (*domainauth.Session, bool)
	// Revoke makes token unusable before it expires.
	Revoke(token string)
}

// RoleMapper derives the admin-area role for an authorized session.
type RoleMapper interface {
	Map(sess *domainauth.Session, decision domainauth.Decision) domainauth.Role
}
