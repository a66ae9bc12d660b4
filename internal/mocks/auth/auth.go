package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider      = (*FakeIdentityProvider)(nil)
	_ ports.OAuthProvider         = (*MockOAuthProvider)(nil)
	_ ports.SessionRepository     = (*MemorySessionRepository)(nil)
	_ ports.UserMetadataReader    = (*MemoryMetadata)(nil)
	_ ports.OverrideAuthenticator = (*StaticOverride)(nil)
)

// Account is a credential known to FakeIdentityProvider.
type Account struct {
	UserID   string
	Email    string
	Name     string
	Password string
}

// FakeIdentityProvider is an in-memory identity provider. It keeps accounts and
// sessions in maps and emits change events synchronously, like the real gateway.
// Any *Func field overrides the default behavior of its method.
type FakeIdentityProvider struct {
	SignInFunc     func(ctx context.Context, in ports.PasswordSignInInput) (*domainauth.Session, error)
	SignUpFunc     func(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error)
	BeginFunc      func(ctx context.Context, in ports.BeginOAuthInput) (*ports.BeginOAuthResult, error)
	CompleteFunc   func(ctx context.Context, in ports.CompleteOAuthInput) (*domainauth.Session, error)
	GetSessionFunc func(ctx context.Context, token string) (*domainauth.Session, error)
	SignOutFunc    func(ctx context.Context, token string) error

	// OAuthIdentity is returned by the default CompleteOAuth.
	OAuthIdentity Account

	// SessionTTL is applied to new sessions (default 1h).
	SessionTTL time.Duration

	SignInCalls  atomic.Int32
	SignOutCalls atomic.Int32

	mu       sync.Mutex
	accounts map[string]Account
	sessions map[string]*domainauth.Session
	handlers map[int]func(domainauth.ChangeEvent)
	nextID   int
	seq      int
}

// NewFakeIdentityProvider creates a provider seeded with accounts.
func NewFakeIdentityProvider(accounts ...Account) *FakeIdentityProvider {
	p := &FakeIdentityProvider{
		accounts: make(map[string]Account),
		sessions: make(map[string]*domainauth.Session),
		handlers: make(map[int]func(domainauth.ChangeEvent)),
		OAuthIdentity: Account{
			UserID: "oauth-user-1",
			Email:  "oauth.user@example.com",
			Name:   "OAuth User",
		},
	}
	for _, a := range accounts {
		p.accounts[a.Email] = a
	}
	return p
}

func (p *FakeIdentityProvider) SignInWithPassword(ctx context.Context, in ports.PasswordSignInInput) (*domainauth.Session, error) {
	p.SignInCalls.Add(1)
	if p.SignInFunc != nil {
		return p.SignInFunc(ctx, in)
	}
	p.mu.Lock()
	acct, ok := p.accounts[in.Identifier]
	p.mu.Unlock()
	if !ok || acct.Password != in.Secret {
		return nil, domainauth.ErrInvalidCredentials
	}
	return p.Issue(acct), nil
}

func (p *FakeIdentityProvider) SignUp(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	if p.SignUpFunc != nil {
		return p.SignUpFunc(ctx, in)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[in.Email]; exists {
		return nil, domainauth.ErrAccountExists
	}
	p.seq++
	acct := Account{UserID: fmt.Sprintf("user-%d", p.seq), Email: in.Email, Name: in.Name, Password: in.Password}
	p.accounts[in.Email] = acct
	return &ports.SignUpResult{UserID: acct.UserID, Email: acct.Email}, nil
}

func (p *FakeIdentityProvider) BeginOAuth(ctx context.Context, in ports.BeginOAuthInput) (*ports.BeginOAuthResult, error) {
	if p.BeginFunc != nil {
		return p.BeginFunc(ctx, in)
	}
	return &ports.BeginOAuthResult{
		AuthURL: "https://idp.example/authorize?provider=" + in.Provider,
		State:   "state-1",
		Nonce:   "nonce-1",
	}, nil
}

func (p *FakeIdentityProvider) CompleteOAuth(ctx context.Context, in ports.CompleteOAuthInput) (*domainauth.Session, error) {
	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, in)
	}
	if in.Code == "" {
		return nil, errors.New("missing code")
	}
	return p.Issue(p.OAuthIdentity), nil
}

func (p *FakeIdentityProvider) GetSession(ctx context.Context, token string) (*domainauth.Session, error) {
	if p.GetSessionFunc != nil {
		return p.GetSessionFunc(ctx, token)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (p *FakeIdentityProvider) SignOut(ctx context.Context, token string) error {
	p.SignOutCalls.Add(1)
	if p.SignOutFunc != nil {
		return p.SignOutFunc(ctx, token)
	}
	p.mu.Lock()
	delete(p.sessions, token)
	p.mu.Unlock()
	p.Emit(domainauth.ChangeEvent{Kind: domainauth.ChangeSignedOut, Token: token, At: time.Now()})
	return nil
}

func (p *FakeIdentityProvider) OnAuthStateChange(handler func(domainauth.ChangeEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

// Issue creates a session for acct, stores it and emits signed_in.
func (p *FakeIdentityProvider) Issue(acct Account) *domainauth.Session {
	ttl := p.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	p.mu.Lock()
	p.seq++
	sess := &domainauth.Session{
		Token:     fmt.Sprintf("tok-%d", p.seq),
		UserID:    acct.UserID,
		Email:     acct.Email,
		Name:      acct.Name,
		Source:    domainauth.SourceProviderSession,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	p.sessions[sess.Token] = sess
	p.mu.Unlock()
	p.Emit(domainauth.ChangeEvent{Kind: domainauth.ChangeSignedIn, Token: sess.Token, Session: sess, At: now})
	return sess
}

// Emit delivers ev to every subscriber.
func (p *FakeIdentityProvider) Emit(ev domainauth.ChangeEvent) {
	p.mu.Lock()
	hs := make([]func(domainauth.ChangeEvent), 0, len(p.handlers))
	for _, h := range p.handlers {
		hs = append(hs, h)
	}
	p.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

// Subscribers returns the number of live change subscriptions.
func (p *FakeIdentityProvider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// ActiveSessions returns the number of sessions the provider still holds.
func (p *FakeIdentityProvider) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// MockOAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockOAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	callCount atomic.Int32
}

// NewMockOAuthProvider creates a MockOAuthProvider with sensible defaults.
func NewMockOAuthProvider() *MockOAuthProvider {
	return &MockOAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID: "google-sub-1",
			Email:  "corretor@example.com",
			Name:   "Corretor Teste",
		},
	}
}

func (m *MockOAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	n := m.callCount.Add(1)
	return m.AuthURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionRepository is an in-memory session repository for unit tests.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionRepository creates an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionRepository) Save(_ context.Context, sess domainauth.Session) error {
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionRepository) Get(_ context.Context, token string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionRepository) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// MemoryMetadata is a UserMetadataReader backed by a map keyed by user id.
// Err, when set, is returned from every lookup.
type MemoryMetadata struct {
	mu      sync.Mutex
	records map[string]*domainauth.UserMetadata
	Err     error
	Calls   atomic.Int32
}

// NewMemoryMetadata creates an empty reader.
func NewMemoryMetadata() *MemoryMetadata {
	return &MemoryMetadata{records: make(map[string]*domainauth.UserMetadata)}
}

// Put stores or replaces a record.
func (m *MemoryMetadata) Put(userID, email string, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = &domainauth.UserMetadata{ID: "meta-" + userID, UserID: userID, Email: email, IsApproved: approved}
}

func (m *MemoryMetadata) GetByUserID(_ context.Context, userID string) (*domainauth.UserMetadata, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, domainauth.ErrMetadataNotFound
	}
	cp := *rec
	return &cp, nil
}

// Create stores a pending record unless one exists, mirroring the repository.
func (m *MemoryMetadata) Create(_ context.Context, req core.CreateUserMetadataRequest) (*domainauth.UserMetadata, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[req.UserID]; ok {
		cp := *rec
		return &cp, nil
	}
	rec := &domainauth.UserMetadata{ID: "meta-" + req.UserID, UserID: req.UserID, Email: req.Email}
	m.records[req.UserID] = rec
	cp := *rec
	return &cp, nil
}

// StaticOverride is a break-glass authenticator with a fixed credential pair.
type StaticOverride struct {
	On       bool
	User     string
	Password string
	issued   sync.Map
}

func (s *StaticOverride) Enabled() bool { return s.On }

func (s *StaticOverride) Authenticate(identifier, secret string) (*domainauth.Session, bool) {
	if !s.On || identifier != s.User || secret != s.Password {
		return nil, false
	}
	now := time.Now()
	sess := &domainauth.Session{
		Token:     "override-" + identifier,
		UserID:    "override:" + identifier,
		Email:     identifier,
		Name:      identifier,
		Source:    domainauth.SourceStaticOverride,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	s.issued.Store(sess.Token, sess)
	return sess, true
}

func (s *StaticOverride) Resolve(token string) (*domainauth.Session, bool) {
	if !s.On {
		return nil, false
	}
	v, ok := s.issued.Load(token)
	if !ok {
		return nil, false
	}
	return v.(*domainauth.Session), true
}

func (s *StaticOverride) Revoke(token string) { s.issued.Delete(token) }
