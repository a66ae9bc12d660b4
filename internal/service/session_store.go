package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

const (
	defaultSessionCacheSize = 4096
	defaultSessionCacheTTL  = 5 * time.Minute
)

// SessionSource is the part of the identity provider the store reads from.
type SessionSource interface {
	GetSession(ctx context.Context, token string) (*domainauth.Session, error)
	OnAuthStateChange(handler func(domainauth.ChangeEvent)) (unsubscribe func())
}

// SessionCacheConfig sizes the in-process session cache.
type SessionCacheConfig struct {
	Size int           // default 4096
	TTL  time.Duration // default 5m; entries also expire with the session itself
}

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	Provider SessionSource                // Required
	Override ports.OverrideAuthenticator // Optional: break-glass sessions
	Cache    SessionCacheConfig
	Logger   *slog.Logger
}

// SessionStore keeps the latest known session per token. The cache is only
// written from the provider change stream and from the initial fetch in
// Resolve; feature code never writes it directly.
type SessionStore struct {
	provider SessionSource
	override ports.OverrideAuthenticator
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	cache    *expirable.LRU[string, *domainauth.Session]
	gens     *lru.Cache[string, uint64]
	handlers map[uint64]func(domainauth.ChangeEvent)
	nextID   uint64
	unsub    func()
}

// NewSessionStore constructs a SessionStore. Call Start to subscribe to the provider.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	if opts.Provider == nil {
		panic("SessionStore requires a Provider")
	}
	size := opts.Cache.Size
	if size <= 0 {
		size = defaultSessionCacheSize
	}
	ttl := opts.Cache.TTL
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gens, err := lru.New[string, uint64](size * 2)
	if err != nil {
		panic(err)
	}
	return &SessionStore{
		provider: opts.Provider,
		override: opts.Override,
		logger:   logger.With("component", "session_store"),
		now:      time.Now,
		cache:    expirable.NewLRU[string, *domainauth.Session](size, nil, ttl),
		gens:     gens,
		handlers: make(map[uint64]func(domainauth.ChangeEvent)),
	}
}

// Start takes the single provider subscription. Calling it twice is a no-op.
func (s *SessionStore) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		return
	}
	s.unsub = s.provider.OnAuthStateChange(s.apply)
}

// Close releases the provider subscription.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// GetCurrentSession returns the cached session for token, or nil. It never
// performs I/O.
func (s *SessionStore) GetCurrentSession(token string) *domainauth.Session {
	if token == "" {
		return nil
	}
	if sess, ok := s.overrideSession(token); ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachedLocked(token)
}

// Resolve returns the session for token, fetching it from the provider on a
// cache miss. Provider failures resolve to nil.
func (s *SessionStore) Resolve(ctx context.Context, token string) *domainauth.Session {
	if token == "" {
		return nil
	}
	if sess, ok := s.overrideSession(token); ok {
		return sess
	}

	s.mu.Lock()
	if sess := s.cachedLocked(token); sess != nil {
		s.mu.Unlock()
		return sess
	}
	gen, _ := s.gens.Get(token)
	s.mu.Unlock()

	fetched, err := s.provider.GetSession(ctx, token)
	if err != nil {
		s.logger.DebugContext(ctx, "session fetch failed", "error", err)
		fetched = nil
	}
	if fetched != nil && (fetched.Token != token || fetched.Expired(s.now())) {
		fetched = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, _ := s.gens.Get(token); cur != gen {
		// A change event for this token landed while we were fetching; it is newer.
		return s.cachedLocked(token)
	}
	if fetched != nil {
		s.cache.Add(token, fetched)
	}
	return fetched
}

// OnChange registers handler for every change event the store applies and
// returns an idempotent unsubscribe function.
func (s *SessionStore) OnChange(handler func(domainauth.ChangeEvent)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// Clear drops the cached session and notifies handlers with a local sign-out.
func (s *SessionStore) Clear(token string) {
	if token == "" {
		return
	}
	s.apply(domainauth.ChangeEvent{Kind: domainauth.ChangeSignedOut, Token: token, At: s.now()})
}

func (s *SessionStore) apply(ev domainauth.ChangeEvent) {
	if ev.Token == "" {
		return
	}
	s.mu.Lock()
	gen, _ := s.gens.Get(ev.Token)
	s.gens.Add(ev.Token, gen+1)

	switch ev.Kind {
	case domainauth.ChangeSignedIn, domainauth.ChangeTokenRefreshed:
		if ev.Session != nil && !ev.Session.Expired(s.now()) {
			s.cache.Add(ev.Token, ev.Session)
		} else {
			s.cache.Remove(ev.Token)
		}
	default:
		s.cache.Remove(ev.Token)
	}

	handlers := make([]func(domainauth.ChangeEvent), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (s *SessionStore) cachedLocked(token string) *domainauth.Session {
	sess, ok := s.cache.Get(token)
	if !ok {
		return nil
	}
	if sess.Expired(s.now()) {
		s.cache.Remove(token)
		return nil
	}
	return sess
}

func (s *SessionStore) overrideSession(token string) (*domainauth.Session, bool) {
	if s.override == nil || !s.override.Enabled() {
		return nil, false
	}
	sess, ok := s.override.Resolve(token)
	if !ok || sess.Expired(s.now()) {
		return nil, false
	}
	return sess, true
}
