package breakglass

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.OverrideAuthenticator = (*Authenticator)(nil)

var testKey = []byte(strings.Repeat("k", 32))

func newTestAuthenticator(t *testing.T, now time.Time) *Authenticator {
	t.Helper()
	a, err := New(Config{
		Enabled:    true,
		Email:      "Plantao@Leco.com.br",
		Password:   "senha-de-emergencia",
		SigningKey: testKey,
		TTL:        time.Hour,
	})
	require.NoError(t, err)
	a.now = func() time.Time { return now }
	return a
}

func TestNew(t *testing.T) {
	a, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, a.Enabled())
	_, ok := a.Authenticate("x", "y")
	assert.False(t, ok)

	_, err = New(Config{Enabled: true, Password: "p", SigningKey: testKey})
	assert.ErrorContains(t, err, "email and password")

	_, err = New(Config{Enabled: true, Email: "e@x.com", Password: "p", SigningKey: []byte("short")})
	assert.ErrorContains(t, err, "32 bytes")
}

func TestAuthenticator_AuthenticateAndResolve(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newTestAuthenticator(t, now)

	_, ok := a.Authenticate("plantao@leco.com.br", "errada")
	assert.False(t, ok)

	sess, ok := a.Authenticate("  plantao@leco.com.br ", "senha-de-emergencia")
	require.True(t, ok)
	assert.Equal(t, domainauth.SourceStaticOverride, sess.Source)
	assert.Equal(t, UserID, sess.UserID)
	assert.Equal(t, "plantao@leco.com.br", sess.Email)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	got, ok := a.Resolve(sess.Token)
	require.True(t, ok)
	assert.True(t, got.IsOverride())
	assert.Equal(t, sess.ExpiresAt, got.ExpiresAt)

	a.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok = a.Resolve(sess.Token)
	assert.False(t, ok, "expired tokens are rejected")
}

func TestAuthenticator_Revoke(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newTestAuthenticator(t, now)
	sess, ok := a.Authenticate("plantao@leco.com.br", "senha-de-emergencia")
	require.True(t, ok)

	a.Revoke(sess.Token)
	_, ok = a.Resolve(sess.Token)
	assert.False(t, ok)

	a.Revoke("not-a-token")
	a.Revoke(sess.Token)
}

type memoryRevocations struct {
	mu   sync.Mutex
	ids  map[string]time.Time
	fail error
}

func (m *memoryRevocations) Add(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.ids == nil {
		m.ids = make(map[string]time.Time)
	}
	m.ids[id] = until
	return nil
}

func (m *memoryRevocations) Contains(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	_, ok := m.ids[id]
	return ok, nil
}

func TestAuthenticator_RevokeIsSharedAcrossInstances(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	shared := &memoryRevocations{}
	newInstance := func() *Authenticator {
		a, err := New(Config{
			Enabled:    true,
			Email:      "plantao@leco.com.br",
			Password:   "senha-de-emergencia",
			SigningKey: testKey,
			TTL:        time.Hour,
			Revoked:    shared,
		})
		require.NoError(t, err)
		a.now = func() time.Time { return now }
		return a
	}
	first, second := newInstance(), newInstance()

	sess, ok := first.Authenticate("plantao@leco.com.br", "senha-de-emergencia")
	require.True(t, ok)
	_, ok = second.Resolve(sess.Token)
	require.True(t, ok)

	first.Revoke(sess.Token)
	_, ok = second.Resolve(sess.Token)
	assert.False(t, ok, "logout on one instance ends the session everywhere")
	assert.WithinDuration(t, sess.ExpiresAt, shared.ids[jtiOf(t, sess.Token)], 0)
}

func TestAuthenticator_SharedLookupFailureKeepsLocalState(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	shared := &memoryRevocations{fail: errors.New("redis down")}
	a, err := New(Config{
		Enabled:    true,
		Email:      "plantao@leco.com.br",
		Password:   "senha-de-emergencia",
		SigningKey: testKey,
		Revoked:    shared,
	})
	require.NoError(t, err)
	a.now = func() time.Time { return now }

	sess, ok := a.Authenticate("plantao@leco.com.br", "senha-de-emergencia")
	require.True(t, ok)
	_, ok = a.Resolve(sess.Token)
	assert.True(t, ok)

	a.Revoke(sess.Token)
	_, ok = a.Resolve(sess.Token)
	assert.False(t, ok)
}

func jtiOf(t *testing.T, token string) string {
	t.Helper()
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	return claims.ID
}

func TestAuthenticator_RejectsForeignTokens(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newTestAuthenticator(t, now)

	claims := jwt.RegisteredClaims{
		ID:        "j1",
		Issuer:    defaultIssuer,
		Subject:   UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)
	_, ok := a.Resolve(other)
	assert.False(t, ok, "wrong key")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = a.Resolve(none)
	assert.False(t, ok, "unsigned")

	noExp := claims
	noExp.ExpiresAt = nil
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString(testKey)
	require.NoError(t, err)
	_, ok = a.Resolve(tok)
	assert.False(t, ok, "expiration is required")

	_, ok = a.Resolve("")
	assert.False(t, ok)
}
