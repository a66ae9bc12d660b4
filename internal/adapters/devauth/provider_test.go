package devauth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.OAuthProvider = (*Provider)(nil)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com", Name: "Dev"})
	require.NoError(t, err)
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	prov.now = func() time.Time { return fixed }

	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, CallbackPath, u.Path)
	assert.Equal(t, state, u.Query().Get("state"))
	code := u.Query().Get("code")
	require.NotEmpty(t, code)

	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: code, State: state, Nonce: nonce})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", id.UserID)
	assert.Equal(t, "dev@example.com", id.Email)
	assert.Equal(t, fixed.Add(8*time.Hour), id.ExpiresAt)

	_, err = prov.Exchange(context.Background(), ports.ExchangeInput{Code: code, State: state, Nonce: nonce})
	assert.ErrorContains(t, err, "unknown code", "codes are single use")
}

func TestProvider_ExchangeChecksNonce(t *testing.T) {
	prov, err := NewProvider(Config{UserID: "u", Email: "e@example.com"})
	require.NoError(t, err)
	authURL, _, _, err := prov.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	u, _ := url.Parse(authURL)

	_, err = prov.Exchange(context.Background(), ports.ExchangeInput{Code: u.Query().Get("code"), Nonce: "forged"})
	assert.ErrorContains(t, err, "invalid nonce")
}

func TestNewProvider_RequiresIdentity(t *testing.T) {
	_, err := NewProvider(Config{Email: "e@example.com"})
	assert.Error(t, err)
	_, err = NewProvider(Config{UserID: "u"})
	assert.Error(t, err)
}
