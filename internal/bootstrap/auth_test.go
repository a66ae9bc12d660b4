package bootstrap

import (
	"context"
	"testing"

	"github.com/marioigor1982/leco-imoveis-site-simples/config"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The stack only stores these; nothing below calls their methods.
type stubUsers struct{ core.UserMetadataRepository }

type stubAccounts struct{ core.AccountRepository }

func TestBuildAuthStack_RequiresRedisAndUsers(t *testing.T) {
	_, err := BuildAuthStack(context.Background(), AuthConfig{Users: stubUsers{}, Logger: discardLogger()})
	assert.Error(t, err)

	client, _ := testutil.SetupTestRedis(t)
	_, err = BuildAuthStack(context.Background(), AuthConfig{RedisClient: client, Logger: discardLogger()})
	assert.Error(t, err)
}

func TestBuildAuthStack_LocalProviderNeedsAccounts(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	_, err := BuildAuthStack(context.Background(), AuthConfig{
		Auth:        config.AuthConfig{Provider: config.CredentialProviderLocal},
		RedisClient: client,
		Users:       stubUsers{},
		Logger:      discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account repository")
}

func TestBuildAuthStack_DevProviderOnlyInDevMode(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	auth := config.AuthConfig{
		Provider:   config.CredentialProviderLocal,
		Model:      domainauth.ModelAllowList,
		AdminEmail: "admin@example.com",
		DevAuth:    config.DevAuthConfig{Enabled: true, UserID: "dev", Email: "dev@example.com", Name: "Dev"},
	}

	prod, err := BuildAuthStack(context.Background(), AuthConfig{
		Auth: auth, RedisClient: client, Accounts: stubAccounts{}, Users: stubUsers{}, Logger: discardLogger(),
	})
	require.NoError(t, err)
	defer prod.Close()
	assert.Empty(t, prod.Gateway.OAuthProviders())
	assert.False(t, prod.Flow.RegistrationEnabled())

	dev, err := BuildAuthStack(context.Background(), AuthConfig{
		Auth: auth, IsDev: true, KeyPrefix: "t:", RedisClient: client, Accounts: stubAccounts{}, Users: stubUsers{}, Logger: discardLogger(),
	})
	require.NoError(t, err)
	defer dev.Close()
	assert.Equal(t, []string{"dev"}, dev.Gateway.OAuthProviders())
	assert.Equal(t, "/login", dev.Guard.Routes().LoginPath)
}

func TestBuildAuthStack_KratosRejectsBadURL(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	_, err := BuildAuthStack(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Provider: config.CredentialProviderKratos,
			Kratos:   config.KratosConfig{PublicURL: "not a url"},
		},
		RedisClient: client,
		Users:       stubUsers{},
		Logger:      discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kratos")
}

func TestBuildAuthStack_BreakGlassKeyTooShort(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	_, err := BuildAuthStack(context.Background(), AuthConfig{
		Auth: config.AuthConfig{
			Provider: config.CredentialProviderLocal,
			BreakGlass: config.BreakGlassConfig{
				Enabled: true, Email: "root@example.com", Password: "pw", SigningKey: "short",
			},
		},
		RedisClient: client,
		Accounts:    stubAccounts{},
		Users:       stubUsers{},
		Logger:      discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "break-glass")
}
