package redis

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	sess := domainauth.Session{
		Token:     "tok-1",
		UserID:    "user-123",
		Email:     "corretor@example.com",
		Source:    domainauth.SourceProviderSession,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Email, got.Email)
	assert.Equal(t, domainauth.SourceProviderSession, got.Source)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	ttl := srv.TTL("session:tok-1")
	assert.True(t, ttl > 29*time.Minute && ttl <= 30*time.Minute, "ttl %v", ttl)
}

func TestSessionStore_GetMissing(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{Token: "tok-del", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "tok-del"))
	assert.False(t, srv.Exists("session:tok-del"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RejectsInvalid(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, domainauth.Session{ExpiresAt: time.Now().Add(time.Hour)}))
	assert.Error(t, store.Save(ctx, domainauth.Session{Token: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
}

func TestSessionStore_ExpiresWithTTL(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{Token: "short", ExpiresAt: time.Now().Add(time.Minute)}))
	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_DropsStaleRecord(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewSessionStoreWithPrefix(client, "s:")
	ctx := context.Background()
	start := time.Now()
	store.now = func() time.Time { return start }

	require.NoError(t, store.Save(ctx, domainauth.Session{Token: "t", ExpiresAt: start.Add(time.Minute)}))
	store.now = func() time.Time { return start.Add(time.Hour) }

	_, err := store.Get(ctx, "t")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.False(t, srv.Exists("s:t"))
}
