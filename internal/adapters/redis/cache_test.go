package redis

import (
	"context"
	"testing"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.CacheRepository = (*Cache)(nil)

func TestCache_SetGetDelete(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 5*time.Minute))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 5*time.Minute, srv.TTL("k"))

	got, err = cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	deleted, err := cache.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = cache.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Error(t, cache.Set(ctx, "", nil, 0))
	assert.NoError(t, cache.Health(ctx))
}

func TestCache_BacksCatalogCache(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	catalog := core.NewCatalogCache(core.CatalogCacheOptions{Cache: NewCache(client)})
	ctx := context.Background()

	assert.Nil(t, catalog.Get(ctx))
	require.NoError(t, catalog.Set(ctx, []*model.Property{{ID: "a", Title: "Casa"}}))
	got := catalog.Get(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Casa", got[0].Title)

	catalog.Invalidate(ctx)
	assert.Nil(t, catalog.Get(ctx))
}

func TestCache_ReportsUnavailableServer(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	cache := NewCache(client)
	srv.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, cache.Health(context.Background()))
}

func TestCache_PrefixNamespacesKeys(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	cache := NewCacheWithPrefix(client, "leco:")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "catalog:all", []byte("[]"), time.Minute))
	assert.True(t, srv.Exists("leco:catalog:all"))
	assert.False(t, srv.Exists("catalog:all"))

	got, err := cache.Get(ctx, "catalog:all")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), got)
}
