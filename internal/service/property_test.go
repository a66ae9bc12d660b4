package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// memCache is a minimal core.CacheRepository for service tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok, nil
}

func (c *memCache) Health(context.Context) error { return nil }

func catalogFixture() []*model.Property {
	return []*model.Property{
		{ID: "1", Title: "Chácara em Mairiporã", Type: "Chácara", Sold: false},
		{ID: "2", Title: "Casa térrea", Type: "Casa", Sold: true},
		{ID: "3", Title: "Apartamento centro", Type: "Apartamento", Sold: false},
	}
}

func TestPropertyService_CatalogFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(catalogFixture(), nil).Times(1)

	svc := NewPropertyService(PropertyServiceOptions{
		Repo:  repo,
		Cache: core.NewCatalogCache(core.CatalogCacheOptions{Cache: newMemCache()}),
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter CatalogFilter
		want   []string
	}{
		{"everything", CatalogFilter{}, []string{"1", "2", "3"}},
		{"accent-insensitive type", CatalogFilter{Type: "chacara"}, []string{"1"}},
		{"exact type", CatalogFilter{Type: "Chácara"}, []string{"1"}},
		{"available", CatalogFilter{Status: model.PropertyStatusAvailable}, []string{"1", "3"}},
		{"sold", CatalogFilter{Status: model.PropertyStatusSold}, []string{"2"}},
		{"type and status", CatalogFilter{Type: "CASA", Status: model.PropertyStatusAvailable}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Catalog(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPropertyService_CatalogRepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	svc := NewPropertyService(PropertyServiceOptions{Repo: repo})
	_, err := svc.Catalog(context.Background(), CatalogFilter{})
	assert.Error(t, err)
}

func TestPropertyService_CreateSanitizesAndDefaultsRef(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	cache := newMemCache()
	_ = cache.Set(context.Background(), "catalog:all", []byte("[]"), 0)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreatePropertyRequest) (*model.Property, error) {
			return &model.Property{ID: "new", Title: req.Title, Details: req.Details, Ref: req.Ref}, nil
		})

	svc := NewPropertyService(PropertyServiceOptions{
		Repo:  repo,
		Cache: core.NewCatalogCache(core.CatalogCacheOptions{Cache: cache}),
	})
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_123_456) }

	p, err := svc.Create(context.Background(), &model.CreatePropertyRequest{
		Title:   "<b>Casa</b> & quintal",
		Price:   "R$ 500.000",
		Details: "3 quartos<script>alert(1)</script>",
		Images:  []string{"/media/properties/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Casa & quintal", p.Title)
	assert.Equal(t, "3 quartos", p.Details)
	assert.Equal(t, "REF123456", p.Ref)

	raw, _ := cache.Get(context.Background(), "catalog:all")
	assert.Nil(t, raw, "create must invalidate the catalog cache")
}

func TestPropertyService_CreateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	svc := NewPropertyService(PropertyServiceOptions{Repo: repo})

	_, err := svc.Create(context.Background(), &model.CreatePropertyRequest{Title: "Casa", Price: "1", Details: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "images", apperrors.GetField(err))

	_, err = svc.Create(context.Background(), nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPropertyService_ToggleSold(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)

	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(&model.Property{ID: "p1", Sold: false}, nil)
	repo.EXPECT().Update(gomock.Any(), "p1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req model.UpdatePropertyRequest) (*model.Property, error) {
			require.NotNil(t, req.Sold)
			return &model.Property{ID: "p1", Sold: *req.Sold}, nil
		})

	svc := NewPropertyService(PropertyServiceOptions{Repo: repo})
	p, err := svc.ToggleSold(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, p.Sold)
}

func TestPropertyService_DeleteCleansUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	store := mocks.NewMockImageStore(ctrl)
	likes := mocks.NewMockLikeTracker(ctrl)

	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(&model.Property{
		ID:     "p1",
		Images: []string{"/media/properties/a.jpg", "https://cdn.example.com/b.jpg"},
	}, nil)
	repo.EXPECT().Delete(gomock.Any(), "p1").Return(true, nil)
	store.EXPECT().Delete(gomock.Any(), "properties/a.jpg").Return(errors.New("gone already"))
	likes.EXPECT().Forget(gomock.Any(), "p1").Return(nil)

	svc := NewPropertyService(PropertyServiceOptions{
		Repo:   repo,
		Images: NewImageService(ImageServiceOptions{Store: store}),
		Likes:  likes,
	})
	ok, err := svc.Delete(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPropertyService_DeleteMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, apperrors.NotFound("imóvel não encontrado"))

	svc := NewPropertyService(PropertyServiceOptions{Repo: repo})
	ok, err := svc.Delete(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFoldText(t *testing.T) {
	assert.Equal(t, "chacara", foldText(" Chácara "))
	assert.Equal(t, "cobertura", foldText("COBERTURA"))
	assert.Empty(t, foldText("  "))
}
