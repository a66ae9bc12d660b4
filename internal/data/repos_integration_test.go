package data

import (
	"context"
	"testing"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyRepo_Integration(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewPropertyRepo(pool)
	ctx := context.Background()

	house, err := repo.Create(ctx, &model.CreatePropertyRequest{
		Title:   "Casa no Jardim Europa",
		Type:    "Casa",
		Price:   "R$ 450.000",
		Details: "3 quartos, 2 vagas",
		Ref:     "REF000101",
		Images:  []string{"/media/a/1.jpg", "/media/a/2.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/media/a/1.jpg", house.ImageURL)

	_, err = repo.Create(ctx, &model.CreatePropertyRequest{
		Title:   "Outro anúncio",
		Price:   "R$ 1",
		Details: "duplicado",
		Ref:     "REF000101",
		Images:  []string{"/media/b/1.jpg"},
	})
	assert.True(t, apperrors.IsConflict(err), "duplicate ref must be a conflict, got %v", err)

	flat, err := repo.Create(ctx, &model.CreatePropertyRequest{
		Title:   "Apartamento Centro",
		Type:    "Apartamento",
		Price:   "R$ 300.000",
		Details: "2 quartos",
		Ref:     "REF000102",
		Images:  []string{"/media/c/1.jpg"},
		Sold:    true,
	})
	require.NoError(t, err)

	sold, err := repo.List(ctx, model.PropertyListOptions{Status: model.PropertyStatusSold})
	require.NoError(t, err)
	require.Len(t, sold, 1)
	assert.Equal(t, flat.ID, sold[0].ID)

	likes, err := repo.AdjustLikes(ctx, house.ID, -1)
	require.NoError(t, err)
	assert.Zero(t, likes)
	likes, err = repo.AdjustLikes(ctx, house.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStats{Total: 2, Available: 1, Sold: 1, TotalLikes: 1}, stats)

	top, err := repo.TopLiked(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, house.ID, top[0].ID)

	images := []string{"/media/a/2.jpg"}
	updated, err := repo.Update(ctx, house.ID, model.UpdatePropertyRequest{Images: &images})
	require.NoError(t, err)
	assert.Equal(t, "/media/a/2.jpg", updated.ImageURL)

	deleted, err := repo.Delete(ctx, house.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = repo.GetByID(ctx, house.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserMetadataRepo_Integration(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	users := NewUserMetadataRepo(pool)
	accounts := NewAccountRepo(pool)
	ctx := context.Background()

	acct, err := accounts.Create(ctx, &model.Account{Email: "maria@example.com", Name: "Maria", PasswordHash: "hash"})
	require.NoError(t, err)
	_, err = accounts.Create(ctx, &model.Account{Email: "maria@example.com", PasswordHash: "hash"})
	assert.True(t, apperrors.IsConflict(err))

	md, err := users.Create(ctx, core.CreateUserMetadataRequest{UserID: acct.ID, Email: acct.Email})
	require.NoError(t, err)
	assert.False(t, md.IsApproved)

	pending, err := users.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	_, err = users.SetApproved(ctx, acct.ID, true)
	require.NoError(t, err)

	again, err := users.Create(ctx, core.CreateUserMetadataRequest{UserID: acct.ID, Email: acct.Email})
	require.NoError(t, err)
	assert.True(t, again.IsApproved, "re-registering must not reset approval")

	byEmail, err := users.GetByEmail(ctx, "MARIA@example.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, byEmail.UserID)
}
