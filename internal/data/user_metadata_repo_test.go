package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ core.UserMetadataRepository = (*UserMetadataRepo)(nil)
	_ core.AccountRepository      = (*AccountRepo)(nil)
)

var metadataCols = []string{"id", "user_id", "email", "is_approved", "created_at", "updated_at"}

func TestUserMetadataRepo_GetByUserID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserMetadataRepo(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM users_metadata WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(metadataCols).AddRow("m1", "u1", "ana@example.com", true, now, now))
	meta, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, meta.IsApproved)
	assert.Equal(t, "ana@example.com", meta.Email)

	mock.ExpectQuery(`FROM users_metadata WHERE user_id = \$1`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(metadataCols))
	_, err = repo.GetByUserID(context.Background(), "ghost")
	assert.True(t, errors.Is(err, domainauth.ErrMetadataNotFound))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserMetadataRepo_CreateIsIdempotent(t *testing.T) {
	mock := newMockPool(t)
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	repo := NewUserMetadataRepoWithTimeProvider(mock, NewFixedTimeProvider(now))
	earlier := now.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users_metadata .* ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), "u1", "ana@example.com", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FROM users_metadata WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(metadataCols).AddRow("m1", "u1", "ana@example.com", true, earlier, earlier))
	mock.ExpectCommit()

	meta, err := repo.Create(context.Background(), core.CreateUserMetadataRequest{UserID: " u1 ", Email: "ana@example.com "})
	require.NoError(t, err)
	assert.True(t, meta.IsApproved, "an existing approval survives re-registration")

	_, err = repo.Create(context.Background(), core.CreateUserMetadataRequest{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUserMetadataRepo_CreateRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserMetadataRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users_metadata`).
		WithArgs(pgxmock.AnyArg(), "u1", "", pgxmock.AnyArg()).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), core.CreateUserMetadataRequest{UserID: "u1"})
	assert.ErrorContains(t, err, "boom")
}

func TestUserMetadataRepo_SetApproved(t *testing.T) {
	mock := newMockPool(t)
	now := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	repo := NewUserMetadataRepoWithTimeProvider(mock, NewFixedTimeProvider(now))

	mock.ExpectQuery(`UPDATE users_metadata SET is_approved = \$2`).
		WithArgs("u1", true, now).
		WillReturnRows(pgxmock.NewRows(metadataCols).AddRow("m1", "u1", "ana@example.com", true, now, now))
	meta, err := repo.SetApproved(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.True(t, meta.IsApproved)

	mock.ExpectQuery(`UPDATE users_metadata`).
		WithArgs("ghost", false, now).
		WillReturnRows(pgxmock.NewRows(metadataCols))
	_, err = repo.SetApproved(context.Background(), "ghost", false)
	assert.True(t, errors.Is(err, domainauth.ErrMetadataNotFound))
}

func TestUserMetadataRepo_ListAndCount(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserMetadataRepo(mock)
	now := time.Now().UTC()
	pending := false

	mock.ExpectQuery(`FROM users_metadata WHERE is_approved = \$1 ORDER BY created_at DESC, id LIMIT \$2 OFFSET \$3`).
		WithArgs(false, 20, 0).
		WillReturnRows(pgxmock.NewRows(metadataCols).
			AddRow("m2", "u2", "b@example.com", false, now, now).
			AddRow("m3", "u3", "c@example.com", false, now, now))
	list, err := repo.List(context.Background(), core.UserMetadataListOptions{Approved: &pending, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	mock.ExpectQuery(`SELECT count\(\*\) FROM users_metadata WHERE NOT is_approved`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAccountRepo(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAccountRepo(mock)
	now := time.Now().UTC()
	cols := []string{"id", "email", "name", "password_hash", "created_at"}

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(pgxmock.AnyArg(), "ana@example.com", "Ana", "$2a$hash", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(cols).AddRow("a1", "ana@example.com", "Ana", "$2a$hash", now))
	acct, err := repo.Create(context.Background(), &model.Account{Email: "ana@example.com", Name: " Ana ", PasswordHash: "$2a$hash"})
	require.NoError(t, err)
	assert.Equal(t, "a1", acct.ID)

	mock.ExpectQuery(`FROM accounts WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows(cols))
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, errors.Is(err, ErrAccountNotFound))

	_, err = repo.Create(context.Background(), &model.Account{Email: "x@example.com"})
	assert.True(t, apperrors.IsValidation(err))
}
