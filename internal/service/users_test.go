package service

import (
	"context"
	"testing"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestUserApprovalService_Lists(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserMetadataRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*domainauth.UserMetadata{
		{UserID: "a", IsApproved: true},
		{UserID: "b"},
		{UserID: "c"},
	}, nil)

	svc := NewUserApprovalService(UserApprovalServiceOptions{Repo: repo})
	lists, err := svc.Lists(context.Background())
	require.NoError(t, err)
	assert.Len(t, lists.Approved, 1)
	assert.Len(t, lists.Pending, 2)
}

func TestUserApprovalService_ApproveRevoke(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserMetadataRepository(ctrl)
	svc := NewUserApprovalService(UserApprovalServiceOptions{Repo: repo})
	ctx := context.Background()

	repo.EXPECT().SetApproved(gomock.Any(), "u1", true).Return(&domainauth.UserMetadata{UserID: "u1", IsApproved: true}, nil)
	meta, err := svc.Approve(ctx, "u1", "admin@example.com")
	require.NoError(t, err)
	assert.True(t, meta.IsApproved)

	repo.EXPECT().SetApproved(gomock.Any(), "u1", false).Return(&domainauth.UserMetadata{UserID: "u1"}, nil)
	meta, err = svc.Revoke(ctx, "u1", "admin@example.com")
	require.NoError(t, err)
	assert.False(t, meta.IsApproved)
}

func TestUserApprovalService_SetApprovedByEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUserMetadataRepository(ctrl)
	svc := NewUserApprovalService(UserApprovalServiceOptions{Repo: repo})
	ctx := context.Background()

	repo.EXPECT().GetByEmail(gomock.Any(), "maria@example.com").Return(&domainauth.UserMetadata{UserID: "u9", Email: "maria@example.com"}, nil)
	repo.EXPECT().SetApproved(gomock.Any(), "u9", true).Return(&domainauth.UserMetadata{UserID: "u9", IsApproved: true}, nil)
	_, err := svc.SetApprovedByEmail(ctx, " maria@example.com ", true, "cli")
	require.NoError(t, err)

	repo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, apperrors.NotFound("usuário não encontrado"))
	_, err = svc.SetApprovedByEmail(ctx, "ghost@example.com", true, "cli")
	assert.True(t, apperrors.IsNotFound(err))
}
