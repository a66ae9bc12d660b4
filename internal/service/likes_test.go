package service

import (
	"context"
	"errors"
	"testing"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLikeService_Toggle(t *testing.T) {
	tests := []struct {
		name      string
		liked     bool
		wantDelta int
		newCount  int
	}{
		{"like", true, 1, 4},
		{"unlike", false, -1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockPropertyRepository(ctrl)
			tracker := mocks.NewMockLikeTracker(ctrl)

			repo.EXPECT().GetByID(gomock.Any(), "p1").Return(&model.Property{ID: "p1", Likes: 3}, nil)
			tracker.EXPECT().Toggle(gomock.Any(), "p1", "visitor").Return(tt.liked, nil)
			repo.EXPECT().AdjustLikes(gomock.Any(), "p1", tt.wantDelta).Return(tt.newCount, nil)

			svc := NewLikeService(LikeServiceOptions{Repo: repo, Tracker: tracker})
			res, err := svc.Toggle(context.Background(), "p1", "visitor")
			require.NoError(t, err)
			assert.Equal(t, tt.liked, res.Liked)
			assert.Equal(t, tt.newCount, res.Likes)
		})
	}
}

func TestLikeService_ToggleUndoesOnCounterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	tracker := mocks.NewMockLikeTracker(ctrl)

	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(&model.Property{ID: "p1"}, nil)
	gomock.InOrder(
		tracker.EXPECT().Toggle(gomock.Any(), "p1", "v").Return(true, nil),
		tracker.EXPECT().Toggle(gomock.Any(), "p1", "v").Return(false, nil),
	)
	repo.EXPECT().AdjustLikes(gomock.Any(), "p1", 1).Return(0, errors.New("db down"))

	svc := NewLikeService(LikeServiceOptions{Repo: repo, Tracker: tracker})
	_, err := svc.Toggle(context.Background(), "p1", "v")
	assert.Error(t, err)
}

func TestLikeService_ToggleUnknownProperty(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	tracker := mocks.NewMockLikeTracker(ctrl)
	repo.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, apperrors.NotFound("imóvel não encontrado"))

	svc := NewLikeService(LikeServiceOptions{Repo: repo, Tracker: tracker})
	_, err := svc.Toggle(context.Background(), "nope", "v")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLikeService_LikedBy(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPropertyRepository(ctrl)
	tracker := mocks.NewMockLikeTracker(ctrl)
	svc := NewLikeService(LikeServiceOptions{Repo: repo, Tracker: tracker})

	tracker.EXPECT().Liked(gomock.Any(), "v", []string{"a", "b"}).Return(map[string]bool{"a": true}, nil)
	assert.Equal(t, map[string]bool{"a": true}, svc.LikedBy(context.Background(), "v", []string{"a", "b"}))

	tracker.EXPECT().Liked(gomock.Any(), "v", []string{"a"}).Return(nil, errors.New("redis down"))
	assert.Empty(t, svc.LikedBy(context.Background(), "v", []string{"a"}))

	assert.Empty(t, svc.LikedBy(context.Background(), "", []string{"a"}))
}
