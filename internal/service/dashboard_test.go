package service

import (
	"context"
	"errors"
	"testing"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDashboardService_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	props := mocks.NewMockPropertyRepository(ctrl)
	users := mocks.NewMockUserMetadataRepository(ctrl)

	props.EXPECT().Stats(gomock.Any()).Return(model.PropertyStats{Total: 3, Available: 2, Sold: 1, TotalLikes: 9}, nil)
	props.EXPECT().TopLiked(gomock.Any(), model.TopLikedLimit).Return([]*model.Property{{ID: "a", Likes: 9}}, nil)
	props.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*model.Property{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil)
	users.EXPECT().CountPending(gomock.Any()).Return(2, nil)

	svc := NewDashboardService(DashboardServiceOptions{Properties: props, Users: users})
	d, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Stats.Total)
	assert.Equal(t, 9, d.Stats.TotalLikes)
	assert.Len(t, d.TopLiked, 1)
	assert.Len(t, d.Recent, 3)
	assert.Equal(t, 2, d.Pending)
}

func TestDashboardService_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	props := mocks.NewMockPropertyRepository(ctrl)

	props.EXPECT().Stats(gomock.Any()).Return(model.PropertyStats{}, errors.New("db down"))
	props.EXPECT().TopLiked(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	props.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	svc := NewDashboardService(DashboardServiceOptions{Properties: props})
	_, err := svc.Load(context.Background())
	assert.ErrorContains(t, err, "property stats")
}
