// Package mocks provides gomock-generated doubles for the repository ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockPropertyRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), "p1").Return(prop, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=property_repository_mock.go github.com/marioigor1982/leco-imoveis-site-simples/internal/core PropertyRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_metadata_repository_mock.go github.com/marioigor1982/leco-imoveis-site-simples/internal/core UserMetadataRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=image_store_mock.go github.com/marioigor1982/leco-imoveis-site-simples/internal/core ImageStore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=like_tracker_mock.go github.com/marioigor1982/leco-imoveis-site-simples/internal/core LikeTracker
