package core

import (
	"context"
	"io"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// PropertyRepository defines the interface for property listing data operations.
type PropertyRepository interface {
	Create(ctx context.Context, req *model.CreatePropertyRequest) (*model.Property, error)
	GetByID(ctx context.Context, id string) (*model.Property, error)
	List(ctx context.Context, opts model.PropertyListOptions) ([]*model.Property, error)
	Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error)
	Delete(ctx context.Context, id string) (bool, error)
	// AdjustLikes adds delta to the like counter (floored at zero) and returns the new value.
	AdjustLikes(ctx context.Context, id string, delta int) (int, error)
	Stats(ctx context.Context) (model.PropertyStats, error)
	TopLiked(ctx context.Context, limit int) ([]*model.Property, error)
}

// UserMetadataRepository defines the interface for approval records.
type UserMetadataRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domainauth.UserMetadata, error)
	GetByEmail(ctx context.Context, email string) (*domainauth.UserMetadata, error)
	// Create inserts a pending record; it is a no-op returning the existing row when one exists.
	Create(ctx context.Context, req CreateUserMetadataRequest) (*domainauth.UserMetadata, error)
	SetApproved(ctx context.Context, userID string, approved bool) (*domainauth.UserMetadata, error)
	List(ctx context.Context, opts UserMetadataListOptions) ([]*domainauth.UserMetadata, error)
	CountPending(ctx context.Context) (int, error)
}

// CreateUserMetadataRequest groups parameters for UserMetadataRepository.Create.
type CreateUserMetadataRequest struct {
	UserID string
	Email  string
}

// UserMetadataListOptions filters UserMetadataRepository.List. Nil Approved lists everyone.
type UserMetadataListOptions struct {
	Approved *bool
	Limit    int
	Offset   int
}

// AccountRepository stores local credential records.
type AccountRepository interface {
	Create(ctx context.Context, acct *model.Account) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}

// ObjectInfo describes a stored image.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// ImageStore persists uploaded property images.
type ImageStore interface {
	// Put stores the object and returns the public URL path it is served from.
	Put(ctx context.Context, obj ObjectInfo, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// LikeTracker remembers which visitor liked which listing.
type LikeTracker interface {
	// Toggle flips the visitor's like and reports the new state.
	Toggle(ctx context.Context, propertyID, visitorID string) (bool, error)
	Liked(ctx context.Context, visitorID string, propertyIDs []string) (map[string]bool, error)
	Forget(ctx context.Context, propertyID string) error
}
