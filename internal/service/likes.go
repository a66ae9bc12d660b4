package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
)

// LikeServiceOptions groups dependencies for LikeService.
type LikeServiceOptions struct {
	Repo    core.PropertyRepository // Required
	Tracker core.LikeTracker        // Required
	Cache   *core.CatalogCache
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// LikeService toggles visitor likes and keeps the listing counter in step.
type LikeService struct {
	repo    core.PropertyRepository
	tracker core.LikeTracker
	cache   *core.CatalogCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewLikeService constructs a LikeService.
func NewLikeService(opts LikeServiceOptions) *LikeService {
	if opts.Repo == nil || opts.Tracker == nil {
		panic("LikeService requires Repo and Tracker")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LikeService{
		repo:    opts.Repo,
		tracker: opts.Tracker,
		cache:   opts.Cache,
		metrics: metrics.OrNoop(opts.Metrics),
		logger:  logger.With("component", "like_service"),
	}
}

// Toggle flips the visitor's like on a listing and returns the new count.
func (s *LikeService) Toggle(ctx context.Context, propertyID, visitorID string) (*model.LikeResult, error) {
	if _, err := s.repo.GetByID(ctx, propertyID); err != nil {
		return nil, err
	}
	liked, err := s.tracker.Toggle(ctx, propertyID, visitorID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	delta := 1
	if !liked {
		delta = -1
	}
	likes, err := s.repo.AdjustLikes(ctx, propertyID, delta)
	if err != nil {
		// Put the visitor's state back so set and counter stay consistent.
		if _, undoErr := s.tracker.Toggle(ctx, propertyID, visitorID); undoErr != nil {
			s.logger.ErrorContext(ctx, "undo like toggle failed", "property_id", propertyID, "error", undoErr)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.metrics.Like(liked)
	return &model.LikeResult{PropertyID: propertyID, Liked: liked, Likes: likes}, nil
}

// LikedBy reports which of ids the visitor has liked. Lookup failures yield an
// empty set; likes are decoration on the catalog.
func (s *LikeService) LikedBy(ctx context.Context, visitorID string, ids []string) map[string]bool {
	if visitorID == "" || len(ids) == 0 {
		return map[string]bool{}
	}
	liked, err := s.tracker.Liked(ctx, visitorID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "liked lookup failed", "error", err)
		return map[string]bool{}
	}
	return liked
}
