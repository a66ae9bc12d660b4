package service

import (
	"context"
	"fmt"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Properties core.PropertyRepository     // Required
	Users      core.UserMetadataRepository // Optional: pending approval count
}

// DashboardService assembles the admin landing page.
type DashboardService struct {
	props core.PropertyRepository
	users core.UserMetadataRepository
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(opts DashboardServiceOptions) *DashboardService {
	return &DashboardService{props: opts.Properties, users: opts.Users}
}

// Load gathers stats, the most liked listings, the listing table and the
// pending approval count concurrently.
func (s *DashboardService) Load(ctx context.Context) (*model.Dashboard, error) {
	var d model.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.props.Stats(gctx)
		if err != nil {
			return fmt.Errorf("property stats: %w", err)
		}
		d.Stats = stats
		return nil
	})
	g.Go(func() error {
		top, err := s.props.TopLiked(gctx, model.TopLikedLimit)
		if err != nil {
			return fmt.Errorf("top liked: %w", err)
		}
		d.TopLiked = top
		return nil
	})
	g.Go(func() error {
		all, err := s.props.List(gctx, model.PropertyListOptions{Status: model.PropertyStatusAll, Limit: catalogFetchLimit})
		if err != nil {
			return fmt.Errorf("list properties: %w", err)
		}
		d.Recent = all
		return nil
	})
	if s.users != nil {
		g.Go(func() error {
			n, err := s.users.CountPending(gctx)
			if err != nil {
				return fmt.Errorf("count pending users: %w", err)
			}
			d.Pending = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
