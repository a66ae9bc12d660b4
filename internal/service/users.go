package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

const userListLimit = 500

// UserApprovalServiceOptions groups dependencies for UserApprovalService.
type UserApprovalServiceOptions struct {
	Repo   core.UserMetadataRepository // Required
	Logger *slog.Logger
}

// UserApprovalService lists registered accounts and flips their approval flag.
type UserApprovalService struct {
	repo   core.UserMetadataRepository
	logger *slog.Logger
}

// NewUserApprovalService constructs a UserApprovalService.
func NewUserApprovalService(opts UserApprovalServiceOptions) *UserApprovalService {
	if opts.Repo == nil {
		panic("UserApprovalService requires a Repo")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserApprovalService{repo: opts.Repo, logger: logger.With("component", "user_approval")}
}

// UserLists splits accounts by approval state.
type UserLists struct {
	Pending  []*domainauth.UserMetadata
	Approved []*domainauth.UserMetadata
}

// Lists returns pending and approved accounts, newest first.
func (s *UserApprovalService) Lists(ctx context.Context) (*UserLists, error) {
	all, err := s.repo.List(ctx, core.UserMetadataListOptions{Limit: userListLimit})
	if err != nil {
		return nil, err
	}
	out := &UserLists{}
	for _, u := range all {
		if u.IsApproved {
			out.Approved = append(out.Approved, u)
		} else {
			out.Pending = append(out.Pending, u)
		}
	}
	return out, nil
}

// List passes filters straight to the repository.
func (s *UserApprovalService) List(ctx context.Context, opts core.UserMetadataListOptions) ([]*domainauth.UserMetadata, error) {
	return s.repo.List(ctx, opts)
}

// Approve grants admin-area access to userID.
func (s *UserApprovalService) Approve(ctx context.Context, userID, actor string) (*domainauth.UserMetadata, error) {
	return s.set(ctx, userID, true, actor)
}

// Revoke moves userID back to pending. Live sessions for userID are signed out
// by the route guard on their next request.
func (s *UserApprovalService) Revoke(ctx context.Context, userID, actor string) (*domainauth.UserMetadata, error) {
	return s.set(ctx, userID, false, actor)
}

// SetApprovedByEmail resolves email to a user id and sets the flag.
func (s *UserApprovalService) SetApprovedByEmail(ctx context.Context, email string, approved bool, actor string) (*domainauth.UserMetadata, error) {
	meta, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return s.set(ctx, meta.UserID, approved, actor)
}

func (s *UserApprovalService) set(ctx context.Context, userID string, approved bool, actor string) (*domainauth.UserMetadata, error) {
	meta, err := s.repo.SetApproved(ctx, userID, approved)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "approval changed",
		"user_id", meta.UserID, "email", meta.Email, "approved", approved, "actor", actor)
	return meta, nil
}
