package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// catalogFetchLimit bounds a full catalog read; a single agent's listing fits well inside it.
const catalogFetchLimit = 1000

// PropertyServiceOptions groups dependencies for PropertyService.
type PropertyServiceOptions struct {
	Repo   core.PropertyRepository // Required
	Cache  *core.CatalogCache      // Optional
	Images *ImageService           // Optional: removes stored images on delete
	Likes  core.LikeTracker        // Optional: forgets likes on delete
	Logger *slog.Logger
}

// PropertyService owns listing CRUD and the public catalog.
type PropertyService struct {
	repo   core.PropertyRepository
	cache  *core.CatalogCache
	images *ImageService
	likes  core.LikeTracker
	policy *bluemonday.Policy
	now    func() time.Time
	logger *slog.Logger
}

// NewPropertyService constructs a PropertyService.
func NewPropertyService(opts PropertyServiceOptions) *PropertyService {
	if opts.Repo == nil {
		panic("PropertyService requires a Repo")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PropertyService{
		repo:   opts.Repo,
		cache:  opts.Cache,
		images: opts.Images,
		likes:  opts.Likes,
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
		logger: logger.With("component", "property_service"),
	}
}

// CatalogFilter narrows the public listing.
type CatalogFilter struct {
	Type   string
	Status model.PropertyStatus
}

// Catalog returns listings newest first, filtered in memory so the cached full
// listing serves every filter combination. The type filter ignores case and accents.
func (s *PropertyService) Catalog(ctx context.Context, f CatalogFilter) ([]*model.Property, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	want := foldText(f.Type)
	out := make([]*model.Property, 0, len(all))
	for _, p := range all {
		if want != "" && foldText(p.Type) != want {
			continue
		}
		switch f.Status {
		case model.PropertyStatusAvailable:
			if p.Sold {
				continue
			}
		case model.PropertyStatusSold:
			if !p.Sold {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PropertyService) all(ctx context.Context) ([]*model.Property, error) {
	if cached := s.cache.Get(ctx); cached != nil {
		return cached, nil
	}
	props, err := s.repo.List(ctx, model.PropertyListOptions{Status: model.PropertyStatusAll, Limit: catalogFetchLimit})
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if err := s.cache.Set(ctx, props); err != nil {
		s.logger.WarnContext(ctx, "catalog cache write failed", "error", err)
	}
	return props, nil
}

// GetByID returns one listing.
func (s *PropertyService) GetByID(ctx context.Context, id string) (*model.Property, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates, sanitizes and stores a listing. A missing ref gets a
// generated "REF" code.
func (s *PropertyService) Create(ctx context.Context, req *model.CreatePropertyRequest) (*model.Property, error) {
	if req == nil {
		return nil, apperrors.Validation("dados do imóvel ausentes")
	}
	req.Details = s.sanitize(req.Details)
	req.Title = s.sanitize(req.Title)
	req.Location = s.sanitize(req.Location)
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	if req.Ref == "" {
		req.Ref = model.DefaultRef(s.now().UnixMilli())
	}
	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	s.logger.InfoContext(ctx, "property created", "property_id", p.ID, "ref", p.Ref)
	return p, nil
}

// Update applies a partial update.
func (s *PropertyService) Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error) {
	for _, f := range []*string{req.Details, req.Title, req.Location} {
		if f != nil {
			*f = s.sanitize(*f)
		}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	p, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return p, nil
}

// SetSold marks a listing sold or available.
func (s *PropertyService) SetSold(ctx context.Context, id string, sold bool) (*model.Property, error) {
	return s.Update(ctx, id, model.UpdatePropertyRequest{Sold: &sold})
}

// ToggleSold flips the sold flag.
func (s *PropertyService) ToggleSold(ctx context.Context, id string) (*model.Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetSold(ctx, id, !p.Sold)
}

// Delete removes a listing along with its stored images and like set. Image
// and like cleanup failures are logged, not returned.
func (s *PropertyService) Delete(ctx context.Context, id string) (bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.cache.Invalidate(ctx)
	if s.images != nil {
		s.images.Remove(ctx, p.Gallery())
	}
	if s.likes != nil {
		if err := s.likes.Forget(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "forget likes failed", "property_id", id, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "property deleted", "property_id", id)
	return true, nil
}

// sanitize strips markup; listings are plain text rendered by html/template.
func (s *PropertyService) sanitize(v string) string {
	if v == "" {
		return v
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// foldText lower-cases s and strips diacritics so "Chácara" matches "chacara".
func foldText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func validationError(err error) error {
	var fe *model.FieldError
	if errors.As(err, &fe) {
		return &apperrors.AppError{Code: apperrors.ErrCodeValidation, Message: fe.Message, Field: fe.Field, Cause: err}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Verifique os dados informados.")
}
