package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/data/pgxutil"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
)

// ErrPropertyNotFound is the cause attached to not-found errors from PropertyRepo.
var ErrPropertyNotFound = errors.New("property not found")

const propertyColumns = `id, title, location, type, price, details, ref, image_url, images, sold, likes, created_at, updated_at`

const defaultPropertyLimit = 50

// PropertyRepo stores listings in the properties table.
type PropertyRepo struct {
	db           DB
	timeProvider TimeProvider
}

// NewPropertyRepo creates a PropertyRepo.
func NewPropertyRepo(db DB) *PropertyRepo {
	return &PropertyRepo{db: db, timeProvider: RealTimeProvider{}}
}

// NewPropertyRepoWithTimeProvider creates a PropertyRepo with a custom clock (tests).
func NewPropertyRepoWithTimeProvider(db DB, tp TimeProvider) *PropertyRepo {
	return &PropertyRepo{db: db, timeProvider: tp}
}

func propertyNotFound() error {
	return apperrors.Wrap(ErrPropertyNotFound, apperrors.ErrCodeNotFound, "Imóvel não encontrado.")
}

// Create inserts a listing. The first image becomes the cover.
func (r *PropertyRepo) Create(ctx context.Context, req *model.CreatePropertyRequest) (*model.Property, error) {
	if req == nil {
		return nil, errors.New("create property request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now()
	images := append([]string(nil), req.Images...)

	rows, err := r.db.Query(ctx, `
		INSERT INTO properties (
			id, title, location, type, price, details, ref, image_url, images, sold, likes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $11
		) RETURNING `+propertyColumns,
		uuid.NewString(),
		req.Title,
		req.Location,
		req.Type,
		req.Price,
		req.Details,
		req.Ref,
		coverOf(images),
		images,
		req.Sold,
		now,
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Property])
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID returns one listing. Malformed ids are reported as not found.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*model.Property, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, propertyNotFound()
	}
	rows, err := r.db.Query(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Property])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, propertyNotFound()
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// List returns listings newest first. Type matches exactly; the service layer
// handles accent-insensitive filtering.
func (r *PropertyRepo) List(ctx context.Context, opts model.PropertyListOptions) ([]*model.Property, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPropertyLimit
	}
	offset := max(opts.Offset, 0)

	var (
		ph    pgxutil.Placeholders
		where []string
	)
	if t := strings.TrimSpace(opts.Type); t != "" {
		where = append(where, "type = "+ph.Add(t))
	}
	switch opts.Status {
	case model.PropertyStatusAvailable:
		where = append(where, "NOT sold")
	case model.PropertyStatusSold:
		where = append(where, "sold")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + propertyColumns + ` FROM properties`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id")
	sb.WriteString(" LIMIT " + ph.Add(limit) + " OFFSET " + ph.Add(offset))

	rows, err := r.db.Query(ctx, sb.String(), ph.Args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Property])
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Update applies the non-nil fields of req. Replacing images also resets the cover.
func (r *PropertyRepo) Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, propertyNotFound()
	}

	var (
		ph   pgxutil.Placeholders
		sets []string
	)
	idArg := ph.Add(id)
	set := func(col string, v any) { sets = append(sets, col+" = "+ph.Add(v)) }
	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Location != nil {
		set("location", strings.TrimSpace(*req.Location))
	}
	if req.Type != nil {
		set("type", strings.TrimSpace(*req.Type))
	}
	if req.Price != nil {
		set("price", strings.TrimSpace(*req.Price))
	}
	if req.Details != nil {
		set("details", *req.Details)
	}
	if req.Ref != nil {
		set("ref", strings.TrimSpace(*req.Ref))
	}
	if req.Images != nil {
		images := append([]string{}, (*req.Images)...)
		set("images", images)
		set("image_url", coverOf(images))
	}
	if req.Sold != nil {
		set("sold", *req.Sold)
	}
	set("updated_at", r.timeProvider.Now())

	query := `UPDATE properties SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + idArg + ` RETURNING ` + propertyColumns
	rows, err := r.db.Query(ctx, query, ph.Args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Property])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, propertyNotFound()
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// Delete removes a listing and reports whether it existed.
func (r *PropertyRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// AdjustLikes adds delta to the counter, never going below zero.
func (r *PropertyRepo) AdjustLikes(ctx context.Context, id string, delta int) (int, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, propertyNotFound()
	}
	var likes int
	err := r.db.QueryRow(ctx,
		`UPDATE properties SET likes = GREATEST(likes + $2, 0) WHERE id = $1 RETURNING likes`,
		id, delta,
	).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, propertyNotFound()
	}
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return likes, nil
}

// Stats counts listings by sold flag and sums likes.
func (r *PropertyRepo) Stats(ctx context.Context) (model.PropertyStats, error) {
	var s model.PropertyStats
	err := r.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE NOT sold),
			count(*) FILTER (WHERE sold),
			COALESCE(sum(likes), 0)
		FROM properties`,
	).Scan(&s.Total, &s.Available, &s.Sold, &s.TotalLikes)
	if err != nil {
		return model.PropertyStats{}, apperrors.MapDBError(err)
	}
	return s, nil
}

// TopLiked returns the most liked listings, ties broken by recency.
func (r *PropertyRepo) TopLiked(ctx context.Context, limit int) ([]*model.Property, error) {
	if limit <= 0 {
		limit = model.TopLikedLimit
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties ORDER BY likes DESC, created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Property])
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

func coverOf(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}
