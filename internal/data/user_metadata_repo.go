package data

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/data/pgxutil"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
)

const userMetadataColumns = `id, user_id, email, is_approved, created_at, updated_at`

// UserMetadataRepo stores approval records in users_metadata.
type UserMetadataRepo struct {
	db           DB
	timeProvider TimeProvider
}

// NewUserMetadataRepo creates a UserMetadataRepo.
func NewUserMetadataRepo(db DB) *UserMetadataRepo {
	return &UserMetadataRepo{db: db, timeProvider: RealTimeProvider{}}
}

// NewUserMetadataRepoWithTimeProvider creates a UserMetadataRepo with a custom clock (tests).
func NewUserMetadataRepoWithTimeProvider(db DB, tp TimeProvider) *UserMetadataRepo {
	return &UserMetadataRepo{db: db, timeProvider: tp}
}

func metadataNotFound() error {
	return apperrors.Wrap(domainauth.ErrMetadataNotFound, apperrors.ErrCodeNotFound, "Usuário não encontrado.")
}

// GetByUserID returns the record for userID or an error wrapping domainauth.ErrMetadataNotFound.
func (r *UserMetadataRepo) GetByUserID(ctx context.Context, userID string) (*domainauth.UserMetadata, error) {
	return r.getOne(ctx, r.db, `SELECT `+userMetadataColumns+` FROM users_metadata WHERE user_id = $1`, userID)
}

// GetByEmail looks a record up by email, ignoring case.
func (r *UserMetadataRepo) GetByEmail(ctx context.Context, email string) (*domainauth.UserMetadata, error) {
	return r.getOne(ctx, r.db,
		`SELECT `+userMetadataColumns+` FROM users_metadata WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`,
		strings.TrimSpace(email))
}

// Create inserts a pending record. An existing record for the user is
// returned unchanged, so a repeated registration never resets approval.
func (r *UserMetadataRepo) Create(ctx context.Context, req core.CreateUserMetadataRequest) (*domainauth.UserMetadata, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "Usuário inválido.")
	}
	now := r.timeProvider.Now()
	var out *domainauth.UserMetadata
	err := pgxutil.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users_metadata (id, user_id, email, is_approved, created_at, updated_at)
			VALUES ($1, $2, $3, FALSE, $4, $4)
			ON CONFLICT (user_id) DO NOTHING`,
			uuid.NewString(), userID, strings.TrimSpace(req.Email), now,
		); err != nil {
			return err
		}
		var err error
		out, err = r.getOne(ctx, tx, `SELECT `+userMetadataColumns+` FROM users_metadata WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// SetApproved flips the approval flag.
func (r *UserMetadataRepo) SetApproved(ctx context.Context, userID string, approved bool) (*domainauth.UserMetadata, error) {
	return r.getOne(ctx, r.db, `
		UPDATE users_metadata SET is_approved = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING `+userMetadataColumns,
		userID, approved, r.timeProvider.Now())
}

// List returns records newest first, optionally filtered by approval state.
func (r *UserMetadataRepo) List(ctx context.Context, opts core.UserMetadataListOptions) ([]*domainauth.UserMetadata, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPropertyLimit
	}
	var ph pgxutil.Placeholders
	query := `SELECT ` + userMetadataColumns + ` FROM users_metadata`
	if opts.Approved != nil {
		query += ` WHERE is_approved = ` + ph.Add(*opts.Approved)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ` + ph.Add(limit) + ` OFFSET ` + ph.Add(max(opts.Offset, 0))

	rows, err := r.db.Query(ctx, query, ph.Args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domainauth.UserMetadata])
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// CountPending counts records awaiting approval.
func (r *UserMetadataRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users_metadata WHERE NOT is_approved`).Scan(&n); err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return n, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *UserMetadataRepo) getOne(ctx context.Context, q querier, query string, args ...any) (*domainauth.UserMetadata, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domainauth.UserMetadata])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, metadataNotFound()
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
