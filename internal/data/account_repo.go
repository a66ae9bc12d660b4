package data

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
)

// ErrAccountNotFound is the cause attached to not-found errors from AccountRepo.
var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `id, email, name, password_hash, created_at`

// AccountRepo stores local credentials in the accounts table.
type AccountRepo struct {
	db           DB
	timeProvider TimeProvider
}

// NewAccountRepo creates an AccountRepo.
func NewAccountRepo(db DB) *AccountRepo {
	return &AccountRepo{db: db, timeProvider: RealTimeProvider{}}
}

// Create inserts acct. A duplicate email maps to a conflict error.
func (r *AccountRepo) Create(ctx context.Context, acct *model.Account) (*model.Account, error) {
	if acct == nil || acct.Email == "" || acct.PasswordHash == "" {
		return nil, apperrors.Validation("conta inválida")
	}
	id := acct.ID
	if id == "" {
		id = uuid.NewString()
	}
	rows, err := r.db.Query(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		id, acct.Email, strings.TrimSpace(acct.Name), acct.PasswordHash, r.timeProvider.Now(),
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Account])
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByEmail returns the account for an already normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Account])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrap(ErrAccountNotFound, apperrors.ErrCodeNotFound, "Conta não encontrada.")
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
