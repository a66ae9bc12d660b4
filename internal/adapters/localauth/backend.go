// Package localauth verifies passwords against the accounts table. It is the
// credential backend used when no hosted identity provider is configured.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/util"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a Backend.
type Options struct {
	Accounts core.AccountRepository // Required
	// Cost is the bcrypt cost for new hashes; defaults to bcrypt.DefaultCost.
	Cost   int
	Logger *slog.Logger
}

// Backend implements ports.CredentialBackend with bcrypt hashes.
type Backend struct {
	accounts  core.AccountRepository
	cost      int
	dummyHash []byte
	logger    *slog.Logger
}

var _ ports.CredentialBackend = (*Backend)(nil)

// New constructs a Backend.
func New(opts Options) *Backend {
	if opts.Accounts == nil {
		panic("localauth requires an AccountRepository")
	}
	cost := opts.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Compared against when the account does not exist so unknown emails
	// take as long as wrong passwords.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("localauth: bcrypt cost %d: %v", cost, err))
	}
	return &Backend{accounts: opts.Accounts, cost: cost, dummyHash: dummy, logger: logger.With("component", "localauth")}
}

// Authenticate checks the password for the account named by in.Identifier.
func (b *Backend) Authenticate(ctx context.Context, in ports.PasswordSignInInput) (*ports.CredentialResult, error) {
	email, err := util.NormalizeEmail(in.Identifier)
	if err != nil {
		return nil, domainauth.ErrInvalidCredentials
	}
	acct, err := b.accounts.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(b.dummyHash, []byte(in.Secret))
			return nil, domainauth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: load account: %w", domainauth.ErrProviderUnavailable, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(in.Secret)); err != nil {
		return nil, domainauth.ErrInvalidCredentials
	}
	return &ports.CredentialResult{
		Identity: domainauth.Identity{UserID: acct.ID, Email: acct.Email, Name: acct.Name},
	}, nil
}

// Register stores a new account with a bcrypt hash of the password.
func (b *Backend) Register(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	email, err := util.NormalizeEmail(in.Email)
	if err != nil {
		return nil, &domainauth.RejectionError{Field: "email", Message: "Informe um e-mail válido."}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &domainauth.RejectionError{Field: "password", Message: "A senha pode ter no máximo 72 bytes."}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct, err := b.accounts.Create(ctx, &model.Account{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, domainauth.ErrAccountExists
		}
		return nil, fmt.Errorf("%w: create account: %w", domainauth.ErrProviderUnavailable, err)
	}
	b.logger.InfoContext(ctx, "account registered", "user_id", acct.ID)
	return &ports.SignUpResult{UserID: acct.ID, Email: acct.Email}, nil
}

// Revoke is a no-op; local accounts have no upstream session.
func (b *Backend) Revoke(context.Context, string) error { return nil }

