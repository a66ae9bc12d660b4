package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/localauth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/bootstrap"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/data"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

// userAdmin lists and moderates approval records.
type userAdmin interface {
	List(ctx context.Context, opts core.UserMetadataListOptions) ([]*domainauth.UserMetadata, error)
	SetApprovedByEmail(ctx context.Context, email string, approved bool, actor string) (*domainauth.UserMetadata, error)
}

type accountRegistrar interface {
	Register(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error)
}

type metadataCreator interface {
	Create(ctx context.Context, req core.CreateUserMetadataRequest) (*domainauth.UserMetadata, error)
}

// adminStores is what the user and account commands operate on.
type adminStores struct {
	Users    userAdmin
	Accounts accountRegistrar
	Metadata metadataCreator
	Pool     *pgxpool.Pool // nil in tests
	close    func()
}

// Close releases the connection pool.
func (s *adminStores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

var (
	_ userAdmin        = (*service.UserApprovalService)(nil)
	_ accountRegistrar = (*localauth.Backend)(nil)
	_ metadataCreator  = (*data.UserMetadataRepo)(nil)
)

// openStores connects to Postgres and builds the repositories behind each command.
func openStores(ctx context.Context, cmdCtx *commandContext) (*adminStores, error) {
	pool, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	users := data.NewUserMetadataRepo(pool)
	return &adminStores{
		Users: service.NewUserApprovalService(service.UserApprovalServiceOptions{
			Repo:   users,
			Logger: cmdCtx.Logger,
		}),
		Accounts: localauth.New(localauth.Options{
			Accounts: data.NewAccountRepo(pool),
			Cost:     cmdCtx.Config.Auth.BcryptCost,
			Logger:   cmdCtx.Logger,
		}),
		Metadata: users,
		Pool:     pool,
		close:    pool.Close,
	}, nil
}
