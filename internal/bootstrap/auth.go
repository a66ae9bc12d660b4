package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marioigor1982/leco-imoveis-site-simples/config"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/authroles"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/breakglass"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/devauth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/identity"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/kratos"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/localauth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/oidc"
	redisadapter "github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/redis"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains configuration for the auth stack.
type AuthConfig struct {
	Auth        config.AuthConfig
	IsDev       bool
	KeyPrefix   string
	RedisClient redis.UniversalClient
	Accounts    core.AccountRepository      // local credential provider
	Users       core.UserMetadataRepository // approval records
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// AuthStack is everything the HTTP layer and background runners need for sign-in.
type AuthStack struct {
	Gateway   *identity.Gateway
	Sessions  *service.SessionStore
	Validator *service.CredentialValidator
	Flow      *service.AuthFlow
	Guard     *service.RouteGuard
}

// Close releases the session store subscription.
func (s *AuthStack) Close() {
	if s != nil && s.Sessions != nil {
		s.Sessions.Close()
	}
}

// BuildAuthStack wires the identity gateway, session store, validator, flow and guard.
func BuildAuthStack(ctx context.Context, cfg AuthConfig) (*AuthStack, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth requires a redis client")
	}
	if cfg.Users == nil {
		return nil, errors.New("auth requires a user metadata repository")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds, err := buildCredentialBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	oauth, err := buildOAuthProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}
	override, err := breakglass.New(breakglass.Config{
		Enabled:    cfg.Auth.BreakGlass.Enabled,
		Email:      cfg.Auth.BreakGlass.Email,
		Password:   cfg.Auth.BreakGlass.Password,
		SigningKey: []byte(cfg.Auth.BreakGlass.SigningKey),
		TTL:        cfg.Auth.BreakGlass.TTL,
		Revoked:    redisadapter.NewRevocationList(cfg.RedisClient, cfg.KeyPrefix+"breakglass:revoked:"),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("break-glass: %w", err)
	}

	gateway := identity.NewGateway(identity.GatewayOptions{
		Credentials: creds,
		Sessions:    redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.KeyPrefix+"session:"),
		OAuth:       oauth,
		Events: redisadapter.NewEventBus(cfg.RedisClient, redisadapter.EventBusOptions{
			Channel: cfg.KeyPrefix + "auth:events",
			Logger:  logger,
		}),
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger,
	})

	validator := service.NewCredentialValidator(service.CredentialValidatorOptions{
		Metadata: cfg.Users,
		Policy: service.AuthorizationPolicy{
			Model:      cfg.Auth.Model,
			AdminEmail: cfg.Auth.AdminEmail,
			AllowList:  cfg.Auth.AllowedEmails,
		},
		Roles:  authroles.StaticRoleMapper{AdminEmail: cfg.Auth.AdminEmail},
		Logger: logger,
	})

	sessions := service.NewSessionStore(service.SessionStoreOptions{
		Provider: gateway,
		Override: override,
		Logger:   logger,
	})
	sessions.Start()

	flow := service.NewAuthFlow(service.AuthFlowOptions{
		Identity: service.AuthFlowIdentity{Provider: gateway, Override: override},
		Access: service.AuthFlowAccess{
			Sessions:  sessions,
			Validator: validator,
			Metadata:  cfg.Users,
		},
		Metrics: cfg.Metrics,
		Logger:  logger,
	})

	guard := service.NewRouteGuard(service.RouteGuardOptions{
		Sessions:  sessions,
		Validator: validator,
		SignOut:   flow,
		Metrics:   cfg.Metrics,
	})

	return &AuthStack{
		Gateway:   gateway,
		Sessions:  sessions,
		Validator: validator,
		Flow:      flow,
		Guard:     guard,
	}, nil
}

//nolint:ireturn // the provider is chosen at runtime.
func buildCredentialBackend(cfg AuthConfig, logger *slog.Logger) (ports.CredentialBackend, error) {
	switch cfg.Auth.Provider {
	case config.CredentialProviderKratos:
		backend, err := kratos.New(kratos.Config{
			PublicURL: cfg.Auth.Kratos.PublicURL,
			Timeout:   cfg.Auth.Kratos.Timeout,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("kratos: %w", err)
		}
		return backend, nil
	case config.CredentialProviderLocal, "":
		if cfg.Accounts == nil {
			return nil, errors.New("local credential provider requires an account repository")
		}
		return localauth.New(localauth.Options{
			Accounts: cfg.Accounts,
			Cost:     cfg.Auth.BcryptCost,
			Logger:   logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown credential provider %q", cfg.Auth.Provider)
	}
}

func buildOAuthProviders(ctx context.Context, cfg AuthConfig) (map[string]ports.OAuthProvider, error) {
	providers := make(map[string]ports.OAuthProvider, 2)
	if o := cfg.Auth.OAuth; o.Enabled() {
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  o.RedirectURL,
			Scope:        o.Scope,
			Issuer:       o.Issuer,
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		providers["google"] = prov
	}
	if cfg.IsDev && cfg.Auth.DevAuth.Enabled {
		prov, err := devauth.NewProvider(devauth.Config{
			UserID:          cfg.Auth.DevAuth.UserID,
			Email:           cfg.Auth.DevAuth.Email,
			Name:            cfg.Auth.DevAuth.Name,
			SessionDuration: cfg.Auth.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		providers["dev"] = prov
	}
	return providers, nil
}
