package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/config"
	httpx "github.com/marioigor1982/leco-imoveis-site-simples/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives ListenAndServe failures. Optional.
	ErrCh chan<- error
}

// RouterServices maps the container onto what the router needs.
func RouterServices(appCfg *config.AppConfig, svc *ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		Properties: svc.Properties,
		Likes:      svc.Likes,
		Images:     svc.Images,
		Dashboard:  svc.Dashboard,
		Users:      svc.Users,
		Inquiry:    svc.Inquiry,
		Site: httpx.SiteInfo{
			Name:      appCfg.Site.Name,
			AgentName: appCfg.Site.AgentName,
			CRECI:     appCfg.Site.CRECI,
		},
		CookieDomain:     appCfg.HTTP.CookieDomain,
		SecureCookie:     appCfg.HTTP.CookieSecure,
		OAuthCallbackURL: strings.TrimSuffix(appCfg.HTTP.BaseURL, "/") + "/auth-callback",
		GuardTimeout:     appCfg.HTTP.GuardTimeout,
		LoginRateLimit: httpx.RateLimitConfig{
			PerMinute:  appCfg.HTTP.LoginRatePerMinute,
			Burst:      appCfg.HTTP.LoginBurst,
			TrustProxy: appCfg.HTTP.TrustProxy,
		},
		Metrics:        svc.Observability.Metrics,
		MetricsHandler: svc.Observability.Handler,
		MetricsPath:    appCfg.Metrics.Path,
		HealthChecks:   svc.Health,
		IsDev:          appCfg.IsDev,
		Logger:         logger,
	}
	if svc.Auth != nil {
		rs.Auth = svc.Auth.Flow
		rs.Guard = svc.Auth.Guard
		rs.OAuthProviders = svc.Auth.Gateway.OAuthProviders()
	}
	return rs
}

// StartHTTPServer builds the router and starts serving in the background.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config requires AppConfig and services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := httpx.NewRouter(RouterServices(cfg.Config, cfg.Services, logger))
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return startServer(serverOptions{
		logger:  logger,
		handler: handler,
		http:    cfg.Config.HTTP,
		errCh:   cfg.ErrCh,
	}), nil
}

type serverOptions struct {
	logger  *slog.Logger
	handler http.Handler
	http    config.HTTPConfig
	errCh   chan<- error
}

func startServer(opts serverOptions) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := opts.http.Addr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           opts.handler,
		ReadTimeout:       opts.http.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.http.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		opts.logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.logger.Error("HTTP server failed", "error", err)
			if opts.errCh != nil {
				select {
				case opts.errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
