package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marioigor1982/leco-imoveis-site-simples/config"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/filestore"
	redisadapter "github.com/marioigor1982/leco-imoveis-site-simples/internal/adapters/redis"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/data"
	httpx "github.com/marioigor1982/leco-imoveis-site-simples/internal/http"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// shutdownWaitTimeout is the maximum time to wait for background services to stop.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Properties *service.PropertyService
	Likes      *service.LikeService
	Images     *service.ImageService
	Dashboard  *service.DashboardService
	Users      *service.UserApprovalService
	Auth       *AuthStack
	Inquiry    service.InquiryLinker

	Observability ObservabilityContainer
	// Health is probed by /healthz.
	Health        map[string]httpx.HealthCheck

	imageStore *filestore.Store
}

// Close releases resources held by the services. Connections are closed by the caller.
func (c *ServiceContainer) Close() {
	if c == nil {
		return
	}
	c.Auth.Close()
	if c.imageStore != nil {
		_ = c.imageStore.Close()
	}
}

// ObservabilityContainer holds the metrics recorder and its scrape handler.
type ObservabilityContainer struct {
	Metrics metrics.Recorder
	Handler http.Handler // nil when metrics are disabled
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *pgxpool.Pool
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories bundles repository instances shared across services.
type serviceRepositories struct {
	Properties *data.PropertyRepo
	Users      *data.UserMetadataRepo
	Accounts   *data.AccountRepo
	Likes      *redisadapter.LikeTracker
	Catalog    *core.CatalogCache
	Cache      core.CacheRepository
}

func buildObservability(cfg config.MetricsConfig) ObservabilityContainer {
	if !cfg.Enabled {
		return ObservabilityContainer{Metrics: metrics.Noop()}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return ObservabilityContainer{
		Metrics: metrics.NewPrometheus(reg),
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
}

func buildRepositories(db data.DB, client redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	cache := redisadapter.NewCacheWithPrefix(client, cfg.Redis.KeyPrefix+"cache:")
	return &serviceRepositories{
		Properties: data.NewPropertyRepo(db),
		Users:      data.NewUserMetadataRepo(db),
		Accounts:   data.NewAccountRepo(db),
		Likes:      redisadapter.NewLikeTrackerWithPrefix(client, cfg.Redis.KeyPrefix),
		Catalog: core.NewCatalogCache(core.CatalogCacheOptions{
			Cache:  cache,
			TTL:    cfg.Redis.CatalogTTL,
			Logger: logger,
		}),
		Cache: cache,
	}
}

// NewServices creates all application services.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps require a config")
	}
	if deps.DB == nil || deps.RedisClient == nil {
		return nil, errors.New("service deps require postgres and redis")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(cfg.Metrics)
	repos := buildRepositories(deps.DB, deps.RedisClient, cfg, logger)

	store, err := filestore.New(filestore.Options{Dir: cfg.Storage.Dir, MediaPrefix: cfg.Storage.MediaPrefix})
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}
	images := service.NewImageService(service.ImageServiceOptions{
		Store:       store,
		MediaPrefix: cfg.Storage.MediaPrefix,
		Logger:      logger,
	})

	auth, err := BuildAuthStack(ctx, AuthConfig{
		Auth:        cfg.Auth,
		IsDev:       cfg.IsDev,
		KeyPrefix:   cfg.Redis.KeyPrefix,
		RedisClient: deps.RedisClient,
		Accounts:    repos.Accounts,
		Users:       repos.Users,
		Metrics:     observability.Metrics,
		Logger:      logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	return &ServiceContainer{
		Properties: service.NewPropertyService(service.PropertyServiceOptions{
			Repo:   repos.Properties,
			Cache:  repos.Catalog,
			Images: images,
			Likes:  repos.Likes,
			Logger: logger,
		}),
		Likes: service.NewLikeService(service.LikeServiceOptions{
			Repo:    repos.Properties,
			Tracker: repos.Likes,
			Cache:   repos.Catalog,
			Metrics: observability.Metrics,
			Logger:  logger,
		}),
		Images: images,
		Dashboard: service.NewDashboardService(service.DashboardServiceOptions{
			Properties: repos.Properties,
			Users:      repos.Users,
		}),
		Users: service.NewUserApprovalService(service.UserApprovalServiceOptions{
			Repo:   repos.Users,
			Logger: logger,
		}),
		Auth:          auth,
		Inquiry:       service.InquiryLinker{Phone: cfg.Site.WhatsAppNumber, AgentName: cfg.Site.AgentName},
		Observability: observability,
		Health: map[string]httpx.HealthCheck{
			"postgres": deps.DB.Ping,
			"redis":    repos.Cache.Health,
		},
		imageStore: store,
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, logger *slog.Logger, errCh chan<- error, descriptor backgroundService) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name)
	return done
}

func buildBackgroundServices(services *ServiceContainer) []backgroundService {
	if services == nil || services.Auth == nil || services.Auth.Gateway == nil {
		return nil
	}
	// Relays session changes published by other instances into this one.
	return []backgroundService{{name: "auth-events", start: services.Auth.Gateway.Run}}
}

// RunServicesWithShutdown starts the HTTP server and background services and
// blocks until a signal or a service failure.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config missing AppConfig or services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	background := buildBackgroundServices(cfg.Services)
	errCh := make(chan error, len(background)+1)

	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})
	if err != nil {
		return err
	}

	handles := make([]backgroundServiceHandle, 0, len(background))
	for _, svc := range background {
		handles = append(handles, backgroundServiceHandle{
			name: svc.name,
			done: launchBackground(serviceCtx, logger, errCh, svc),
		})
	}

	return waitForShutdown(shutdownConfig{
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      server,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     handles,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel          context.CancelFunc
	errCh           <-chan error
	signals         <-chan os.Signal // tests inject; defaults to SIGINT/SIGTERM
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := cfg.signals
	if quit == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		quit = ch
	}

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop drains the HTTP server, then waits for background services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		timeout := cfg.shutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
