package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	leco "github.com/marioigor1982/leco-imoveis-site-simples"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/http/assets"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

// maxRequestBody leaves room for a full gallery upload plus the form fields.
const maxRequestBody = int64(model.MaxImages)*model.MaxImageBytes + 1<<20

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Properties PropertiesService
	Likes      LikesService
	Images     ImagesService
	Dashboard  DashboardLoader
	Users      UsersService
	Auth       AuthFlowService
	Guard      RouteEvaluator
	Inquiry    service.InquiryLinker
	Site       SiteInfo

	CookieDomain string
	SecureCookie bool
	// OAuthProviders lists the enabled OAuth providers ("google", "dev").
	OAuthProviders   []string
	OAuthCallbackURL string
	GuardTimeout     time.Duration
	LoginRateLimit   RateLimitConfig

	Metrics        metrics.Recorder
	MetricsHandler http.Handler // served at MetricsPath when set
	MetricsPath    string       // defaults to /metrics

	// HealthChecks are probed by /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	// TemplateFS and StaticFS override the embedded assets (tests, dev mode).
	TemplateFS fs.FS
	StaticFS   fs.FS
	IsDev      bool
	Logger     *slog.Logger
}

// NewRouter creates and configures the HTTP router with its middleware stack.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templateFS, staticFS, err := resolveAssetFS(services)
	if err != nil {
		return nil, err
	}
	resolver, err := assets.NewResolver(staticFS, "/static/")
	if err != nil {
		logger.Warn("asset versioning disabled", slog.Any("error", err))
		resolver = nil
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Resolver:   resolver,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	ui := &UIHandlers{
		T:                tr,
		Properties:       services.Properties,
		Likes:            services.Likes,
		Images:           services.Images,
		Dashboard:        services.Dashboard,
		Users:            services.Users,
		Auth:             services.Auth,
		Guard:            services.Guard,
		Inquiry:          services.Inquiry,
		Site:             services.Site,
		Cookies:          CookieConfig{Domain: services.CookieDomain, Secure: services.SecureCookie},
		OAuthProviders:   services.OAuthProviders,
		OAuthCallbackURL: services.OAuthCallbackURL,
		GuardTimeout:     services.GuardTimeout,
		IsDev:            services.IsDev,
		Logger:           logger,
	}

	limitCfg := services.LoginRateLimit
	limitCfg.OnLimit = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ui.renderLogin(w, r, http.StatusTooManyRequests, loginForm{
			Mode:    "login",
			Message: "Muitas tentativas. Aguarde um minuto e tente novamente.",
			Errors:  map[string]string{},
		})
	})
	limiter := NewRateLimiter(limitCfg)

	mux := http.NewServeMux()
	registerPublicRoutes(mux, ui)
	registerAuthRoutes(mux, ui, limiter)
	registerAdminRoutes(mux, ui)
	mux.Handle("GET /media/{key...}", http.HandlerFunc(ui.Media))
	mux.Handle("GET /static/", staticHandler(staticFS))
	health := healthHandler(services.HealthChecks, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.MetricsHandler != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.MetricsHandler)
	}
	mux.Handle("/", ui.Protect(http.HandlerFunc(ui.NotFound)))

	csrf := CSRFProtection(CSRFConfig{
		CookieDomain: services.CookieDomain,
		SecureCookie: services.SecureCookie,
		OnFailure: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ui.renderWith(w, r, http.StatusForbidden, PageMeta{Title: "Algo deu errado", CurrentPage: PageError}, map[string]any{
				"ErrorMessage": "Sessão do formulário expirada. Recarregue a página e tente novamente.",
			})
		}),
	})

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		SecurityHeaders(),
		LimitBody(maxRequestBody),
		csrf,
		Metrics(services.Metrics),
	), nil
}

func registerPublicRoutes(mux *http.ServeMux, h *UIHandlers) {
	page := func(fn http.HandlerFunc) http.Handler { return h.Protect(fn) }
	mux.Handle("GET /{$}", page(h.Catalog))
	mux.Handle("GET /imoveis/{id}", page(h.PropertyDetail))
	mux.Handle("POST /imoveis/{id}/curtir", http.HandlerFunc(h.ToggleLike))
	mux.Handle("GET /sobre", page(h.About))
	mux.Handle("GET /financiamento", page(h.Financing))
}

func registerAuthRoutes(mux *http.ServeMux, h *UIHandlers, limiter *RateLimiter) {
	mux.Handle("GET /login", h.Protect(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST /login", limiter.Middleware(http.HandlerFunc(h.LoginSubmit)))
	mux.Handle("POST /register", limiter.Middleware(http.HandlerFunc(h.RegisterSubmit)))
	mux.Handle("GET /auth/oauth/{provider}", http.HandlerFunc(h.StartOAuth))
	mux.Handle("GET /auth-callback", http.HandlerFunc(h.AuthCallback))
	mux.Handle("POST /logout", http.HandlerFunc(h.Logout))
}

func registerAdminRoutes(mux *http.ServeMux, h *UIHandlers) {
	agent := func(fn http.HandlerFunc) http.Handler { return h.Protect(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return h.Protect(h.RequireAdmin(fn)) }

	mux.Handle("GET /admin", agent(h.DashboardPage))
	mux.Handle("GET /admin/imoveis/novo", agent(h.NewPropertyPage))
	mux.Handle("POST /admin/imoveis", agent(h.CreateProperty))
	mux.Handle("GET /admin/imoveis/{id}/editar", agent(h.EditPropertyPage))
	mux.Handle("POST /admin/imoveis/{id}", agent(h.UpdateProperty))
	mux.Handle("POST /admin/imoveis/{id}/excluir", agent(h.DeleteProperty))
	mux.Handle("POST /admin/imoveis/{id}/vendido", agent(h.ToggleSold))

	mux.Handle("GET /admin/usuarios", admin(h.UsersPage))
	mux.Handle("POST /admin/usuarios/{id}/aprovar", admin(h.ApproveUser))
	mux.Handle("POST /admin/usuarios/{id}/revogar", admin(h.RevokeUser))
}

// resolveAssetFS picks template and static filesystems: explicit overrides,
// then disk in dev mode, then the embedded copies.
func resolveAssetFS(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(leco.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, nil, err
			}
			templateFS = sub
		}
	}
	if staticFS == nil {
		if services.IsDev {
			staticFS = os.DirFS(StaticPathFromRoot)
		} else {
			sub, err := fs.Sub(leco.StaticFS, StaticPathFromRoot)
			if err != nil {
				return nil, nil, err
			}
			staticFS = sub
		}
	}
	return templateFS, staticFS, nil
}

// staticHandler serves /static/*. Versioned URLs (?v=hash) are immutable;
// anything else must revalidate.
func staticHandler(fsys fs.FS) http.Handler {
	files := http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "" {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		files.ServeHTTP(w, r)
	})
}
