package httpx

import (
	"context"
	"html"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/http/ui/viewmodel"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

// PropertiesService is what the catalog and admin pages need from listings.
type PropertiesService interface {
	Catalog(ctx context.Context, f service.CatalogFilter) ([]*model.Property, error)
	GetByID(ctx context.Context, id string) (*model.Property, error)
	Create(ctx context.Context, req *model.CreatePropertyRequest) (*model.Property, error)
	Update(ctx context.Context, id string, req model.UpdatePropertyRequest) (*model.Property, error)
	ToggleSold(ctx context.Context, id string) (*model.Property, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// LikesService toggles and reads visitor likes.
type LikesService interface {
	Toggle(ctx context.Context, propertyID, visitorID string) (*model.LikeResult, error)
	LikedBy(ctx context.Context, visitorID string, ids []string) map[string]bool
}

// ImagesService stores and serves listing photos.
type ImagesService interface {
	Save(ctx context.Context, uploads []service.Upload) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, core.ObjectInfo, error)
	Remove(ctx context.Context, urls []string)
}

// DashboardLoader loads the admin landing page.
type DashboardLoader interface {
	Load(ctx context.Context) (*model.Dashboard, error)
}

// UsersService lists and moderates approval records.
type UsersService interface {
	Lists(ctx context.Context) (*service.UserLists, error)
	Approve(ctx context.Context, userID, actor string) (*domainauth.UserMetadata, error)
	Revoke(ctx context.Context, userID, actor string) (*domainauth.UserMetadata, error)
}

// AuthFlowService runs the login, registration, OAuth and logout flows.
type AuthFlowService interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Register(ctx context.Context, in service.RegisterInput) (*service.RegisterResult, error)
	StartOAuth(ctx context.Context, in service.StartOAuthInput) (*ports.BeginOAuthResult, error)
	HandleOAuthCallback(ctx context.Context, in service.OAuthCallbackInput) (*service.LoginResult, error)
	Logout(ctx context.Context, token string)
	RegistrationEnabled() bool
}

// RouteEvaluator decides whether a path may be served for a session token.
type RouteEvaluator interface {
	Evaluate(ctx context.Context, req service.GuardRequest) service.GuardResult
	Routes() service.RouteSet
}

var (
	_ PropertiesService = (*service.PropertyService)(nil)
	_ LikesService      = (*service.LikeService)(nil)
	_ ImagesService     = (*service.ImageService)(nil)
	_ DashboardLoader   = (*service.DashboardService)(nil)
	_ UsersService      = (*service.UserApprovalService)(nil)
	_ AuthFlowService   = (*service.AuthFlow)(nil)
	_ RouteEvaluator    = (*service.RouteGuard)(nil)
)

// SiteInfo is the agent's public identity rendered in the page chrome.
type SiteInfo struct {
	Name      string
	AgentName string
	CRECI     string
}

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T          *TemplateRenderer
	Properties PropertiesService
	Likes      LikesService
	Images     ImagesService
	Dashboard  DashboardLoader
	Users      UsersService
	Auth       AuthFlowService
	Guard      RouteEvaluator
	Inquiry    service.InquiryLinker
	Site       SiteInfo
	Cookies    CookieConfig
	// OAuthProviders lists the sign-in buttons offered on the login page.
	OAuthProviders []string
	// OAuthCallbackURL is the absolute /auth-callback URL registered with providers.
	OAuthCallbackURL string
	// GuardTimeout bounds session resolution before the checking page is shown.
	GuardTimeout time.Duration
	IsDev        bool
	Logger       *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	CurrentPage string
	AdminArea   bool
}

// buildLayout constructs shared layout metadata from the request context.
func (h *UIHandlers) buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		CurrentPage: meta.CurrentPage,
		AdminArea:   meta.AdminArea,
		CSRFToken:   GetCSRFToken(r),
		Site: viewmodel.Site{
			Name:        h.Site.Name,
			AgentName:   h.Site.AgentName,
			CRECI:       h.Site.CRECI,
			WhatsAppURL: h.Inquiry.Link(nil),
		},
	}
	ctx := r.Context()
	if sess := SessionFromContext(ctx); sess != nil && IsAuthorized(ctx) {
		role := RoleFromContext(ctx)
		layout.IsAuthorized = true
		layout.IsAdmin = role == domainauth.RoleAdmin
		layout.User = &viewmodel.User{Email: sess.Email, Name: sess.Name, Role: string(role)}
	}
	return layout
}

// basePageData constructs the common page data map.
func (h *UIHandlers) basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := h.buildLayout(r, meta)
	data := map[string]any{
		"Title":        layout.Title,
		"CurrentPage":  layout.CurrentPage,
		"AdminArea":    layout.AdminArea,
		"CSRFToken":    layout.CSRFToken,
		"IsAuthorized": layout.IsAuthorized,
		"IsAdmin":      layout.IsAdmin,
		"Site":         layout.Site,
		"Errors":       map[string]string{},
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta   PageMeta
	Status int
	Fetch  func(ctx context.Context, data map[string]any) error
}

// Page builds base data, runs the fetch, and renders. Fetch errors render the
// error page with the status the error maps to.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, spec PageSpec) {
	data := h.basePageData(r, spec.Meta)
	if spec.Fetch != nil {
		if err := spec.Fetch(r.Context(), data); err != nil {
			h.renderError(w, r, err)
			return
		}
	}
	h.render(w, r, spec.Status, data)
}

// renderWith renders a page from meta plus extra values.
func (h *UIHandlers) renderWith(w http.ResponseWriter, r *http.Request, status int, meta PageMeta, extra map[string]any) {
	data := h.basePageData(r, meta)
	maps.Copy(data, extra)
	h.render(w, r, status, data)
}

func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if err := h.T.RenderFull(w, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err)
	}
}

// NotFound renders the 404 page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderWith(w, r, http.StatusNotFound, PageMeta{Title: "Página não encontrada", CurrentPage: PageNotFound}, nil)
}

// Forbidden renders the 403 page.
func (h *UIHandlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderWith(w, r, http.StatusForbidden, PageMeta{Title: "Acesso restrito", CurrentPage: PageForbidden, AdminArea: true}, nil)
}

// renderError maps err to a status and renders the generic error page.
func (h *UIHandlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.StatusOf(err)
	if status == http.StatusNotFound {
		h.NotFound(w, r)
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	h.renderWith(w, r, status, PageMeta{Title: "Algo deu errado", CurrentPage: PageError}, map[string]any{
		"ErrorMessage": apperrors.MessageOf(err),
	})
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().Error("template rendering failed",
		"error", err,
		"path", r.URL.Path,
		"method", r.Method,
	)
	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `<pre style="padding:20px;background:#fee;border:2px solid #c33">`+
			html.EscapeString(err.Error())+`</pre>`)
		return
	}
	http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
}

// redirect sends the browser to target, using Hx-Redirect for htmx requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
