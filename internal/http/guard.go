package httpx

import (
	"context"
	"net/http"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

const defaultGuardTimeout = 3 * time.Second

// Protect runs the route guard before next. Every UI route goes through it so
// pages know who is signed in; only protected paths and the login page can be
// redirected.
func (h *UIHandlers) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Guard == nil {
			next.ServeHTTP(w, r)
			return
		}
		token := cookieValue(r, sessionCookieName)
		res := h.evaluate(r.Context(), r.URL.Path, token)
		if res.SignedOut || (token != "" && res.State != service.GuardChecking && res.Session == nil) {
			h.Cookies.clear(w, r, sessionCookieName)
		}

		switch res.State {
		case service.GuardRedirect:
			redirect(w, r, res.RedirectTo)
			return
		case service.GuardChecking:
			if h.Guard.Routes().IsProtected(r.URL.Path) {
				h.renderChecking(w, r)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withGuardResult(r.Context(), res)))
	})
}

func (h *UIHandlers) evaluate(ctx context.Context, path, token string) service.GuardResult {
	timeout := h.GuardTimeout
	if timeout <= 0 {
		timeout = defaultGuardTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return h.Guard.Evaluate(ctx, service.GuardRequest{Path: path, Token: token})
}

// renderChecking shows the loading state while the session cannot be resolved
// yet. The page refreshes itself; nothing from the admin area is rendered.
func (h *UIHandlers) renderChecking(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", checkingRetryAfter)
	w.Header().Set("Cache-Control", "no-store")
	data := map[string]any{
		"Title":        "Verificando acesso",
		"RefreshURL":   r.URL.RequestURI(),
		"RefreshAfter": checkingRetryAfter,
	}
	if err := h.T.Render(w, http.StatusServiceUnavailable, "checking", data); err != nil {
		h.logAndRenderTemplateError(w, r, err)
	}
}

// RequireAdmin limits next to the designated administrator.
func (h *UIHandlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != domainauth.RoleAdmin {
			h.Forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
