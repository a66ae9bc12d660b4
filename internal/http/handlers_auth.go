package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

var providerLabels = map[string]string{
	"google": "Google",
	"dev":    "Conta de desenvolvimento",
}

type oauthProvider struct {
	ID    string
	Label string
}

func (h *UIHandlers) providers() []oauthProvider {
	out := make([]oauthProvider, 0, len(h.OAuthProviders))
	for _, id := range h.OAuthProviders {
		label, ok := providerLabels[id]
		if !ok {
			label = id
		}
		out = append(out, oauthProvider{ID: id, Label: label})
	}
	return out
}

// loginForm is what the login page re-renders after a failed submission.
type loginForm struct {
	Mode    string // "login" or "register"
	Email   string
	Name    string
	Message string
	Notice  string
	Errors  map[string]string
}

// LoginPage serves GET /login. A reason query parameter, set by the guard or a
// failed callback, is shown as a banner.
func (h *UIHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	form := loginForm{Mode: "login", Errors: map[string]string{}}
	if reason := domainauth.FailureReason(r.URL.Query().Get("reason")); reason != "" {
		form.Message = reason.Message()
	}
	if r.URL.Query().Get("mode") == "register" && h.Auth.RegistrationEnabled() {
		form.Mode = "register"
	}
	h.renderLogin(w, r, http.StatusOK, form)
}

func (h *UIHandlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, form loginForm) {
	h.renderWith(w, r, status, PageMeta{Title: "Entrar", CurrentPage: PageLogin}, map[string]any{
		"Form":                form,
		"Errors":              form.Errors,
		"Providers":           h.providers(),
		"RegistrationEnabled": h.Auth.RegistrationEnabled(),
	})
}

// LoginSubmit handles POST /login.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	res, err := h.Auth.Login(r.Context(), service.LoginInput{
		Identifier: email,
		Secret:     r.PostFormValue("password"),
	})
	if err != nil {
		form := loginForm{Mode: "login", Email: email, Message: flowMessage(err), Errors: map[string]string{}}
		h.renderLogin(w, r, flowStatus(err), form)
		return
	}
	h.Cookies.setSession(w, r, res.Session)
	redirect(w, r, h.adminPath())
}

// RegisterSubmit handles POST /register. Accounts start pending; no session is
// issued.
func (h *UIHandlers) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, err)
		return
	}
	in := service.RegisterInput{
		Name:          r.PostForm.Get("name"),
		Identifier:    r.PostForm.Get("email"),
		Secret:        r.PostForm.Get("password"),
		ConfirmSecret: r.PostForm.Get("confirm_password"),
	}
	form := loginForm{Mode: "register", Email: strings.TrimSpace(in.Identifier), Name: strings.TrimSpace(in.Name), Errors: map[string]string{}}

	res, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		var fe *domainauth.FlowError
		if errors.As(err, &fe) && fe.Field != "" {
			form.Errors[fe.Field] = fe.Message
		} else {
			form.Message = flowMessage(err)
		}
		h.renderLogin(w, r, flowStatus(err), form)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginForm{
		Mode:   "login",
		Email:  res.Email,
		Notice: "Cadastro realizado! Aguarde a aprovação do administrador para acessar o painel.",
		Errors: map[string]string{},
	})
}

// StartOAuth handles GET /auth/oauth/{provider}. State, nonce and provider are
// kept in short-lived cookies for the callback.
func (h *UIHandlers) StartOAuth(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	res, err := h.Auth.StartOAuth(r.Context(), service.StartOAuthInput{
		Provider:    provider,
		RedirectURL: h.callbackURL(r),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "oauth start failed", "provider", provider, "error", err)
		http.Redirect(w, r, loginWithReason(domainauth.ReasonOf(err)), http.StatusSeeOther)
		return
	}
	h.Cookies.setTemp(w, r, oauthStateCookieName, res.State)
	h.Cookies.setTemp(w, r, oauthNonceCookieName, res.Nonce)
	h.Cookies.setTemp(w, r, oauthProviderCookieName, provider)
	http.Redirect(w, r, res.AuthURL, http.StatusFound)
}

// AuthCallback handles GET /auth-callback. Failures are shown on the page,
// which returns to the login page after a short delay and never to the admin
// area.
func (h *UIHandlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.OAuthCallbackInput{
		Provider:         cookieValue(r, oauthProviderCookieName),
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		ExpectedState:    cookieValue(r, oauthStateCookieName),
		Nonce:            cookieValue(r, oauthNonceCookieName),
	}
	for _, name := range []string{oauthStateCookieName, oauthNonceCookieName, oauthProviderCookieName} {
		h.Cookies.clear(w, r, name)
	}

	res, err := h.Auth.HandleOAuthCallback(r.Context(), in)
	if err != nil {
		h.logger().InfoContext(r.Context(), "oauth callback failed", "reason", domainauth.ReasonOf(err), "error", err)
		message, detail := flowMessage(err), ""
		var fe *domainauth.FlowError
		if errors.As(err, &fe) {
			detail = fe.Detail
		}
		h.renderWith(w, r, http.StatusOK, PageMeta{Title: "Autenticação", CurrentPage: PageAuthCallback}, map[string]any{
			"Message":      message,
			"Detail":       detail,
			"RefreshURL":   loginWithReason(domainauth.ReasonOf(err)),
			"RefreshAfter": callbackRedirectSec,
		})
		return
	}
	h.Cookies.setSession(w, r, res.Session)
	http.Redirect(w, r, h.adminPath(), http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := cookieValue(r, sessionCookieName); token != "" {
		h.Auth.Logout(r.Context(), token)
	}
	h.Cookies.clear(w, r, sessionCookieName)
	redirect(w, r, "/")
}

func (h *UIHandlers) adminPath() string {
	if h.Guard != nil {
		return h.Guard.Routes().ProtectedPrefix
	}
	return "/admin"
}

// callbackURL returns the configured callback or derives one from the request.
func (h *UIHandlers) callbackURL(r *http.Request) string {
	if h.OAuthCallbackURL != "" {
		return h.OAuthCallbackURL
	}
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: "/auth-callback"}).String()
}

func loginWithReason(reason domainauth.FailureReason) string {
	if reason == "" {
		return "/login"
	}
	return "/login?" + url.Values{"reason": {string(reason)}}.Encode()
}

func flowMessage(err error) string {
	var fe *domainauth.FlowError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return domainauth.ReasonProviderUnavailable.Message()
}

// flowStatus maps a flow failure to the status of the re-rendered form.
func flowStatus(err error) int {
	switch domainauth.ReasonOf(err) {
	case domainauth.ReasonInvalidCredentials, domainauth.ReasonValidation:
		return http.StatusUnprocessableEntity
	case domainauth.ReasonPendingApproval, domainauth.ReasonNotAllowed, domainauth.ReasonRegistrationDisabled:
		return http.StatusForbidden
	case domainauth.ReasonInFlight:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}
