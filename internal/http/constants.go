package httpx

import "time"

// Page identifiers used for layout navigation and content template lookup.
const (
	PageCatalog      = "catalog"
	PageProperty     = "property"
	PageAbout        = "about"
	PageFinancing    = "financing"
	PageLogin        = "login"
	PageAuthCallback = "auth-callback"
	PageDashboard    = "dashboard"
	PagePropertyForm = "property-form"
	PageUsers        = "users"
	PageNotFound     = "not-found"
	PageForbidden    = "forbidden"
	PageError        = "error"
)

// Template locations on disk, relative to the repo root and to this package.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

// Cookie names.
const (
	sessionCookieName       = "leco_session"
	visitorCookieName       = "leco_visitor"
	oauthStateCookieName    = "leco_oauth_state"
	oauthNonceCookieName    = "leco_oauth_nonce"
	oauthProviderCookieName = "leco_oauth_provider"
)

const (
	oauthCookieTTL      = 10 * time.Minute
	visitorCookieTTL    = 365 * 24 * time.Hour
	callbackRedirectSec = 3
	checkingRetryAfter  = "1"
)

var contentTemplates = map[string]string{
	PageCatalog:      "catalog-content",
	PageProperty:     "property-content",
	PageAbout:        "about-content",
	PageFinancing:    "financing-content",
	PageLogin:        "login-content",
	PageAuthCallback: "auth-callback-content",
	PageDashboard:    "dashboard-content",
	PagePropertyForm: "property-form-content",
	PageUsers:        "users-content",
	PageNotFound:     "not-found-content",
	PageForbidden:    "forbidden-content",
	PageError:        "error-content",
}

// ContentTemplateFor returns the template name rendering the main content of page.
func ContentTemplateFor(page string) string {
	if name, ok := contentTemplates[page]; ok {
		return name
	}
	return "not-found-content"
}
