package service

import (
	"context"
	"net/url"
	"strings"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
)

// GuardState is the route guard state for a single request.
type GuardState string

const (
	GuardChecking GuardState = "checking"
	GuardAllowed  GuardState = "allowed"
	GuardRedirect GuardState = "redirect"
)

// RouteSet names the routes the guard treats specially.
type RouteSet struct {
	LoginPath       string // default "/login"
	ProtectedPrefix string // default "/admin"
}

func (r RouteSet) withDefaults() RouteSet {
	if r.LoginPath == "" {
		r.LoginPath = "/login"
	}
	if r.ProtectedPrefix == "" {
		r.ProtectedPrefix = "/admin"
	}
	r.ProtectedPrefix = strings.TrimSuffix(r.ProtectedPrefix, "/")
	return r
}

// IsProtected reports whether path is the protected route or below it.
func (r RouteSet) IsProtected(path string) bool {
	return path == r.ProtectedPrefix || strings.HasPrefix(path, r.ProtectedPrefix+"/")
}

type sessionResolver interface {
	Resolve(ctx context.Context, token string) *domainauth.Session
}

type authorizer interface {
	IsAuthorized(ctx context.Context, sess *domainauth.Session) domainauth.Decision
	RoleFor(sess *domainauth.Session, decision domainauth.Decision) domainauth.Role
}

type sessionEnder interface {
	Logout(ctx context.Context, token string)
}

// RouteGuardOptions groups dependencies for RouteGuard.
type RouteGuardOptions struct {
	Sessions  sessionResolver // Required
	Validator authorizer      // Required
	SignOut   sessionEnder    // Optional: ends sessions that are no longer authorized
	Routes    RouteSet
	Metrics   metrics.Recorder
}

// RouteGuard evaluates every request against the session and authorization
// state. Nothing is persisted between evaluations.
type RouteGuard struct {
	sessions  sessionResolver
	validator authorizer
	signOut   sessionEnder
	routes    RouteSet
	metrics   metrics.Recorder
}

// NewRouteGuard constructs a RouteGuard.
func NewRouteGuard(opts RouteGuardOptions) *RouteGuard {
	if opts.Sessions == nil || opts.Validator == nil {
		panic("RouteGuard requires Sessions and Validator")
	}
	return &RouteGuard{
		sessions:  opts.Sessions,
		validator: opts.Validator,
		signOut:   opts.SignOut,
		routes:    opts.Routes.withDefaults(),
		metrics:   metrics.OrNoop(opts.Metrics),
	}
}

// Routes returns the configured route set.
func (g *RouteGuard) Routes() RouteSet { return g.routes }

// GuardRequest is what the guard looks at.
type GuardRequest struct {
	Path  string
	Token string
}

// GuardResult is the evaluated state. RedirectTo is set only for GuardRedirect.
// SignedOut reports that the request carried a session the guard ended because
// it is pending approval or denied; Session is nil in that case.
type GuardResult struct {
	State      GuardState
	Decision   domainauth.Decision
	Role       domainauth.Role
	Session    *domainauth.Session
	RedirectTo string
	Reason     domainauth.FailureReason
	SignedOut  bool
}

// Evaluate resolves the session for req and returns the guard state. If ctx is
// done before resolution completes the result stays GuardChecking. A resolved
// session that is not authorized is signed out on any path.
func (g *RouteGuard) Evaluate(ctx context.Context, req GuardRequest) GuardResult {
	res := GuardResult{State: GuardChecking, Decision: domainauth.DecisionDenied, Role: domainauth.RoleGuest}
	defer func() { g.metrics.GuardDecision(res.Decision.String(), string(res.State)) }()

	var sess *domainauth.Session
	if req.Token != "" {
		sess = g.sessions.Resolve(ctx, req.Token)
		if ctx.Err() != nil {
			return res
		}
	}
	decision := g.validator.IsAuthorized(ctx, sess)
	if ctx.Err() != nil {
		return res
	}

	res.Decision = decision
	res.Session = sess
	res.Role = g.validator.RoleFor(sess, decision)
	reason := redirectReason(req.Token, sess, decision)
	if sess != nil && !decision.Authorized() {
		g.end(ctx, req.Token)
		res.Session = nil
		res.Role = domainauth.RoleGuest
		res.SignedOut = true
	}

	switch {
	case g.routes.IsProtected(req.Path) && !decision.Authorized():
		res.State = GuardRedirect
		res.Reason = reason
		res.RedirectTo = g.loginURL(res.Reason)
	case req.Path == g.routes.LoginPath && decision.Authorized():
		res.State = GuardRedirect
		res.RedirectTo = g.routes.ProtectedPrefix
	default:
		res.State = GuardAllowed
	}
	return res
}

func (g *RouteGuard) end(ctx context.Context, token string) {
	if g.signOut == nil {
		return
	}
	g.signOut.Logout(context.WithoutCancel(ctx), token)
}

func (g *RouteGuard) loginURL(reason domainauth.FailureReason) string {
	if reason == "" {
		return g.routes.LoginPath
	}
	return g.routes.LoginPath + "?" + url.Values{"reason": {string(reason)}}.Encode()
}

func redirectReason(token string, sess *domainauth.Session, decision domainauth.Decision) domainauth.FailureReason {
	if sess == nil {
		if token != "" {
			return domainauth.ReasonSessionExpired
		}
		return ""
	}
	return domainauth.ReasonForDecision(decision)
}
