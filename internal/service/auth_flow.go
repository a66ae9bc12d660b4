package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/observability/metrics"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/validation"
	"golang.org/x/sync/singleflight"
)

const (
	flowLogin    = "login"
	flowRegister = "register"
	flowOAuth    = "oauth"
)

type sessionClearer interface {
	Clear(token string)
}

type flowAuthorizer interface {
	authorizer
	Model() domainauth.Model
}

type pendingRegistrar interface {
	Create(ctx context.Context, req core.CreateUserMetadataRequest) (*domainauth.UserMetadata, error)
}

// AuthFlowIdentity groups the credential sources.
type AuthFlowIdentity struct {
	Provider ports.IdentityProvider      // Required
	Override ports.OverrideAuthenticator // Optional: break-glass
}

// AuthFlowAccess groups the collaborators that decide and record access.
type AuthFlowAccess struct {
	Sessions  sessionClearer   // Required
	Validator flowAuthorizer   // Required
	Metadata  pendingRegistrar // Optional: pending approval records on sign-up
}

// AuthFlowOptions groups dependencies for AuthFlow.
type AuthFlowOptions struct {
	Identity AuthFlowIdentity
	Access   AuthFlowAccess
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// AuthFlow orchestrates login, registration, OAuth and logout, translating
// provider failures into *domainauth.FlowError.
type AuthFlow struct {
	provider  ports.IdentityProvider
	override  ports.OverrideAuthenticator
	sessions  sessionClearer
	validator flowAuthorizer
	metadata  pendingRegistrar
	validate  *validation.Validator
	metrics   metrics.Recorder
	logger    *slog.Logger
	inflight  singleflight.Group
	logins    loginClaims
}

// NewAuthFlow constructs an AuthFlow.
func NewAuthFlow(opts AuthFlowOptions) *AuthFlow {
	if opts.Identity.Provider == nil {
		panic("AuthFlow requires a Provider")
	}
	if opts.Access.Sessions == nil || opts.Access.Validator == nil {
		panic("AuthFlow requires Sessions and Validator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		provider:  opts.Identity.Provider,
		override:  opts.Identity.Override,
		sessions:  opts.Access.Sessions,
		validator: opts.Access.Validator,
		metadata:  opts.Access.Metadata,
		validate:  validation.New(),
		metrics:   metrics.OrNoop(opts.Metrics),
		logger:    logger.With("component", "auth_flow"),
	}
}

// RegistrationEnabled reports whether Register can succeed in this deployment.
func (f *AuthFlow) RegistrationEnabled() bool {
	return f.validator.Model().SupportsRegistration()
}

// LoginInput is the password login form.
type LoginInput struct {
	Identifier string
	Secret     string
}

// LoginResult is an authorized session and its role.
type LoginResult struct {
	Session  *domainauth.Session
	Decision domainauth.Decision
	Role     domainauth.Role
}

// Login signs in with a password. Concurrent calls with the same identifier
// and secret share one provider round-trip and receive the same session. A call
// for an identifier whose login is already running with a different secret
// fails with ReasonInFlight.
func (f *AuthFlow) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	id := strings.TrimSpace(in.Identifier)
	if id == "" || in.Secret == "" {
		err := &domainauth.FlowError{
			Reason:  domainauth.ReasonValidation,
			Message: "Informe e-mail e senha.",
			Field:   "email",
		}
		f.record(flowLogin, err)
		return nil, err
	}
	key := strings.ToLower(id)
	digest := sha256.Sum256([]byte(key + "\x00" + in.Secret))
	if !f.logins.acquire(key, digest) {
		err := domainauth.NewFlowError(domainauth.ReasonInFlight, nil)
		f.record(flowLogin, err)
		return nil, err
	}
	defer f.logins.release(key)

	res, err := shared(ctx, &f.inflight, "login:"+hex.EncodeToString(digest[:]), func(ctx context.Context) (*LoginResult, error) {
		return f.login(ctx, id, in.Secret)
	})
	f.record(flowLogin, err)
	return res, err
}

// loginClaims remembers which credential digest owns each identifier's
// running login.
type loginClaims struct {
	mu     sync.Mutex
	active map[string]*loginClaim
}

type loginClaim struct {
	digest [sha256.Size]byte
	n      int
}

func (c *loginClaims) acquire(key string, digest [sha256.Size]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		c.active = make(map[string]*loginClaim)
	}
	cl, ok := c.active[key]
	if !ok {
		c.active[key] = &loginClaim{digest: digest, n: 1}
		return true
	}
	if subtle.ConstantTimeCompare(cl.digest[:], digest[:]) != 1 {
		return false
	}
	cl.n++
	return true
}

func (c *loginClaims) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.active[key]
	if !ok {
		return
	}
	if cl.n--; cl.n == 0 {
		delete(c.active, key)
	}
}

func (f *AuthFlow) login(ctx context.Context, id, secret string) (*LoginResult, error) {
	if f.override != nil && f.override.Enabled() {
		if sess, ok := f.override.Authenticate(id, secret); ok {
			f.logger.WarnContext(ctx, "break-glass credentials used", "identifier", id)
			return &LoginResult{
				Session:  sess,
				Decision: domainauth.DecisionAuthorized,
				Role:     f.validator.RoleFor(sess, domainauth.DecisionAuthorized),
			}, nil
		}
	}

	sess, err := f.provider.SignInWithPassword(ctx, ports.PasswordSignInInput{Identifier: id, Secret: secret})
	if err != nil {
		return nil, f.providerFailure(ctx, "sign-in", err)
	}
	return f.authorize(ctx, sess)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name          string `form:"name" validate:"required,min=2,max=120"`
	Identifier    string `form:"email" validate:"required,email,max=254"`
	Secret        string `form:"password" validate:"required,min=6,max=128"`
	ConfirmSecret string `form:"confirm_password" validate:"eqfield=Secret"`
}

// RegisterResult identifies the pending account.
type RegisterResult struct {
	UserID string
	Email  string
}

// Register creates an account awaiting approval. No session is established.
func (f *AuthFlow) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	res, err := f.register(ctx, in)
	f.record(flowRegister, err)
	return res, err
}

func (f *AuthFlow) register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if !f.RegistrationEnabled() {
		return nil, domainauth.NewFlowError(domainauth.ReasonRegistrationDisabled, nil)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := f.validate.Struct(in); err != nil {
		fe := domainauth.NewFlowError(domainauth.ReasonValidation, err)
		var verr *validation.Errors
		if errors.As(err, &verr) {
			fe.Field, fe.Message = verr.First()
		}
		return nil, fe
	}

	return shared(ctx, &f.inflight, "register:"+strings.ToLower(in.Identifier), func(ctx context.Context) (*RegisterResult, error) {
		out, err := f.provider.SignUp(ctx, ports.SignUpInput{Email: in.Identifier, Password: in.Secret, Name: in.Name})
		if err != nil {
			if errors.Is(err, domainauth.ErrAccountExists) {
				return nil, &domainauth.FlowError{
					Reason:  domainauth.ReasonValidation,
					Message: "Este e-mail já está cadastrado.",
					Field:   "email",
					Cause:   err,
				}
			}
			return nil, f.providerFailure(ctx, "sign-up", err)
		}

		if f.metadata != nil {
			// A missing record still evaluates to pending, so sign-up stands.
			if _, err := f.metadata.Create(ctx, core.CreateUserMetadataRequest{UserID: out.UserID, Email: out.Email}); err != nil {
				f.logger.ErrorContext(ctx, "create approval record failed", "user_id", out.UserID, "error", err)
			}
		}
		f.logger.InfoContext(ctx, "account registered, awaiting approval", "user_id", out.UserID)
		return &RegisterResult{UserID: out.UserID, Email: out.Email}, nil
	})
}

// StartOAuthInput selects the OAuth provider and callback.
type StartOAuthInput struct {
	Provider    string
	RedirectURL string
}

// StartOAuth returns where to send the browser, plus the state and nonce the
// caller must keep for the callback.
func (f *AuthFlow) StartOAuth(ctx context.Context, in StartOAuthInput) (*ports.BeginOAuthResult, error) {
	if in.Provider == "" || in.RedirectURL == "" {
		return nil, domainauth.NewFlowError(domainauth.ReasonValidation, errors.New("provider and redirect URL are required"))
	}
	res, err := f.provider.BeginOAuth(ctx, ports.BeginOAuthInput{Provider: in.Provider, RedirectURL: in.RedirectURL})
	if err != nil {
		return nil, f.providerFailure(ctx, "begin oauth", err)
	}
	return res, nil
}

// OAuthCallbackInput is what came back on the callback URL plus what the
// caller stored when the flow started.
type OAuthCallbackInput struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string

	ExpectedState string
	Nonce         string
}

// HandleOAuthCallback completes an OAuth flow. A session that turns out not to
// be authorized is signed out before the failure is returned.
func (f *AuthFlow) HandleOAuthCallback(ctx context.Context, in OAuthCallbackInput) (*LoginResult, error) {
	res, err := f.handleOAuthCallback(ctx, in)
	f.record(flowOAuth, err)
	return res, err
}

func (f *AuthFlow) handleOAuthCallback(ctx context.Context, in OAuthCallbackInput) (*LoginResult, error) {
	if in.Error != "" {
		detail := in.ErrorDescription
		if detail == "" {
			detail = in.Error
		}
		return nil, domainauth.NewFlowError(domainauth.ReasonCallbackError, fmt.Errorf("oauth provider error: %s", in.Error)).WithDetail(detail)
	}
	if in.Code == "" || in.State == "" {
		return nil, domainauth.NewFlowError(domainauth.ReasonCallbackError, errors.New("missing code or state"))
	}
	if in.ExpectedState == "" || subtle.ConstantTimeCompare([]byte(in.State), []byte(in.ExpectedState)) != 1 {
		return nil, domainauth.NewFlowError(domainauth.ReasonCallbackError, errors.New("state mismatch"))
	}

	return shared(ctx, &f.inflight, "oauth:"+in.State, func(ctx context.Context) (*LoginResult, error) {
		sess, err := f.provider.CompleteOAuth(ctx, ports.CompleteOAuthInput{
			Provider: in.Provider,
			Code:     in.Code,
			State:    in.State,
			Nonce:    in.Nonce,
		})
		if err != nil {
			return nil, f.providerFailure(ctx, "complete oauth", err)
		}
		return f.authorize(ctx, sess)
	})
}

// Logout ends the session. It never fails: remote errors are logged and the
// local copy is always cleared.
func (f *AuthFlow) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if f.override != nil && f.override.Enabled() {
		if _, ok := f.override.Resolve(token); ok {
			f.logger.WarnContext(ctx, "break-glass session logged out")
			f.override.Revoke(token)
			f.sessions.Clear(token)
			return
		}
	}
	if err := f.provider.SignOut(ctx, token); err != nil {
		f.logger.WarnContext(ctx, "remote sign-out failed", "error", err)
	}
	f.sessions.Clear(token)
}

func (f *AuthFlow) authorize(ctx context.Context, sess *domainauth.Session) (*LoginResult, error) {
	if sess == nil || sess.Token == "" {
		return nil, domainauth.NewFlowError(domainauth.ReasonProviderUnavailable, errors.New("provider returned no session"))
	}
	decision := f.validator.IsAuthorized(ctx, sess)
	if !decision.Authorized() {
		f.revoke(ctx, sess.Token)
		f.logger.InfoContext(ctx, "sign-in refused", "user_id", sess.UserID, "decision", decision.String())
		return nil, domainauth.NewFlowError(domainauth.ReasonForDecision(decision), nil)
	}
	return &LoginResult{Session: sess, Decision: decision, Role: f.validator.RoleFor(sess, decision)}, nil
}

func (f *AuthFlow) revoke(ctx context.Context, token string) {
	if err := f.provider.SignOut(ctx, token); err != nil {
		f.logger.WarnContext(ctx, "sign-out of refused session failed", "error", err)
	}
	f.sessions.Clear(token)
}

func (f *AuthFlow) providerFailure(ctx context.Context, op string, err error) *domainauth.FlowError {
	var rej *domainauth.RejectionError
	switch {
	case errors.As(err, &rej):
		return &domainauth.FlowError{Reason: domainauth.ReasonValidation, Message: rej.Message, Field: rej.Field, Cause: err}
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		return domainauth.NewFlowError(domainauth.ReasonInvalidCredentials, err)
	case errors.Is(err, domainauth.ErrSessionNotFound):
		return domainauth.NewFlowError(domainauth.ReasonSessionExpired, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainauth.NewFlowError(domainauth.ReasonProviderUnavailable, err)
	default:
		f.logger.ErrorContext(ctx, "identity provider call failed", "op", op, "error", err)
		return domainauth.NewFlowError(domainauth.ReasonProviderUnavailable, err).WithDetail(err.Error())
	}
}

func (f *AuthFlow) record(flow string, err error) {
	if err == nil {
		f.metrics.AuthAttempt(flow, metrics.ResultSuccess)
		return
	}
	reason := domainauth.ReasonOf(err)
	if reason == "" {
		reason = domainauth.ReasonProviderUnavailable
	}
	f.metrics.AuthAttempt(flow, string(reason))
}

// shared runs fn once per key across concurrent callers. A caller whose ctx
// ends stops waiting; the shared call keeps running for the others.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	ch := g.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	var zero T
	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	case <-ctx.Done():
		return zero, domainauth.NewFlowError(domainauth.ReasonProviderUnavailable, ctx.Err())
	}
}
