// Package kratos is a credential backend that signs users in and up through
// Ory Kratos native (API) self-service flows.
package kratos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	kratosclient "github.com/ory/kratos-client-go"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/util"
)

// Kratos UI message ids we react to.
const (
	msgPasswordPolicy      = 4000005
	msgDuplicateAccount    = 4000007
	msgDuplicateIdentifier = 4000027
)

// Config configures a Backend.
type Config struct {
	PublicURL  string
	Timeout    time.Duration // default 10s
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Backend implements ports.CredentialBackend against the Kratos public API.
type Backend struct {
	api    *kratosclient.APIClient
	logger *slog.Logger
}

var _ ports.CredentialBackend = (*Backend)(nil)

// New builds a Backend for the Kratos public endpoint.
func New(cfg Config) (*Backend, error) {
	u, err := url.Parse(cfg.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Kratos public URL: %q", cfg.PublicURL)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	conf := kratosclient.NewConfiguration()
	conf.Servers = []kratosclient.ServerConfiguration{{URL: strings.TrimSuffix(cfg.PublicURL, "/")}}
	conf.HTTPClient = httpClient
	conf.DefaultHeader = map[string]string{"Accept": "application/json"}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{api: kratosclient.NewAPIClient(conf), logger: logger.With("component", "kratos")}, nil
}

// Authenticate runs a native login flow with the password method.
func (b *Backend) Authenticate(ctx context.Context, in ports.PasswordSignInInput) (*ports.CredentialResult, error) {
	email, err := util.NormalizeEmail(in.Identifier)
	if err != nil {
		return nil, domainauth.ErrInvalidCredentials
	}
	flow, resp, err := b.api.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, b.unavailable("create login flow", resp, err)
	}

	body := kratosclient.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   in.Secret,
	}
	out, resp, err := b.api.FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratosclient.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		if statusOf(resp) == http.StatusBadRequest {
			return nil, domainauth.ErrInvalidCredentials
		}
		return nil, b.unavailable("submit login flow", resp, err)
	}

	id := identityFrom(out.Session.Identity)
	if out.Session.ExpiresAt != nil {
		id.ExpiresAt = *out.Session.ExpiresAt
	}
	if id.Email == "" {
		id.Email = email
	}
	return &ports.CredentialResult{Identity: id, ProviderToken: out.GetSessionToken()}, nil
}

// Register runs a native registration flow. A session Kratos may issue on
// registration is revoked; new accounts sign in after approval.
func (b *Backend) Register(ctx context.Context, in ports.SignUpInput) (*ports.SignUpResult, error) {
	email, err := util.NormalizeEmail(in.Email)
	if err != nil {
		return nil, &domainauth.RejectionError{Field: "email", Message: "Informe um e-mail válido."}
	}
	flow, resp, err := b.api.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return nil, b.unavailable("create registration flow", resp, err)
	}

	body := kratosclient.UpdateRegistrationFlowWithPasswordMethod{
		Method:   "password",
		Password: in.Password,
		Traits:   map[string]interface{}{"email": email, "name": strings.TrimSpace(in.Name)},
	}
	out, resp, err := b.api.FrontendAPI.UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(kratosclient.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(&body)).
		Execute()
	if err != nil {
		if statusOf(resp) == http.StatusBadRequest {
			return nil, registrationRejection(err)
		}
		return nil, b.unavailable("submit registration flow", resp, err)
	}

	if tok := out.GetSessionToken(); tok != "" {
		if revokeErr := b.Revoke(ctx, tok); revokeErr != nil {
			b.logger.WarnContext(ctx, "revoke registration session failed", "error", revokeErr)
		}
	}
	return &ports.SignUpResult{UserID: out.Identity.Id, Email: email}, nil
}

// Revoke ends a Kratos session by its session token.
func (b *Backend) Revoke(ctx context.Context, providerToken string) error {
	if providerToken == "" {
		return nil
	}
	resp, err := b.api.FrontendAPI.PerformNativeLogout(ctx).
		PerformNativeLogoutBody(kratosclient.PerformNativeLogoutBody{SessionToken: providerToken}).
		Execute()
	if err != nil {
		// Unknown or already revoked tokens are fine.
		if s := statusOf(resp); s == http.StatusBadRequest || s == http.StatusUnauthorized || s == http.StatusNotFound {
			return nil
		}
		return b.unavailable("native logout", resp, err)
	}
	return nil
}

func (b *Backend) unavailable(op string, resp *http.Response, err error) error {
	b.logger.Error("kratos call failed", "op", op, "status", statusOf(resp), "error", err)
	return fmt.Errorf("%w: kratos %s: %w", domainauth.ErrProviderUnavailable, op, err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// identityFrom maps Kratos traits {email, name} to an Identity. name may be a
// string or an object with first/last.
func identityFrom(ident *kratosclient.Identity) domainauth.Identity {
	if ident == nil {
		return domainauth.Identity{}
	}
	id := domainauth.Identity{UserID: ident.Id}
	traits, _ := ident.Traits.(map[string]interface{})
	if email, ok := traits["email"].(string); ok {
		id.Email = strings.ToLower(email)
	}
	switch name := traits["name"].(type) {
	case string:
		id.Name = name
	case map[string]interface{}:
		first, _ := name["first"].(string)
		last, _ := name["last"].(string)
		id.Name = strings.TrimSpace(first + " " + last)
	}
	return id
}

type uiMessage struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type flowErrorBody struct {
	UI struct {
		Messages []uiMessage `json:"messages"`
		Nodes    []struct {
			Attributes struct {
				Name string `json:"name"`
			} `json:"attributes"`
			Messages []uiMessage `json:"messages"`
		} `json:"nodes"`
	} `json:"ui"`
}

// registrationRejection classifies the flow Kratos returns with a 400.
func registrationRejection(err error) error {
	var apiErr *kratosclient.GenericOpenAPIError
	if !errors.As(err, &apiErr) {
		return &domainauth.RejectionError{Message: "Não foi possível concluir o cadastro."}
	}
	var body flowErrorBody
	if jsonErr := json.Unmarshal(apiErr.Body(), &body); jsonErr != nil {
		return &domainauth.RejectionError{Message: "Não foi possível concluir o cadastro."}
	}

	type located struct {
		field string
		msg   uiMessage
	}
	var msgs []located
	for _, m := range body.UI.Messages {
		msgs = append(msgs, located{msg: m})
	}
	for _, n := range body.UI.Nodes {
		field := strings.TrimPrefix(n.Attributes.Name, "traits.")
		for _, m := range n.Messages {
			msgs = append(msgs, located{field: field, msg: m})
		}
	}
	for _, l := range msgs {
		switch l.msg.ID {
		case msgDuplicateAccount, msgDuplicateIdentifier:
			return domainauth.ErrAccountExists
		case msgPasswordPolicy:
			return &domainauth.RejectionError{Field: "password", Message: "A senha não atende aos requisitos de segurança."}
		}
	}
	for _, l := range msgs {
		if l.msg.Type == "error" {
			return &domainauth.RejectionError{Field: l.field, Message: l.msg.Text}
		}
	}
	return &domainauth.RejectionError{Message: "Não foi possível concluir o cadastro."}
}
