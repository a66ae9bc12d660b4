package oidc

// Package oidc implements OAuth sign-in (Google and other OpenID Connect
// issuers) for the identity gateway.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the issuer URL used when none is configured.
const GoogleIssuer = "https://accounts.google.com"

// Provider implements ports.OAuthProvider against an OpenID Connect issuer.
type Provider struct {
	config               *oauth2.Config
	httpClient           *http.Client
	verifier             *gooidc.IDTokenVerifier
	userInfo             func(ctx context.Context, ts oauth2.TokenSource) (*gooidc.UserInfo, error)
	requireVerifiedEmail bool
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string // space separated; defaults to "openid email profile"
	Issuer       string // defaults to GoogleIssuer
	HTTPClient   *http.Client
	// AllowUnverifiedEmail accepts identities whose email_verified claim is false.
	AllowUnverifiedEmail bool
}

// NewProvider discovers the issuer and builds a Provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	issuer := strings.TrimSpace(config.Issuer)
	if issuer == "" {
		issuer = GoogleIssuer
	}
	issuer = strings.TrimSuffix(strings.TrimSuffix(issuer, "/.well-known/openid-configuration"), "/")

	ctx = gooidc.ClientContext(ctx, httpClient)
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scope := config.Scope
	if strings.TrimSpace(scope) == "" {
		scope = "openid email profile"
	}
	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:           httpClient,
		verifier:             op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
		userInfo:             op.UserInfo,
		requireVerifiedEmail: !config.AllowUnverifiedEmail,
	}, nil
}

// Begin returns the authorization URL plus fresh state and nonce values.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange trades the code for tokens, verifies the ID token and its nonce,
// and maps the claims to an Identity.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if in.Code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	if in.Nonce == "" {
		return domainauth.Identity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := idTokenFrom(token)
	if err != nil {
		return domainauth.Identity{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != in.Nonce {
		return domainauth.Identity{}, errors.New("invalid nonce")
	}

	var c claims
	if err := idTok.Claims(&c); err != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if c.Email == "" {
		if err := p.fillFromUserInfo(ctx, token, &c); err != nil {
			return domainauth.Identity{}, fmt.Errorf("get user info: %w", err)
		}
	}
	if c.Email == "" {
		return domainauth.Identity{}, errors.New("identity has no email")
	}
	if p.requireVerifiedEmail && !bool(c.EmailVerified) {
		return domainauth.Identity{}, fmt.Errorf("email %s is not verified", c.Email)
	}

	return domainauth.Identity{
		UserID:    firstNonEmpty(c.Subject, idTok.Subject),
		Email:     strings.ToLower(c.Email),
		Name:      firstNonEmpty(c.Name, strings.TrimSpace(c.GivenName+" "+c.FamilyName)),
		ExpiresAt: idTok.Expiry,
	}, nil
}

// claims is the standard OIDC profile subset we read.
type claims struct {
	Subject       string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
}

// flexBool accepts both true and "true"; some issuers send strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, token *oauth2.Token, c *claims) error {
	ui, err := p.userInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return err
	}
	var extra claims
	if err := ui.Claims(&extra); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	c.Email = firstNonEmpty(c.Email, ui.Email)
	c.EmailVerified = c.EmailVerified || flexBool(ui.EmailVerified)
	c.Name = firstNonEmpty(c.Name, extra.Name)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString returns a URL-safe random string of exactly length characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func idTokenFrom(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
