package service

import (
	"context"
	"errors"
	"log/slog"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/ports"
)

// AuthorizationPolicy configures which rule set decides admin access.
type AuthorizationPolicy struct {
	Model      domainauth.Model
	AdminEmail string   // always authorized
	AllowList  []string // consulted only by ModelAllowList; exact match
}

// CredentialValidatorOptions groups dependencies for CredentialValidator.
type CredentialValidatorOptions struct {
	Metadata ports.UserMetadataReader // Required for ModelApproval
	Policy   AuthorizationPolicy
	Roles    ports.RoleMapper // Required
	Logger   *slog.Logger
}

// CredentialValidator decides whether a session may reach the admin area.
type CredentialValidator struct {
	metadata  ports.UserMetadataReader
	model     domainauth.Model
	admin     string
	allowList map[string]struct{}
	roles     ports.RoleMapper
	logger    *slog.Logger
}

// NewCredentialValidator constructs a CredentialValidator.
func NewCredentialValidator(opts CredentialValidatorOptions) *CredentialValidator {
	model := opts.Policy.Model
	if model == "" {
		model = domainauth.ModelApproval
	}
	if model == domainauth.ModelApproval && opts.Metadata == nil {
		panic("CredentialValidator requires Metadata for the approval model")
	}
	allow := make(map[string]struct{}, len(opts.Policy.AllowList))
	for _, e := range opts.Policy.AllowList {
		if e != "" {
			allow[e] = struct{}{}
		}
	}
	if opts.Roles == nil {
		panic("CredentialValidator requires a RoleMapper")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialValidator{
		metadata:  opts.Metadata,
		model:     model,
		admin:     opts.Policy.AdminEmail,
		allowList: allow,
		roles:     opts.Roles,
		logger:    logger.With("component", "credential_validator"),
	}
}

// Model reports the active authorization model.
func (v *CredentialValidator) Model() domainauth.Model { return v.model }

// IsAuthorized evaluates sess against the active model. Lookup failures yield
// DecisionPending, never an error.
func (v *CredentialValidator) IsAuthorized(ctx context.Context, sess *domainauth.Session) domainauth.Decision {
	if sess == nil {
		return domainauth.DecisionDenied
	}
	if sess.IsOverride() {
		return domainauth.DecisionAuthorized
	}
	if v.admin != "" && sess.Email == v.admin {
		return domainauth.DecisionAuthorized
	}

	if v.model == domainauth.ModelAllowList {
		if _, ok := v.allowList[sess.Email]; ok {
			return domainauth.DecisionAuthorized
		}
		return domainauth.DecisionDenied
	}

	meta, err := v.metadata.GetByUserID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, domainauth.ErrMetadataNotFound) {
			v.logger.WarnContext(ctx, "approval lookup failed", "user_id", sess.UserID, "error", err)
		}
		return domainauth.DecisionPending
	}
	if meta != nil && meta.IsApproved {
		return domainauth.DecisionAuthorized
	}
	return domainauth.DecisionPending
}

// RoleFor returns the admin-area role for sess given its decision.
func (v *CredentialValidator) RoleFor(sess *domainauth.Session, decision domainauth.Decision) domainauth.Role {
	return v.roles.Map(sess, decision)
}
