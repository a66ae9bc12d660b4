package auth

import (
	"fmt"
	"strings"
)

// CredentialSource tags where a session came from. The two variants are never
// mixed: provider sessions go through the identity provider, static override
// sessions are minted locally from break-glass credentials.
type CredentialSource string

const (
	SourceProviderSession CredentialSource = "provider_session"
	SourceStaticOverride  CredentialSource = "static_override"
)

// Decision is the outcome of an authorization check. It is derived on every
// request and never stored.
type Decision int

const (
	DecisionDenied Decision = iota
	DecisionPending
	DecisionAuthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionAuthorized:
		return "authorized"
	case DecisionPending:
		return "pending"
	default:
		return "denied"
	}
}

// Authorized is shorthand for d == DecisionAuthorized.
func (d Decision) Authorized() bool { return d == DecisionAuthorized }

// Model selects the authorization rule set for a deployment. Exactly one is
// active at a time.
type Model string

const (
	ModelApproval  Model = "approval"
	ModelAllowList Model = "allowlist"
)

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (m *Model) UnmarshalText(text []byte) error {
	switch v := strings.ToLower(strings.TrimSpace(string(text))); v {
	case "", string(ModelApproval), "approval_flag":
		*m = ModelApproval
	case string(ModelAllowList), "allow_list", "allow-list":
		*m = ModelAllowList
	default:
		return fmt.Errorf("invalid authorization model %q", v)
	}
	return nil
}

// SupportsRegistration reports whether self-service sign-up is available.
func (m Model) SupportsRegistration() bool { return m != ModelAllowList }
