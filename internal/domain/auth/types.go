package auth

// Package auth contains domain-level types for authentication, sessions and
// authorization decisions. It is pure and free of framework/adapter concerns.

import "time"

// Role represents what an authorized principal may do inside the admin area.
type Role string

const (
	// RoleAdmin is the designated administrator (user management).
	RoleAdmin Role = "admin"
	// RoleAgent is an approved broker (property management).
	RoleAgent Role = "agent"
	// RoleGuest is anyone else.
	RoleGuest Role = "guest"
)

// Identity represents the authenticated principal returned by a provider.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable provider identifier (account id, OIDC sub, Kratos identity id)
	Email     string
	Name      string
	ExpiresAt time.Time // absolute expiry from the provider token, zero when unknown
}

// Session is the server-side record we hold for an authenticated visitor.
// Token is opaque; the browser only ever sees it inside the session cookie.
type Session struct {
	Token     string           `json:"token"`
	UserID    string           `json:"user_id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Source    CredentialSource `json:"source"`
	IssuedAt  time.Time        `json:"issued_at"`
	ExpiresAt time.Time        `json:"expires_at"`

	// ProviderToken is the upstream session handle (e.g. a Kratos session token)
	// needed for remote sign-out. Never rendered.
	ProviderToken string `json:"provider_token,omitempty"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsOverride reports whether the session was issued by break-glass credentials.
func (s *Session) IsOverride() bool {
	return s != nil && s.Source == SourceStaticOverride
}

// UserMetadata is the approval record kept for every registered account.
type UserMetadata struct {
	ID         string    `json:"id"         db:"id"`
	UserID     string    `json:"user_id"    db:"user_id"`
	Email      string    `json:"email"      db:"email"`
	IsApproved bool      `json:"is_approved" db:"is_approved"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ChangeKind enumerates provider session change events.
type ChangeKind string

const (
	ChangeSignedIn       ChangeKind = "signed_in"
	ChangeSignedOut      ChangeKind = "signed_out"
	ChangeTokenRefreshed ChangeKind = "token_refreshed"
)

// ChangeEvent is emitted by the provider whenever a session changes state.
// Session is nil for ChangeSignedOut.
type ChangeEvent struct {
	Kind    ChangeKind `json:"kind"`
	Token   string     `json:"token"`
	Session *Session   `json:"session,omitempty"`
	At      time.Time  `json:"at"`
}
