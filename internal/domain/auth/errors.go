package auth

import (
	"errors"
	"fmt"
)

// FailureReason classifies why an auth flow operation did not succeed.
type FailureReason string

const (
	ReasonProviderUnavailable  FailureReason = "provider_unavailable"
	ReasonInvalidCredentials   FailureReason = "invalid_credentials"
	ReasonPendingApproval      FailureReason = "pending_approval"
	ReasonNotAllowed           FailureReason = "not_allowed"
	ReasonSessionExpired       FailureReason = "session_expired"
	ReasonCallbackError        FailureReason = "callback_error"
	ReasonValidation           FailureReason = "validation"
	ReasonRegistrationDisabled FailureReason = "registration_disabled"
	ReasonInFlight             FailureReason = "in_flight"
)

var reasonMessages = map[FailureReason]string{
	ReasonProviderUnavailable:  "Serviço de autenticação indisponível. Tente novamente em instantes.",
	ReasonInvalidCredentials:   "E-mail ou senha inválidos.",
	ReasonPendingApproval:      "Sua conta ainda não foi aprovada pelo administrador.",
	ReasonNotAllowed:           "Acesso não autorizado.",
	ReasonSessionExpired:       "Sua sessão expirou. Faça login novamente.",
	ReasonCallbackError:        "Erro na autenticação.",
	ReasonValidation:           "Verifique os dados informados.",
	ReasonRegistrationDisabled: "O cadastro de novas contas não está disponível.",
	ReasonInFlight:             "Uma solicitação já está em andamento.",
}

// Message returns the user-facing text for the reason.
func (r FailureReason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return reasonMessages[ReasonProviderUnavailable]
}

// Provider-level sentinels. Adapters return (or wrap) these so the flow
// controller can classify failures without knowing provider specifics.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountExists       = errors.New("account already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrMetadataNotFound    = errors.New("user metadata not found")
)

// RejectionError is the provider refusing submitted input (a weak password,
// say) with a message that can be shown as is.
type RejectionError struct {
	Field   string
	Message string
}

func (e *RejectionError) Error() string { return "rejected: " + e.Message }

// FlowError is the only error type the auth flow controller returns. Message is
// safe to show; Detail is an optional secondary line; Cause is for logs only.
type FlowError struct {
	Reason  FailureReason
	Message string
	Detail  string
	Field   string
	Cause   error
}

// NewFlowError builds a FlowError with the default message for reason.
func NewFlowError(reason FailureReason, cause error) *FlowError {
	return &FlowError{Reason: reason, Message: reason.Message(), Cause: cause}
}

func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return string(e.Reason)
}

func (e *FlowError) Unwrap() error { return e.Cause }

// Retryable reports whether resubmitting the same input may succeed.
func (e *FlowError) Retryable() bool {
	return e.Reason == ReasonProviderUnavailable || e.Reason == ReasonInFlight
}

// WithDetail returns a copy with a secondary detail line.
func (e *FlowError) WithDetail(detail string) *FlowError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// ReasonOf extracts the FailureReason from err, or "" when err is not a FlowError.
func ReasonOf(err error) FailureReason {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// ReasonForDecision maps a non-authorized decision to the failure reason the
// user is told about.
func ReasonForDecision(d Decision) FailureReason {
	if d == DecisionPending {
		return ReasonPendingApproval
	}
	return ReasonNotAllowed
}
