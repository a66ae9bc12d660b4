package httpx

import (
	"context"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

type guardKey struct{}

// withGuardResult stores the guard outcome for downstream handlers.
func withGuardResult(ctx context.Context, res service.GuardResult) context.Context {
	return context.WithValue(ctx, guardKey{}, res)
}

// GuardResultFromContext returns the guard outcome for the request, if the guard ran.
func GuardResultFromContext(ctx context.Context) (service.GuardResult, bool) {
	res, ok := ctx.Value(guardKey{}).(service.GuardResult)
	return res, ok
}

// SessionFromContext returns the resolved session, or nil for visitors.
func SessionFromContext(ctx context.Context) *domainauth.Session {
	if res, ok := GuardResultFromContext(ctx); ok {
		return res.Session
	}
	return nil
}

// IsAuthorized reports whether the request carries an authorized session.
func IsAuthorized(ctx context.Context) bool {
	res, ok := GuardResultFromContext(ctx)
	return ok && res.Decision.Authorized()
}

// RoleFromContext returns the admin-area role, RoleGuest when unknown.
func RoleFromContext(ctx context.Context) domainauth.Role {
	if res, ok := GuardResultFromContext(ctx); ok && res.Role != "" {
		return res.Role
	}
	return domainauth.RoleGuest
}
