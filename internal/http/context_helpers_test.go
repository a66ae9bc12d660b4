package httpx

import (
	"context"
	"testing"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestGuardResultContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, SessionFromContext(ctx))
	assert.False(t, IsAuthorized(ctx))
	assert.Equal(t, domainauth.RoleGuest, RoleFromContext(ctx))

	sess := &domainauth.Session{Token: "t1", Email: "admin@dharmaimoveis.com.br"}
	ctx = withGuardResult(ctx, service.GuardResult{
		State:    service.GuardAllowed,
		Decision: domainauth.DecisionAuthorized,
		Role:     domainauth.RoleAdmin,
		Session:  sess,
	})
	assert.Same(t, sess, SessionFromContext(ctx))
	assert.True(t, IsAuthorized(ctx))
	assert.Equal(t, domainauth.RoleAdmin, RoleFromContext(ctx))
}

func TestContentTemplateFor(t *testing.T) {
	assert.Equal(t, "catalog-content", ContentTemplateFor(PageCatalog))
	assert.Equal(t, "not-found-content", ContentTemplateFor("nope"))
}
