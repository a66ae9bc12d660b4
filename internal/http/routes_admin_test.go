package httpx

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_AnonymousAdminRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/admin", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec, sessionCookieName))
}

func TestGuard_ExpiredSessionClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/admin/imoveis/novo", "stale-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?reason=session_expired", rec.Header().Get("Location"))
	ck := findCookie(rec, sessionCookieName)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestGuard_PendingAccountIsTurnedAway(t *testing.T) {
	env := newTestEnv(t)
	var ended string
	env.auth.LogoutFn = func(_ context.Context, token string) { ended = token }

	rec := env.get(t, "/admin", "pending-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?reason=pending_approval", rec.Header().Get("Location"))
	assert.Equal(t, "pending-token", ended)
	ck := findCookie(rec, sessionCookieName)
	require.NotNil(t, ck)
	assert.Negative(t, ck.MaxAge)
}

func TestGuard_HTMXRedirectUsesHeader(t *testing.T) {
	env := newTestEnv(t)

	req := env.request(http.MethodGet, "/admin", nil, "")
	req.Header.Set("Hx-Request", "true")
	rec := env.serve(req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Hx-Redirect"))
}

func TestGuard_LoginPageBouncesSignedInUsers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/login", "agent-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestGuard_StalledProviderShowsCheckingOnlyOnProtectedPaths(t *testing.T) {
	env := newTestEnv(t, withGuardTimeout(20*time.Millisecond))
	env.sessions.stall = true

	rec := env.get(t, "/admin", "admin-token")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("body.page-checking").Length())
	assert.Equal(t, 0, doc.Find("table").Length(), "no admin content while checking")
	refresh, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	assert.Equal(t, "1;url=/admin", refresh)

	rec = env.get(t, "/", "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, parseHTML(t, rec).Find("article.property-card").Length())
}

func TestDashboard_RendersStatsForAgent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/admin?ok=created", "agent-token")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)

	stat := func(name string) string {
		return strings.TrimSpace(doc.Find(`[data-stat="` + name + `"] .stat-value`).Text())
	}
	assert.Equal(t, "2", stat("total"))
	assert.Equal(t, "1", stat("available"))
	assert.Equal(t, "1", stat("sold"))
	assert.Equal(t, "2", stat("likes"))
	assert.Empty(t, stat("pending"), "pending count is admin only")
	assert.Equal(t, "Imóvel cadastrado com sucesso.", strings.TrimSpace(doc.Find(".alert-success").Text()))
	assert.Equal(t, 2, doc.Find("tr[data-property-id]").Length())
	assert.Equal(t, 0, doc.Find(`.admin-bar a[href="/admin/usuarios"]`).Length())
	assert.Equal(t, 1, doc.Find(`.admin-bar form[action="/logout"]`).Length())
}

func TestDashboard_AdminSeesUserManagement(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/admin", "admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, "1", strings.TrimSpace(doc.Find(`[data-stat="pending"] .stat-value`).Text()))
	assert.Equal(t, 1, doc.Find(`.admin-bar a[href="/admin/usuarios"]`).Length())
}

func TestUsers_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.users.lists.Pending = []*domainauth.UserMetadata{{UserID: "u-1", Email: testPending, CreatedAt: time.Now()}}
	env.users.lists.Approved = []*domainauth.UserMetadata{{UserID: "u-2", Email: testAgentEmail, IsApproved: true, UpdatedAt: time.Now()}}

	rec := env.get(t, "/admin/usuarios", "agent-token")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Acesso restrito", strings.TrimSpace(parseHTML(t, rec).Find(".error-page h1").Text()))

	rec = env.get(t, "/admin/usuarios", "admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	id, _ := doc.Find("#pending-users tr[data-user-id]").Attr("data-user-id")
	assert.Equal(t, "u-1", id)
	assert.Equal(t, 1, doc.Find("#approved-users tr[data-user-id]").Length())
}

func TestUsers_ApproveAndRevokeRecordActor(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/admin/usuarios/u-1/aprovar", nil, "admin-token")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/usuarios?ok=approved", rec.Header().Get("Location"))

	rec = env.postForm(t, "/admin/usuarios/u-2/revogar", nil, "admin-token")
	assert.Equal(t, "/admin/usuarios?ok=revoked", rec.Header().Get("Location"))

	rec = env.postForm(t, "/admin/usuarios/u-3/aprovar", nil, "agent-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, []string{"u-1"}, env.users.approved)
	assert.Equal(t, []string{"u-2"}, env.users.revoked)
	assert.Equal(t, []string{testAdminEmail, testAdminEmail}, env.users.actors)
}

// multipartBody builds a property form with the given image files.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField(DefaultCSRFFieldName, testCSRFToken))
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateProperty_SavesUploadsAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	body, ctype := multipartBody(t, map[string]string{
		"title": " Casa nova ", "type": "Casa", "price": "R$ 500.000", "details": "Ampla.", "sold": "on",
	}, map[string][]byte{"frente.jpg": []byte("jpeg-bytes")})

	req := env.request(http.MethodPost, "/admin/imoveis", body, "agent-token")
	req.Header.Set("Content-Type", ctype)
	rec := env.serve(req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?ok=created", rec.Header().Get("Location"))
	require.Len(t, env.properties.created, 1)
	created := env.properties.created[0]
	assert.Equal(t, "Casa nova", created.Title)
	assert.True(t, created.Sold)
	assert.Equal(t, []string{"/media/properties/img-a.jpg"}, created.Images)
	require.Len(t, env.images.saved, 1)
	assert.Equal(t, "frente.jpg", env.images.saved[0].Filename)
	assert.Equal(t, []byte("jpeg-bytes"), env.images.bodies[0])
	assert.Empty(t, env.images.removed)
}

func TestCreateProperty_ValidationRemovesUploads(t *testing.T) {
	env := newTestEnv(t)
	env.properties.createErr = apperrors.ValidationField("price", "Informe o preço.")
	body, ctype := multipartBody(t, map[string]string{"title": "Sem preço", "details": "x"},
		map[string][]byte{"a.jpg": []byte("a")})

	req := env.request(http.MethodPost, "/admin/imoveis", body, "agent-token")
	req.Header.Set("Content-Type", ctype)
	rec := env.serve(req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"/media/properties/img-a.jpg"}, env.images.removed)
	doc := parseHTML(t, rec)
	assert.Equal(t, "Informe o preço.", strings.TrimSpace(doc.Find(`p.field-error[data-field="price"]`).Text()))
	title, _ := doc.Find(`input[name="title"]`).Attr("value")
	assert.Equal(t, "Sem preço", title)
}

func TestUpdateProperty_ReplacesGalleryUnlessKept(t *testing.T) {
	t.Run("replace", func(t *testing.T) {
		env := newTestEnv(t)
		body, ctype := multipartBody(t, map[string]string{"title": "Casa com quintal", "price": "R$ 450.000", "details": "x"},
			map[string][]byte{"n.jpg": []byte("n")})
		req := env.request(http.MethodPost, "/admin/imoveis/p1", body, "agent-token")
		req.Header.Set("Content-Type", ctype)
		rec := env.serve(req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin?ok=updated", rec.Header().Get("Location"))
		assert.Equal(t, []string{"/media/properties/img-a.jpg"}, *env.properties.updated["p1"].Images)
		assert.Equal(t, []string{"/media/properties/p1-a.jpg", "/media/properties/p1-b.jpg"}, env.images.removed)
	})

	t.Run("keep", func(t *testing.T) {
		env := newTestEnv(t)
		body, ctype := multipartBody(t, map[string]string{"title": "Casa com quintal", "price": "R$ 450.000", "details": "x", "keep_images": "on"},
			map[string][]byte{"n.jpg": []byte("n")})
		req := env.request(http.MethodPost, "/admin/imoveis/p1", body, "agent-token")
		req.Header.Set("Content-Type", ctype)
		rec := env.serve(req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, []string{"/media/properties/p1-a.jpg", "/media/properties/p1-b.jpg", "/media/properties/img-a.jpg"},
			*env.properties.updated["p1"].Images)
		assert.Empty(t, env.images.removed)
	})

	t.Run("no uploads keeps gallery", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.postForm(t, "/admin/imoveis/p1", url.Values{"title": {"Casa"}, "price": {"R$ 1"}, "details": {"x"}}, "agent-token")

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, []string{"/media/properties/p1-a.jpg", "/media/properties/p1-b.jpg"}, *env.properties.updated["p1"].Images)
		assert.Empty(t, env.images.saved)
	})
}

func TestEditPropertyPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/admin/imoveis/p1/editar", "agent-token")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	action, _ := doc.Find("form.property-form").Attr("action")
	assert.Equal(t, "/admin/imoveis/p1", action)
	assert.Equal(t, 2, doc.Find(".thumbs img").Length())
	_, keep := doc.Find(`input[name="keep_images"]`).Attr("checked")
	assert.True(t, keep)

	rec = env.get(t, "/admin/imoveis/zzz/editar", "agent-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAndToggleSold(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postForm(t, "/admin/imoveis/p2/vendido", nil, "agent-token")
	assert.Equal(t, "/admin?ok=sold", rec.Header().Get("Location"))
	assert.False(t, env.properties.props["p2"].Sold)

	rec = env.postForm(t, "/admin/imoveis/p2/excluir", nil, "agent-token")
	assert.Equal(t, "/admin?ok=deleted", rec.Header().Get("Location"))
	assert.NotContains(t, env.properties.props, "p2")

	rec = env.postForm(t, "/admin/imoveis/p2/excluir", nil, "agent-token")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMedia(t *testing.T) {
	env := newTestEnv(t)
	env.images.objects["properties/a.png"] = []byte("png-bytes")

	rec := env.get(t, "/media/properties/a.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=604800", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = env.get(t, "/media/properties/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
