package httpx

import (
	"context"
	"net/http"
)

// UsersPage serves GET /admin/usuarios.
func (h *UIHandlers) UsersPage(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Usuários", CurrentPage: PageUsers, AdminArea: true},
		Fetch: func(ctx context.Context, data map[string]any) error {
			lists, err := h.Users.Lists(ctx)
			if err != nil {
				return err
			}
			data["Pending"] = lists.Pending
			data["Approved"] = lists.Approved
			data["Flash"] = userFlash[r.URL.Query().Get("ok")]
			return nil
		},
	})
}

var userFlash = map[string]string{
	"approved": "Usuário aprovado.",
	"revoked":  "Acesso revogado.",
}

// ApproveUser serves POST /admin/usuarios/{id}/aprovar.
func (h *UIHandlers) ApproveUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Users.Approve(r.Context(), r.PathValue("id"), actorOf(r)); err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, "/admin/usuarios?ok=approved")
}

// RevokeUser serves POST /admin/usuarios/{id}/revogar.
func (h *UIHandlers) RevokeUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Users.Revoke(r.Context(), r.PathValue("id"), actorOf(r)); err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, "/admin/usuarios?ok=revoked")
}
