package httpx

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

// propertyForm holds submitted values so a failed save can re-render them.
type propertyForm struct {
	ID         string
	Title      string
	Location   string
	Type       string
	Price      string
	Details    string
	Ref        string
	Sold       bool
	Images     []string
	KeepImages bool
}

func formFromProperty(p *model.Property) propertyForm {
	return propertyForm{
		ID:         p.ID,
		Title:      p.Title,
		Location:   p.Location,
		Type:       p.Type,
		Price:      p.Price,
		Details:    p.Details,
		Ref:        p.Ref,
		Sold:       p.Sold,
		Images:     p.Gallery(),
		KeepImages: true,
	}
}

func readPropertyForm(r *http.Request) propertyForm {
	v := func(k string) string { return strings.TrimSpace(r.PostFormValue(k)) }
	return propertyForm{
		Title:      v("title"),
		Location:   v("location"),
		Type:       v("type"),
		Price:      v("price"),
		Details:    v("details"),
		Ref:        v("ref"),
		Sold:       checked(r.PostFormValue("sold")),
		KeepImages: checked(r.PostFormValue("keep_images")),
	}
}

// DashboardPage serves GET /admin.
func (h *UIHandlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Painel", CurrentPage: PageDashboard, AdminArea: true},
		Fetch: func(ctx context.Context, data map[string]any) error {
			d, err := h.Dashboard.Load(ctx)
			if err != nil {
				return err
			}
			data["Dashboard"] = d
			data["Flash"] = flashMessage(r.URL.Query().Get("ok"))
			return nil
		},
	})
}

var flashMessages = map[string]string{
	"created": "Imóvel cadastrado com sucesso.",
	"updated": "Imóvel atualizado.",
	"deleted": "Imóvel excluído.",
	"sold":    "Status de venda atualizado.",
}

func flashMessage(key string) string { return flashMessages[key] }

// NewPropertyPage serves GET /admin/imoveis/novo.
func (h *UIHandlers) NewPropertyPage(w http.ResponseWriter, r *http.Request) {
	h.renderPropertyForm(w, r, http.StatusOK, propertyForm{}, nil)
}

// EditPropertyPage serves GET /admin/imoveis/{id}/editar.
func (h *UIHandlers) EditPropertyPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.Properties.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPropertyForm(w, r, http.StatusOK, formFromProperty(p), nil)
}

func (h *UIHandlers) renderPropertyForm(w http.ResponseWriter, r *http.Request, status int, form propertyForm, errs map[string]string) {
	title := "Novo imóvel"
	if form.ID != "" {
		title = "Editar imóvel"
	}
	if errs == nil {
		errs = map[string]string{}
	}
	h.renderWith(w, r, status, PageMeta{Title: title, CurrentPage: PagePropertyForm, AdminArea: true}, map[string]any{
		"Form":        form,
		"Errors":      errs,
		"IsEdit":      form.ID != "",
		"TypeOptions": typeOptions(form.Type, "Selecione"),
		"MaxImages":   model.MaxImages,
	})
}

// CreateProperty serves POST /admin/imoveis.
func (h *UIHandlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemorySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderPropertyForm(w, r, http.StatusBadRequest, propertyForm{}, map[string]string{"images": "Não foi possível ler o envio."})
		return
	}
	form := readPropertyForm(r)

	urls, err := h.saveUploads(r)
	if err != nil {
		h.formFailure(w, r, form, err)
		return
	}
	form.Images = urls

	p, err := h.Properties.Create(r.Context(), &model.CreatePropertyRequest{
		Title:    form.Title,
		Location: form.Location,
		Type:     form.Type,
		Price:    form.Price,
		Details:  form.Details,
		Ref:      form.Ref,
		Images:   urls,
		Sold:     form.Sold,
	})
	if err != nil {
		h.Images.Remove(r.Context(), urls)
		form.Images = nil
		h.formFailure(w, r, form, err)
		return
	}
	h.logger().InfoContext(r.Context(), "property saved from admin", "property_id", p.ID, "actor", actorOf(r))
	redirect(w, r, "/admin?ok=created")
}

// UpdateProperty serves POST /admin/imoveis/{id}. New uploads replace the
// gallery unless keep_images is checked, in which case they are appended.
func (h *UIHandlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.Properties.GetByID(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(multipartMemorySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderPropertyForm(w, r, http.StatusBadRequest, formFromProperty(existing), map[string]string{"images": "Não foi possível ler o envio."})
		return
	}
	form := readPropertyForm(r)
	form.ID = id

	uploaded, err := h.saveUploads(r)
	if err != nil {
		form.Images = existing.Gallery()
		h.formFailure(w, r, form, err)
		return
	}
	images := existing.Gallery()
	var replaced []string
	switch {
	case len(uploaded) > 0 && form.KeepImages:
		images = append(append([]string{}, images...), uploaded...)
	case len(uploaded) > 0:
		replaced = images
		images = uploaded
	}
	form.Images = images

	_, err = h.Properties.Update(r.Context(), id, model.UpdatePropertyRequest{
		Title:    &form.Title,
		Location: &form.Location,
		Type:     &form.Type,
		Price:    &form.Price,
		Details:  &form.Details,
		Ref:      &form.Ref,
		Images:   &images,
		Sold:     &form.Sold,
	})
	if err != nil {
		h.Images.Remove(r.Context(), uploaded)
		form.Images = existing.Gallery()
		h.formFailure(w, r, form, err)
		return
	}
	h.Images.Remove(r.Context(), replaced)
	redirect(w, r, "/admin?ok=updated")
}

// DeleteProperty serves POST /admin/imoveis/{id}/excluir.
func (h *UIHandlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ok, err := h.Properties.Delete(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if !ok {
		h.NotFound(w, r)
		return
	}
	h.logger().InfoContext(r.Context(), "property deleted from admin", "property_id", id, "actor", actorOf(r))
	redirect(w, r, "/admin?ok=deleted")
}

// ToggleSold serves POST /admin/imoveis/{id}/vendido.
func (h *UIHandlers) ToggleSold(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Properties.ToggleSold(r.Context(), r.PathValue("id")); err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, "/admin?ok=sold")
}

// formFailure re-renders the property form, attaching validation errors to
// their field.
func (h *UIHandlers) formFailure(w http.ResponseWriter, r *http.Request, form propertyForm, err error) {
	if !apperrors.IsValidation(err) {
		h.renderError(w, r, err)
		return
	}
	field := apperrors.GetField(err)
	if field == "" {
		field = "form"
	}
	h.renderPropertyForm(w, r, http.StatusUnprocessableEntity, form, map[string]string{field: apperrors.MessageOf(err)})
}

// saveUploads stores the files posted as "images" and returns their URLs.
func (h *UIHandlers) saveUploads(r *http.Request) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > model.MaxImages {
		return nil, apperrors.ValidationField("images", fmt.Sprintf("Máximo de %d imagens por imóvel.", model.MaxImages))
	}
	uploads := make([]service.Upload, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		if fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Size: fh.Size, Body: f})
	}
	if len(uploads) == 0 {
		return nil, nil
	}
	return h.Images.Save(r.Context(), uploads)
}

func actorOf(r *http.Request) string {
	if sess := SessionFromContext(r.Context()); sess != nil {
		return sess.Email
	}
	return ""
}
