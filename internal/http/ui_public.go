package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/http/ui/viewmodel"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/service"
)

// PropertyCard is one listing with the current visitor's like state.
type PropertyCard struct {
	*model.Property
	Liked    bool
	WhatsApp string
}

// Bank is a financing simulator offered on /financiamento.
type Bank struct {
	Name string
	URL  string
}

var financingBanks = []Bank{
	{Name: "Caixa Econômica Federal", URL: "https://habitacao.caixa.gov.br/siopiweb-web/simulaOperacaoInternet.do?method=inicializarCasoUso"},
	{Name: "Banco do Brasil", URL: "https://www.bb.com.br/site/pra-voce/financiamentos/financiamento-imobiliario/"},
	{Name: "Itaú", URL: "https://credito-imobiliario.itau.com.br/"},
	{Name: "Bradesco", URL: "https://banco.bradesco/html/classic/produtos-servicos/emprestimo-e-financiamento/encontre-seu-credito/simuladores-imoveis.shtm"},
	{Name: "Santander", URL: "https://www.santander.com.br/atendimento-para-voce/simuladores/simulador-credito-imobiliario"},
	{Name: "Creditas", URL: "https://www.creditas.com/imoveis/financiamento-imobiliario"},
	{Name: "Sicoob", URL: "https://www.sicoob.com.br/web/sicoob/credito-imobiliario"},
	{Name: "Banco Inter", URL: "https://www.bancointer.com.br/credito/credito-imobiliario/"},
}

var statusLabels = []viewmodel.Option{
	{Value: string(model.PropertyStatusAll), Label: "Todos"},
	{Value: string(model.PropertyStatusAvailable), Label: "Disponíveis"},
	{Value: string(model.PropertyStatusSold), Label: "Vendidos"},
}

// Catalog serves GET /: the public listing with type and status filters.
func (h *UIHandlers) Catalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.CatalogFilter{
		Type:   strings.TrimSpace(q.Get("tipo")),
		Status: model.ParsePropertyStatus(q.Get("status")),
	}
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Imóveis", CurrentPage: PageCatalog},
		Fetch: func(ctx context.Context, data map[string]any) error {
			props, err := h.Properties.Catalog(ctx, filter)
			if err != nil {
				return err
			}
			data["Properties"] = h.cards(ctx, r, props)
			data["Count"] = len(props)
			data["Filter"] = filter
			data["TypeOptions"] = typeOptions(filter.Type, "Todos os tipos")
			data["StatusOptions"] = statusOptions(filter.Status)
			return nil
		},
	})
}

// PropertyDetail serves GET /imoveis/{id}.
func (h *UIHandlers) PropertyDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.Page(w, r, PageSpec{
		Meta: PageMeta{CurrentPage: PageProperty},
		Fetch: func(ctx context.Context, data map[string]any) error {
			p, err := h.Properties.GetByID(ctx, id)
			if err != nil {
				return err
			}
			cards := h.cards(ctx, r, []*model.Property{p})
			data["Title"] = p.Title
			data["Card"] = cards[0]
			data["Gallery"] = p.Gallery()
			return nil
		},
	})
}

func (h *UIHandlers) cards(ctx context.Context, r *http.Request, props []*model.Property) []PropertyCard {
	var liked map[string]bool
	if visitor := existingVisitorID(r); visitor != "" && h.Likes != nil {
		ids := make([]string, len(props))
		for i, p := range props {
			ids[i] = p.ID
		}
		liked = h.Likes.LikedBy(ctx, visitor, ids)
	}
	out := make([]PropertyCard, len(props))
	for i, p := range props {
		out[i] = PropertyCard{Property: p, Liked: liked[p.ID], WhatsApp: h.Inquiry.Link(p)}
	}
	return out
}

// ToggleLike serves POST /imoveis/{id}/curtir. htmx gets the refreshed button,
// JSON callers the counters, everyone else a redirect back.
func (h *UIHandlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	visitor := h.Cookies.visitorID(w, r)
	res, err := h.Likes.Toggle(r.Context(), id, visitor)
	if err != nil {
		if wantsJSON(r) {
			WriteError(w, ErrorParams{Code: statusOf(err), ErrCode: "like_failed", Err: err})
			return
		}
		h.renderError(w, r, err)
		return
	}

	switch {
	case IsHTMX(r):
		data := map[string]any{
			"ID":        res.PropertyID,
			"Liked":     res.Liked,
			"Likes":     res.Likes,
			"CSRFToken": GetCSRFToken(r),
		}
		SetHXTrigger(w, likeToggledEvent, res)
		if err := h.T.Render(w, http.StatusOK, "like-button", data); err != nil {
			h.logAndRenderTemplateError(w, r, err)
		}
	case wantsJSON(r):
		WriteJSON(w, http.StatusOK, res)
	default:
		http.Redirect(w, r, backTo(r, "/imoveis/"+id), http.StatusSeeOther)
	}
}

// About serves GET /sobre.
func (h *UIHandlers) About(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: PageMeta{Title: "Sobre", CurrentPage: PageAbout}})
}

// Financing serves GET /financiamento.
func (h *UIHandlers) Financing(w http.ResponseWriter, r *http.Request) {
	h.renderWith(w, r, http.StatusOK, PageMeta{Title: "Financiamento", CurrentPage: PageFinancing}, map[string]any{
		"Banks": financingBanks,
	})
}

func typeOptions(selected, allLabel string) []viewmodel.Option {
	opts := make([]viewmodel.Option, 0, len(model.PropertyTypes)+1)
	if allLabel != "" {
		opts = append(opts, viewmodel.Option{Value: "", Label: allLabel, Selected: selected == ""})
	}
	for _, t := range model.PropertyTypes {
		opts = append(opts, viewmodel.Option{Value: t, Label: t, Selected: strings.EqualFold(t, selected)})
	}
	return opts
}

func statusOptions(selected model.PropertyStatus) []viewmodel.Option {
	opts := make([]viewmodel.Option, len(statusLabels))
	for i, o := range statusLabels {
		o.Selected = o.Value == string(selected)
		opts[i] = o
	}
	return opts
}

// backTo returns the same-origin page the request came from, or fallback.
func backTo(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	return safeRedirectPath(ref, r.Host, fallback)
}
