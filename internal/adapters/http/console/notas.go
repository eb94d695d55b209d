package console

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appnota "github.com/augusttoleao/nfse-client/internal/application/nota"
	"github.com/augusttoleao/nfse-client/internal/application/session"
	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

type listingResponse struct {
	Fase           appnota.Phase `json:"fase"`
	Notas          []nota.Nota   `json:"notas"`
	Exibidas       int           `json:"exibidas"`
	Total          int           `json:"total"`
	Pagina         int           `json:"pagina"`
	ItensPorPagina int           `json:"itensPorPagina"`
	TotalPaginas   int           `json:"totalPaginas"`
	TemAnterior    bool          `json:"temAnterior"`
	TemProxima     bool          `json:"temProxima"`
	Erro           string        `json:"erro,omitempty"`
}

// ListNotas handles GET /notas/{tipo}. The busca term narrows the fetched
// page only.
func (h *Handler) ListNotas(w http.ResponseWriter, r *http.Request) {
	tipo := nota.Tipo(chi.URLParam(r, "tipo"))
	if !tipo.Valid() {
		h.badRequest(w, "tipo deve ser emitidas ou recebidas")
		return
	}

	q := r.URL.Query()
	pagina, ok := optionalInt(q.Get("pagina"))
	if !ok {
		h.badRequest(w, "pagina inválida")
		return
	}
	itens, ok := optionalInt(q.Get("itensPorPagina"))
	if !ok {
		h.badRequest(w, "itensPorPagina inválido")
		return
	}

	h.session.Empresas.Load(r.Context())
	snap := h.session.Listing(r.Context(), session.ListingRequest{
		Tipo:           tipo,
		DataInicio:     q.Get("dataInicio"),
		DataFim:        q.Get("dataFim"),
		Pagina:         pagina,
		ItensPorPagina: itens,
	})
	view := snap.Filter(q.Get("busca"))

	h.writeJSON(w, http.StatusOK, listingResponse{
		Fase:           snap.Phase,
		Notas:          view.Notas,
		Exibidas:       view.Shown,
		Total:          view.Total,
		Pagina:         snap.Pagina,
		ItensPorPagina: snap.ItensPorPagina,
		TotalPaginas:   snap.TotalPaginas,
		TemAnterior:    snap.HasPrevious(),
		TemProxima:     snap.HasNext(),
		Erro:           snap.Error,
	})
}

// Summary handles GET /notas/resumo.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	h.session.Empresas.Load(r.Context())
	h.writeJSON(w, http.StatusOK, h.session.Summary(r.Context()))
}

func optionalInt(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
