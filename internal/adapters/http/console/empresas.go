package console

import (
	"net/http"
)

type selectCompanyRequest struct {
	ID int64 `json:"id"`
}

// ListCompanies handles GET /empresas.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.session.Empresas.Load(r.Context()))
}

// SelectCompany handles PUT /empresas/selecionada.
func (h *Handler) SelectCompany(w http.ResponseWriter, r *http.Request) {
	var body selectCompanyRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.ID == 0 {
		h.badRequest(w, "id é obrigatório")
		return
	}

	if _, err := h.session.Select(r.Context(), body.ID); err != nil {
		h.handleError(w, err, "Erro ao selecionar empresa")
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Empresas.Snapshot())
}
