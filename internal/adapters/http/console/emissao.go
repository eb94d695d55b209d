package console

import (
	"net/http"

	appemissao "github.com/augusttoleao/nfse-client/internal/application/emissao"
)

type postalCodeRequest struct {
	CEP string `json:"cep"`
}

type lookupResponse struct {
	Notificacao appemissao.Notification `json:"notificacao"`
	Formulario  appemissao.Form         `json:"formulario"`
}

// EmissionState handles GET /emissao.
func (h *Handler) EmissionState(w http.ResponseWriter, r *http.Request) {
	h.session.Empresas.Load(r.Context())
	h.writeJSON(w, http.StatusOK, h.session.Emissao.Snapshot())
}

// UpdateForm handles PUT /emissao/formulario.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var form appemissao.Form
	if !h.decode(w, r, &form) {
		return
	}
	if err := h.session.Emissao.UpdateForm(form); err != nil {
		h.handleError(w, err, "Erro ao atualizar formulário")
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Emissao.Snapshot())
}

// LookupPostalCode handles POST /emissao/cep. Lookup failures are reported
// in the notification, not as HTTP errors.
func (h *Handler) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	var body postalCodeRequest
	if !h.decode(w, r, &body) {
		return
	}

	note := h.session.Emissao.LookupPostalCode(r.Context(), body.CEP)
	h.writeJSON(w, http.StatusOK, lookupResponse{
		Notificacao: note,
		Formulario:  h.session.Emissao.Snapshot().Form,
	})
}

// Submit handles POST /emissao. A rejected DPS answers with the outcome so
// the operator sees the API diagnostics.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.session.Empresas.Load(r.Context())

	outcome, err := h.session.Emissao.Submit(r.Context())
	if err != nil {
		if outcome.Message != "" {
			h.writeJSON(w, http.StatusBadGateway, outcome)
			return
		}
		h.handleError(w, err, "Erro ao enviar DPS")
		return
	}
	h.writeJSON(w, http.StatusCreated, outcome)
}
