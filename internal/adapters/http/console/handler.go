// Package console exposes the operator session as a local JSON API.
package console

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appemissao "github.com/augusttoleao/nfse-client/internal/application/emissao"
	"github.com/augusttoleao/nfse-client/internal/application/session"
	"github.com/augusttoleao/nfse-client/internal/core/empresa"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
	httpx "github.com/augusttoleao/nfse-client/internal/infrastructure/http"
)

const (
	validationMessage = "Erro de validação"
	internalMessage   = "Erro interno"
	maxUploadSize     = 10 << 20
)

// Handler bridges HTTP traffic with an operator session.
type Handler struct {
	session *session.Session
	log     *slog.Logger
}

// NewHandler creates the console handler.
func NewHandler(s *session.Session, log *slog.Logger) *Handler {
	return &Handler{session: s, log: log}
}

// Routes returns the console router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/empresas", h.ListCompanies)
	r.Put("/empresas/selecionada", h.SelectCompany)

	r.Get("/certificados/status", h.CertificateStatuses)
	r.Get("/certificados", h.ListCertificates)
	r.Post("/certificados/validar", h.ValidateCertificate)
	r.Post("/certificados", h.UploadCertificate)
	r.Delete("/certificados/{id}", h.DeleteCertificate)

	r.Get("/notas/resumo", h.Summary)
	r.Get("/notas/{tipo}", h.ListNotas)

	r.Get("/emissao", h.EmissionState)
	r.Put("/emissao/formulario", h.UpdateForm)
	r.Post("/emissao/cep", h.LookupPostalCode)
	r.Post("/emissao", h.Submit)

	return r
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, v, h.log)
}

func (h *Handler) badRequest(w http.ResponseWriter, details ...string) {
	httpx.WriteError(w, http.StatusBadRequest, validationMessage, details, h.log)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.badRequest(w, "Corpo da requisição inválido")
		return false
	}
	return true
}

// handleError maps domain errors to HTTP status codes. fallback is the
// message shown for upstream failures that carry none.
func (h *Handler) handleError(w http.ResponseWriter, err error, fallback string) {
	var (
		apiErr *remote.Error
		verr   *appemissao.ValidationError
	)

	switch {
	case errors.Is(err, empresa.ErrNoCompanySelected):
		httpx.WriteError(w, http.StatusConflict, empresa.ErrNoCompanySelected.Error(), nil, h.log)
	case errors.Is(err, session.ErrCompanyNotFound):
		httpx.WriteError(w, http.StatusNotFound, session.ErrCompanyNotFound.Error(), nil, h.log)
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusUnprocessableEntity, validationMessage, verr.Missing, h.log)
	case errors.Is(err, appemissao.ErrBlocked),
		errors.Is(err, appemissao.ErrNotReady),
		errors.Is(err, appemissao.ErrSubmissionInProgress):
		httpx.WriteError(w, http.StatusConflict, err.Error(), nil, h.log)
	case errors.Is(err, remote.ErrUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, remote.ErrUnavailable.Error(), nil, h.log)
	case errors.As(err, &apiErr):
		var details []string
		if apiErr.Details != "" {
			details = []string{apiErr.Details}
		}
		httpx.WriteError(w, http.StatusBadGateway, remote.MessageOf(err, fallback), details, h.log)
	default:
		h.log.Error("console request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, internalMessage, []string{fallback}, h.log)
	}
}
