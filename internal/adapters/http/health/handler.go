package health

import (
	"log/slog"
	"net/http"

	apphealth "github.com/augusttoleao/nfse-client/internal/application/health"
	httpx "github.com/augusttoleao/nfse-client/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if !response.Healthy() {
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, response, h.log)
}
