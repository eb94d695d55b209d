package console

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/augusttoleao/nfse-client/internal/core/certificado"
)

type validateResponse struct {
	Valido bool `json:"valido"`
}

// CertificateStatuses handles GET /certificados/status.
func (h *Handler) CertificateStatuses(w http.ResponseWriter, r *http.Request) {
	h.session.Empresas.Load(r.Context())
	h.writeJSON(w, http.StatusOK, h.session.CertificateStatuses(r.Context()))
}

// ListCertificates handles GET /certificados for the selected company.
func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	if _, err := h.session.Certificates(r.Context()); err != nil {
		h.handleError(w, err, "Erro ao listar certificados")
		return
	}
	h.writeJSON(w, http.StatusOK, h.session.Certificados.Snapshot())
}

// ValidateCertificate handles POST /certificados/validar.
func (h *Handler) ValidateCertificate(w http.ResponseWriter, r *http.Request) {
	file, senha, ok := h.readCertificate(w, r)
	if !ok {
		return
	}

	valid, err := h.session.Certificados.Validate(r.Context(), file, senha)
	if err != nil {
		h.handleError(w, err, "Erro ao validar certificado")
		return
	}
	h.writeJSON(w, http.StatusOK, validateResponse{Valido: valid})
}

// UploadCertificate handles POST /certificados.
func (h *Handler) UploadCertificate(w http.ResponseWriter, r *http.Request) {
	file, senha, ok := h.readCertificate(w, r)
	if !ok {
		return
	}

	if err := h.session.UploadCertificate(r.Context(), file, senha); err != nil {
		h.handleError(w, err, "Erro ao fazer upload do certificado")
		return
	}
	h.writeJSON(w, http.StatusCreated, h.session.Certificados.Snapshot())
}

// DeleteCertificate handles DELETE /certificados/{id}.
func (h *Handler) DeleteCertificate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(w, "id de certificado inválido")
		return
	}

	if err := h.session.DeleteCertificate(r.Context(), id); err != nil {
		h.handleError(w, err, "Erro ao deletar certificado")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readCertificate extracts the "certificado" file and "senha" field of a
// multipart request.
func (h *Handler) readCertificate(w http.ResponseWriter, r *http.Request) (certificado.File, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.badRequest(w, "Formulário multipart inválido")
		return certificado.File{}, "", false
	}

	src, header, err := r.FormFile("certificado")
	if err != nil {
		h.badRequest(w, "Arquivo do certificado é obrigatório")
		return certificado.File{}, "", false
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil || len(content) == 0 {
		h.badRequest(w, "Arquivo do certificado vazio ou ilegível")
		return certificado.File{}, "", false
	}

	senha := r.FormValue("senha")
	if senha == "" {
		h.badRequest(w, "Senha do certificado é obrigatória")
		return certificado.File{}, "", false
	}
	return certificado.File{Name: header.Filename, Content: content}, senha, true
}
