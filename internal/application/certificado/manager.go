package certificado

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/augusttoleao/nfse-client/internal/core/certificado"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
)

const (
	uploadErrorMessage = "Erro ao fazer upload do certificado"
	deleteErrorMessage = "Erro ao deletar certificado"
)

// Snapshot is the locally mirrored certificate list of one company.
type Snapshot struct {
	EmpresaID    int64                     `json:"empresaId"`
	Certificados []certificado.Certificate `json:"certificados"`
	Loading      bool                      `json:"carregando"`
	Error        string                    `json:"erro,omitempty"`
}

// Manager mirrors the certificate list of a company and performs the
// certificate mutations against the API.
type Manager struct {
	repo certificado.Repository
	log  *slog.Logger

	mu        sync.RWMutex
	empresaID int64
	certs     []certificado.Certificate
	gen       uint64
	inflight  int
	err       string
}

// NewManager creates a manager over repo.
func NewManager(repo certificado.Repository, log *slog.Logger) *Manager {
	return &Manager{
		repo:  repo,
		log:   log,
		certs: []certificado.Certificate{},
	}
}

// List replaces the local list with the company's certificates. A failed
// listing leaves an empty list and is not reported as an error.
func (m *Manager) List(ctx context.Context, empresaID int64) []certificado.Certificate {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.empresaID = empresaID
	m.inflight++
	m.mu.Unlock()

	certs, err := m.repo.ListByCompany(ctx, empresaID)
	if err != nil {
		m.log.Warn("failed to list certificates", "empresa_id", empresaID, "error", err)
		certs = []certificado.Certificate{}
	}
	if certs == nil {
		certs = []certificado.Certificate{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
	if gen == m.gen {
		m.certs = certs
	}
	return slices.Clone(m.certs)
}

// Upload sends a certificate and, once the API accepts it, lists the
// company's certificates again.
func (m *Manager) Upload(ctx context.Context, req certificado.UploadRequest) error {
	m.begin()
	err := m.repo.Upload(ctx, req)
	m.end()

	if err != nil {
		m.setError(remote.MessageOf(err, uploadErrorMessage))
		return fmt.Errorf("upload certificate: %w", err)
	}

	m.log.Info("certificate uploaded", "empresa_id", req.EmpresaID, "arquivo", req.File.Name)
	m.setError("")
	m.List(ctx, req.EmpresaID)
	return nil
}

// Validate checks a certificate file and password without storing anything.
func (m *Manager) Validate(ctx context.Context, file certificado.File, senha string) (bool, error) {
	m.begin()
	defer m.end()

	valid, err := m.repo.Validate(ctx, file, senha)
	if err != nil {
		return false, fmt.Errorf("validate certificate: %w", err)
	}
	return valid, nil
}

// Delete removes a certificate. On success the entry is dropped from the
// local list without listing again; on failure the list is left as is.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	m.begin()
	err := m.repo.Delete(ctx, id)
	m.end()

	if err != nil {
		m.setError(remote.MessageOf(err, deleteErrorMessage))
		return fmt.Errorf("delete certificate %d: %w", id, err)
	}

	m.mu.Lock()
	m.certs = slices.DeleteFunc(slices.Clone(m.certs), func(c certificado.Certificate) bool { return c.ID == id })
	m.err = ""
	m.mu.Unlock()

	m.log.Info("certificate deleted", "certificado_id", id)
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		EmpresaID:    m.empresaID,
		Certificados: slices.Clone(m.certs),
		Loading:      m.inflight > 0,
		Error:        m.err,
	}
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()
}

func (m *Manager) end() {
	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.err = msg
	m.mu.Unlock()
}
