package testutil

import (
	"context"

	"github.com/augusttoleao/nfse-client/internal/core/cep"
	"github.com/augusttoleao/nfse-client/internal/core/certificado"
	"github.com/augusttoleao/nfse-client/internal/core/emissao"
	"github.com/augusttoleao/nfse-client/internal/core/empresa"
	"github.com/augusttoleao/nfse-client/internal/core/nota"
	"github.com/augusttoleao/nfse-client/internal/core/state"
)

// MockDirectory is a mock implementation of empresa.Directory for testing.
type MockDirectory struct {
	ListActiveFunc func(ctx context.Context) ([]empresa.Company, error)
}

// ListActive calls the mock function if set, otherwise returns an empty roster.
func (m *MockDirectory) ListActive(ctx context.Context) ([]empresa.Company, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return []empresa.Company{}, nil
}

var _ empresa.Directory = (*MockDirectory)(nil)

// MockCertificates is a mock implementation of certificado.Repository for testing.
type MockCertificates struct {
	ListByCompanyFunc func(ctx context.Context, empresaID int64) ([]certificado.Certificate, error)
	UploadFunc        func(ctx context.Context, req certificado.UploadRequest) error
	ValidateFunc      func(ctx context.Context, file certificado.File, senha string) (bool, error)
	DeleteFunc        func(ctx context.Context, id int64) error
}

// ListByCompany calls the mock function if set, otherwise returns an empty slice.
func (m *MockCertificates) ListByCompany(ctx context.Context, empresaID int64) ([]certificado.Certificate, error) {
	if m.ListByCompanyFunc != nil {
		return m.ListByCompanyFunc(ctx, empresaID)
	}
	return []certificado.Certificate{}, nil
}

// Upload calls the mock function if set, otherwise succeeds.
func (m *MockCertificates) Upload(ctx context.Context, req certificado.UploadRequest) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, req)
	}
	return nil
}

// Validate calls the mock function if set, otherwise reports the file as valid.
func (m *MockCertificates) Validate(ctx context.Context, file certificado.File, senha string) (bool, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, file, senha)
	}
	return true, nil
}

// Delete calls the mock function if set, otherwise succeeds.
func (m *MockCertificates) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

var _ certificado.Repository = (*MockCertificates)(nil)

// MockNotas is a mock implementation of nota.Repository for testing.
type MockNotas struct {
	SearchFunc func(ctx context.Context, q nota.Query) (nota.Page, error)
}

// Search calls the mock function if set, otherwise returns an empty page.
func (m *MockNotas) Search(ctx context.Context, q nota.Query) (nota.Page, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	return nota.Page{Notas: []nota.Nota{}, Pagina: q.Pagina, ItensPorPagina: q.ItensPorPagina, TotalPaginas: 1}, nil
}

var _ nota.Repository = (*MockNotas)(nil)

// MockSubmitter is a mock implementation of emissao.Submitter for testing.
type MockSubmitter struct {
	SubmitFunc func(ctx context.Context, p emissao.Payload) (emissao.Receipt, error)
}

// Submit calls the mock function if set, otherwise returns an empty receipt.
func (m *MockSubmitter) Submit(ctx context.Context, p emissao.Payload) (emissao.Receipt, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, p)
	}
	return emissao.Receipt{}, nil
}

var _ emissao.Submitter = (*MockSubmitter)(nil)

// MockPostalCodes is a mock implementation of cep.Service for testing.
type MockPostalCodes struct {
	LookupFunc func(ctx context.Context, code string) (cep.Address, error)
}

// Lookup calls the mock function if set, otherwise reports the code as not found.
func (m *MockPostalCodes) Lookup(ctx context.Context, code string) (cep.Address, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, code)
	}
	return cep.Address{}, cep.ErrNotFound
}

var _ cep.Service = (*MockPostalCodes)(nil)

// MockStore is a mock implementation of state.Store for testing.
type MockStore struct {
	GetFunc    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFunc    func(ctx context.Context, key string, value []byte) error
	DeleteFunc func(ctx context.Context, key string) error
}

// Get calls the mock function if set, otherwise reports the key as missing.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, false, nil
}

// Set calls the mock function if set, otherwise succeeds.
func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}
	return nil
}

// Delete calls the mock function if set, otherwise succeeds.
func (m *MockStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

var _ state.Store = (*MockStore)(nil)
