package certificado

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Certificate is the metadata of a digital certificate registered for a company.
type Certificate struct {
	ID           int64     `json:"id"`
	EmpresaID    int64     `json:"empresaId"`
	CNPJ         string    `json:"cnpj"`
	RazaoSocial  string    `json:"razaoSocial"`
	NomeArquivo  string    `json:"nomeArquivo,omitempty"`
	NumeroSerie  string    `json:"numeroSerie,omitempty"`
	DataValidade time.Time `json:"dataValidade"`
	DataInclusao time.Time `json:"dataInclusao"`
}

type wireCertificate struct {
	ID                int64  `json:"id"`
	EmpresaID         int64  `json:"empresaId"`
	CNPJ              string `json:"cnpj"`
	RazaoSocial       string `json:"razaoSocial"`
	NomeArquivo       string `json:"nomeArquivo"`
	NumeroSerie       string `json:"numeroSerie"`
	DataValidade      string `json:"dataValidade"`
	DataVencimento    string `json:"dataVencimento"`
	DataInclusao      string `json:"dataInclusao"`
	DataProcessamento string `json:"dataProcessamento"`
}

// UnmarshalJSON accepts both naming generations of the date fields.
func (c *Certificate) UnmarshalJSON(data []byte) error {
	var w wireCertificate
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	expiry, err := ParseTimestamp(firstNonEmpty(w.DataValidade, w.DataVencimento))
	if err != nil {
		return fmt.Errorf("certificado %d: dataValidade: %w", w.ID, err)
	}
	registered, err := ParseTimestamp(firstNonEmpty(w.DataInclusao, w.DataProcessamento))
	if err != nil {
		return fmt.Errorf("certificado %d: dataInclusao: %w", w.ID, err)
	}

	*c = Certificate{
		ID:           w.ID,
		EmpresaID:    w.EmpresaID,
		CNPJ:         w.CNPJ,
		RazaoSocial:  w.RazaoSocial,
		NomeArquivo:  w.NomeArquivo,
		NumeroSerie:  w.NumeroSerie,
		DataValidade: expiry,
		DataInclusao: registered,
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the date formats used by the API. An empty value
// yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// File is an uploaded certificate container, typically a PKCS#12 bundle.
type File struct {
	Name    string
	Content []byte
}

// UploadRequest carries a certificate file and the company it belongs to.
type UploadRequest struct {
	File        File
	EmpresaID   int64
	CNPJ        string
	RazaoSocial string
	Senha       string
}

// Repository is the certificate management endpoint set of the invoicing API.
type Repository interface {
	ListByCompany(ctx context.Context, empresaID int64) ([]Certificate, error)
	Upload(ctx context.Context, req UploadRequest) error
	Validate(ctx context.Context, file File, senha string) (bool, error)
	Delete(ctx context.Context, id int64) error
}
