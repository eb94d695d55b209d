package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

func sampleReport() ListingReport {
	return ListingReport{
		Title:   "Notas emitidas",
		Company: "Acme Serviços LTDA",
		Period:  "01/02/2024 a 28/02/2024",
		Notas: []nota.Nota{
			{Numero: "101", DataEmissao: "2024-02-05", Valor: decimal.RequireFromString("1500.00"), Descricao: "Consultoria", Status: "AUTORIZADA", RazaoSocial: "Cliente SA", CNPJ: "12345678000199"},
			{Numero: "102", DataEmissao: "2024-02-10T10:00:00", Valor: decimal.RequireFromString("99.9"), Descricao: "Suporte", Status: "CANCELADA"},
		},
		Shown:       2,
		Total:       37,
		GeneratedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderListing(t *testing.T) {
	content, err := RenderListing(sampleReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Errorf("expected PDF header, got %q", content[:min(len(content), 8)])
	}
}

func TestRenderListing_Empty(t *testing.T) {
	content, err := RenderListing(ListingReport{Title: "Notas recebidas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content) == 0 {
		t.Error("expected a document even without notes")
	}
}

func TestSaveListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notas.pdf")

	if err := SaveListing(sampleReport(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Error("expected saved file to be a PDF")
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "R$ 0,00"},
		{"12.5", "R$ 12,50"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567", "R$ 1.234.567,00"},
		{"-100.10", "-R$ 100,10"},
		{"99.999", "R$ 100,00"},
		{"0.004", "R$ 0,00"},
	}

	for _, tt := range tests {
		if got := FormatBRL(decimal.RequireFromString(tt.input)); got != tt.expected {
			t.Errorf("FormatBRL(%s): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestCounterparty(t *testing.T) {
	tests := []struct {
		name     string
		nota     nota.Nota
		expected string
	}{
		{"name and cnpj", nota.Nota{RazaoSocial: "Cliente SA", CNPJ: "1"}, "Cliente SA (1)"},
		{"trade name only", nota.Nota{NomeFantasia: "Cliente"}, "Cliente"},
		{"cnpj only", nota.Nota{CNPJ: "1"}, "1"},
		{"nothing", nota.Nota{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterparty(tt.nota); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
