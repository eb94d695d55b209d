package emissao

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/augusttoleao/nfse-client/internal/core/empresa"
)

func filledForm() Form {
	f := NewForm(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	f.TomadorCpfCnpj = "12.345.678/0001-99"
	f.TomadorRazaoSocial = "Cliente SA"
	f.TomadorCep = "01310-100"
	f.CodigoServico = "01.07"
	f.Discriminacao = "Desenvolvimento de software"
	f.ValorServico = "1.500,50"
	f.AliquotaIss = "2.5"
	return f
}

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	if f.TomadorTipo != "PJ" {
		t.Errorf("expected tomador PJ, got %q", f.TomadorTipo)
	}
	if f.Competencia != "2024-03" {
		t.Errorf("expected competencia 2024-03, got %q", f.Competencia)
	}
	if f.NaturezaTributacao != "1" || f.RegimeEspecialTributacao != "0" {
		t.Errorf("expected natureza 1 and regime 0, got %q/%q", f.NaturezaTributacao, f.RegimeEspecialTributacao)
	}
	if f.ValorDeducoes != "0" || f.ValorCsll != "0" {
		t.Error("expected deductions and withheld taxes defaulted to 0")
	}
	if f.ValorServico != "" {
		t.Errorf("expected empty service amount, got %q", f.ValorServico)
	}
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Form)
		missing []string
	}{
		{name: "complete", mutate: func(*Form) {}},
		{name: "no taker id", mutate: func(f *Form) { f.TomadorCpfCnpj = "" }, missing: []string{missingTomador}},
		{name: "blank taker name", mutate: func(f *Form) { f.TomadorRazaoSocial = "  " }, missing: []string{missingTomador}},
		{name: "no service code", mutate: func(f *Form) { f.CodigoServico = "" }, missing: []string{missingServico}},
		{name: "no amount", mutate: func(f *Form) { f.ValorServico = "" }, missing: []string{missingServico}},
		{
			name:    "both groups",
			mutate:  func(f *Form) { f.TomadorRazaoSocial = ""; f.Discriminacao = "" },
			missing: []string{missingTomador, missingServico},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filledForm()
			tt.mutate(&f)

			err := f.Validate()
			if len(tt.missing) == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if strings.Join(verr.Missing, "|") != strings.Join(tt.missing, "|") {
				t.Errorf("expected %v, got %v", tt.missing, verr.Missing)
			}
		})
	}
}

func TestForm_Payload(t *testing.T) {
	company := empresa.Company{ID: 9, CNPJ: "98765432000111", InscricaoMunicipal: "12345"}
	f := filledForm()
	f.NaturezaTributacao = "x"

	payload := f.Payload(company)

	if payload.EmpresaID != 9 || payload.CnpjPrestador != "98765432000111" || payload.InscricaoMunicipalPrestador != "12345" {
		t.Errorf("expected emitter identity from company, got %+v", payload)
	}
	if payload.Tomador.CpfCnpj != "12345678000199" {
		t.Errorf("expected digits-only tax id, got %q", payload.Tomador.CpfCnpj)
	}
	if payload.Tomador.Endereco.CEP != "01310100" {
		t.Errorf("expected digits-only CEP, got %q", payload.Tomador.Endereco.CEP)
	}
	if payload.Servico.ValorServico.String() != "1500.5" {
		t.Errorf("expected 1500.5, got %s", payload.Servico.ValorServico.String())
	}
	if payload.NaturezaTributacao != 0 {
		t.Errorf("expected malformed natureza to be 0, got %d", payload.NaturezaTributacao)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	if !strings.Contains(string(raw), `"valorServico":1500.5`) {
		t.Errorf("expected numeric amount in JSON, got %s", raw)
	}
	if !strings.Contains(string(raw), `"aliquotaIss":2.5`) {
		t.Errorf("expected numeric rate in JSON, got %s", raw)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "0"},
		{"0", "0"},
		{"10.5", "10.5"},
		{"10,5", "10.5"},
		{"1.234,56", "1234.56"},
		{"abc", "0"},
		{" 7 ", "7"},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.input).String(); got != tt.expected {
			t.Errorf("ParseAmount(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}
