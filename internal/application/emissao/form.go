package emissao

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/augusttoleao/nfse-client/internal/core/emissao"
	"github.com/augusttoleao/nfse-client/internal/core/empresa"
)

// Form is the editable state of a DPS. Amounts and codes are kept as typed
// text and only parsed when the payload is built.
type Form struct {
	TomadorTipo               string `json:"tomadorTipo"`
	TomadorCpfCnpj            string `json:"tomadorCpfCnpj"`
	TomadorRazaoSocial        string `json:"tomadorRazaoSocial"`
	TomadorNomeFantasia       string `json:"tomadorNomeFantasia"`
	TomadorEmail              string `json:"tomadorEmail"`
	TomadorTelefone           string `json:"tomadorTelefone"`
	TomadorInscricaoMunicipal string `json:"tomadorInscricaoMunicipal"`

	TomadorCep         string `json:"tomadorCep"`
	TomadorLogradouro  string `json:"tomadorLogradouro"`
	TomadorNumero      string `json:"tomadorNumero"`
	TomadorComplemento string `json:"tomadorComplemento"`
	TomadorBairro      string `json:"tomadorBairro"`
	TomadorCidade      string `json:"tomadorCidade"`
	TomadorUf          string `json:"tomadorUf"`
	TomadorCodigoIbge  string `json:"tomadorCodigoIbge"`

	CodigoServico string `json:"codigoServico"`
	CNAE          string `json:"cnae"`
	Discriminacao string `json:"discriminacao"`
	ValorServico  string `json:"valorServico"`
	ValorDeducoes string `json:"valorDeducoes"`
	ValorPis      string `json:"valorPis"`
	ValorCofins   string `json:"valorCofins"`
	ValorInss     string `json:"valorInss"`
	ValorIr       string `json:"valorIr"`
	ValorCsll     string `json:"valorCsll"`
	ValorIss      string `json:"valorIss"`
	AliquotaIss   string `json:"aliquotaIss"`
	IssRetido     bool   `json:"issRetido"`

	Competencia              string `json:"competencia"`
	NaturezaTributacao       string `json:"naturezaTributacao"`
	RegimeEspecialTributacao string `json:"regimeEspecialTributacao"`
	OptanteSimplesNacional   bool   `json:"optanteSimplesNacional"`
	IncentivadorCultural     bool   `json:"incentivadorCultural"`
}

// NewForm returns the initial form for the month containing now.
func NewForm(now time.Time) Form {
	return Form{
		TomadorTipo:              "PJ",
		ValorDeducoes:            "0",
		ValorPis:                 "0",
		ValorCofins:              "0",
		ValorInss:                "0",
		ValorIr:                  "0",
		ValorCsll:                "0",
		ValorIss:                 "0",
		Competencia:              now.Format("2006-01"),
		NaturezaTributacao:       "1",
		RegimeEspecialTributacao: "0",
	}
}

// ValidationError lists the groups of required fields left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Missing, "; ")
}

const (
	missingTomador = "Preencha os dados do tomador"
	missingServico = "Preencha os dados do serviço"
)

// Validate checks the fields a DPS cannot go without.
func (f Form) Validate() error {
	var missing []string
	if blank(f.TomadorCpfCnpj) || blank(f.TomadorRazaoSocial) {
		missing = append(missing, missingTomador)
	}
	if blank(f.CodigoServico) || blank(f.Discriminacao) || blank(f.ValorServico) {
		missing = append(missing, missingServico)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Payload builds the submission for the given emitter.
func (f Form) Payload(c empresa.Company) emissao.Payload {
	return emissao.Payload{
		EmpresaID:                   c.ID,
		CnpjPrestador:               c.CNPJ,
		InscricaoMunicipalPrestador: c.InscricaoMunicipal,
		Tomador: emissao.Tomador{
			Tipo:               f.TomadorTipo,
			CpfCnpj:            emissao.DigitsOnly(f.TomadorCpfCnpj),
			RazaoSocial:        f.TomadorRazaoSocial,
			NomeFantasia:       f.TomadorNomeFantasia,
			Email:              f.TomadorEmail,
			Telefone:           f.TomadorTelefone,
			InscricaoMunicipal: f.TomadorInscricaoMunicipal,
			Endereco: emissao.Endereco{
				CEP:         emissao.DigitsOnly(f.TomadorCep),
				Logradouro:  f.TomadorLogradouro,
				Numero:      f.TomadorNumero,
				Complemento: f.TomadorComplemento,
				Bairro:      f.TomadorBairro,
				Cidade:      f.TomadorCidade,
				UF:          f.TomadorUf,
				CodigoIBGE:  f.TomadorCodigoIbge,
			},
		},
		Servico: emissao.Servico{
			CodigoServico: f.CodigoServico,
			CNAE:          f.CNAE,
			Discriminacao: f.Discriminacao,
			ValorServico:  ParseAmount(f.ValorServico),
			ValorDeducoes: ParseAmount(f.ValorDeducoes),
			ValorPis:      ParseAmount(f.ValorPis),
			ValorCofins:   ParseAmount(f.ValorCofins),
			ValorInss:     ParseAmount(f.ValorInss),
			ValorIr:       ParseAmount(f.ValorIr),
			ValorCsll:     ParseAmount(f.ValorCsll),
			ValorIss:      ParseAmount(f.ValorIss),
			AliquotaIss:   ParseAmount(f.AliquotaIss),
			IssRetido:     f.IssRetido,
		},
		Competencia:              f.Competencia,
		NaturezaTributacao:       parseCode(f.NaturezaTributacao),
		RegimeEspecialTributacao: parseCode(f.RegimeEspecialTributacao),
		OptanteSimplesNacional:   f.OptanteSimplesNacional,
		IncentivadorCultural:     f.IncentivadorCultural,
	}
}

// ParseAmount reads a typed amount, accepting a comma as decimal separator.
// Empty or malformed input is zero.
func ParseAmount(value string) emissao.Amount {
	value = strings.TrimSpace(value)
	if value == "" {
		return emissao.NewAmount(decimal.Zero)
	}
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return emissao.NewAmount(decimal.Zero)
	}
	return emissao.NewAmount(d)
}

func parseCode(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
