package emissao

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value that travels as a JSON number.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// Endereco is the taker's address.
type Endereco struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
	CodigoIBGE  string `json:"codigoIbge"`
}

// Tomador is the service taker.
type Tomador struct {
	Tipo               string   `json:"tipo"`
	CpfCnpj            string   `json:"cpfCnpj"`
	RazaoSocial        string   `json:"razaoSocial"`
	NomeFantasia       string   `json:"nomeFantasia"`
	Email              string   `json:"email"`
	Telefone           string   `json:"telefone"`
	InscricaoMunicipal string   `json:"inscricaoMunicipal"`
	Endereco           Endereco `json:"endereco"`
}

// Servico describes the service rendered and its tax breakdown.
type Servico struct {
	CodigoServico string `json:"codigoServico"`
	CNAE          string `json:"cnae"`
	Discriminacao string `json:"discriminacao"`
	ValorServico  Amount `json:"valorServico"`
	ValorDeducoes Amount `json:"valorDeducoes"`
	ValorPis      Amount `json:"valorPis"`
	ValorCofins   Amount `json:"valorCofins"`
	ValorInss     Amount `json:"valorInss"`
	ValorIr       Amount `json:"valorIr"`
	ValorCsll     Amount `json:"valorCsll"`
	ValorIss      Amount `json:"valorIss"`
	AliquotaIss   Amount `json:"aliquotaIss"`
	IssRetido     bool   `json:"issRetido"`
}

// Payload is a DPS (Declaração de Prestação de Serviço) submission.
type Payload struct {
	EmpresaID                   int64   `json:"empresaId"`
	CnpjPrestador               string  `json:"cnpjPrestador"`
	InscricaoMunicipalPrestador string  `json:"inscricaoMunicipalPrestador"`
	Tomador                     Tomador `json:"tomador"`
	Servico                     Servico `json:"servico"`
	Competencia                 string  `json:"competencia"`
	NaturezaTributacao          int     `json:"naturezaTributacao"`
	RegimeEspecialTributacao    int     `json:"regimeEspecialTributacao"`
	OptanteSimplesNacional      bool    `json:"optanteSimplesNacional"`
	IncentivadorCultural        bool    `json:"incentivadorCultural"`
}

// Receipt is the API acknowledgement of an accepted DPS.
type Receipt struct {
	IDDps string
}

// Submitter sends DPS payloads to the invoicing API.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Receipt, error)
}

// DigitsOnly strips every non-digit from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
