package empresa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoCompanySelected is returned by operations that need a selected company.
var ErrNoCompanySelected = errors.New("Selecione uma empresa")

// Flag is an activity marker. The API sends it as a boolean, as "S"/"N"
// or as null depending on the record's origin.
//
// Values outside those spellings decode to FlagUnrecognised and never fail
// the surrounding roster decode. An unrecognised company is not inactive.
type Flag int8

const (
	FlagUnset Flag = iota
	FlagActive
	FlagInactive
	FlagUnrecognised
)

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch strings.ToLower(strings.Trim(raw, `"`)) {
	case "null", "":
		*f = FlagUnset
	case "true", "s", "sim", "1", "a":
		*f = FlagActive
	case "false", "n", "nao", "não", "0", "i":
		*f = FlagInactive
	default:
		*f = FlagUnrecognised
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case FlagActive:
		return []byte("true"), nil
	case FlagInactive:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// Code is a numeric identifier the API sends either as a number or a string.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("empresa: invalid code %s: %w", raw, err)
	}
	*c = Code(n.String())
	return nil
}

// Company is a registered emitter as returned by the roster endpoint.
type Company struct {
	ID                  int64  `json:"id"`
	IDEmpresa           int64  `json:"idEmpresa,omitempty"`
	CNPJ                string `json:"cnpj"`
	RazaoSocial         string `json:"razaoSocial"`
	NomeFantasia        string `json:"nomeFantasia,omitempty"`
	Ativo               Flag   `json:"ativo"`
	InscricaoMunicipal  string `json:"inscricaoMunicipal,omitempty"`
	InscricaoEstadual   string `json:"inscricaoEstadual,omitempty"`
	CNAE                string `json:"cnae,omitempty"`
	TipoLogradouro      string `json:"tipoLogradouro,omitempty"`
	Logradouro          string `json:"logradouro,omitempty"`
	Endereco            string `json:"endereco,omitempty"`
	EnderecoNumero      Code   `json:"enderecoNumero,omitempty"`
	EnderecoComplemento string `json:"enderecoComplemento,omitempty"`
	Bairro              string `json:"bairro,omitempty"`
	CEP                 string `json:"cep,omitempty"`
	Cidade              string `json:"cidade,omitempty"`
	UF                  string `json:"uf,omitempty"`
	CodigoIBGE          Code   `json:"codigoIbge,omitempty"`
	TelefoneDDD         Code   `json:"telefoneDdd,omitempty"`
	Telefone            string `json:"telefone,omitempty"`
	Email               string `json:"email,omitempty"`
}

// Inactive reports whether the record is explicitly marked inactive.
// Records with no marker count as active.
func (c Company) Inactive() bool {
	return c.Ativo == FlagInactive
}

// DisplayName prefers the trade name over the legal name.
func (c Company) DisplayName() string {
	if c.NomeFantasia != "" {
		return c.NomeFantasia
	}
	return c.RazaoSocial
}

// Directory is the remote source of the company roster.
type Directory interface {
	ListActive(ctx context.Context) ([]Company, error)
}
