package nota

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tipo distinguishes issued notes from notes received by the company.
type Tipo string

const (
	Emitidas  Tipo = "emitidas"
	Recebidas Tipo = "recebidas"
)

// Valid reports whether t names a known listing.
func (t Tipo) Valid() bool {
	return t == Emitidas || t == Recebidas
}

const (
	DefaultPageSize         = 50
	DefaultReceivedPageSize = 10
)

// Nota is a service invoice (NFS-e) as listed by the invoicing API.
type Nota struct {
	Numero             string          `json:"numero"`
	ChaveAcesso        string          `json:"chaveAcesso"`
	DataEmissao        string          `json:"dataEmissao"`
	DataVencimento     string          `json:"dataVencimento,omitempty"`
	Competencia        string          `json:"competencia,omitempty"`
	Valor              decimal.Decimal `json:"valor"`
	Descricao          string          `json:"descricao"`
	Status             string          `json:"status"`
	CNPJ               string          `json:"cnpj,omitempty"`
	RazaoSocial        string          `json:"razaoSocial,omitempty"`
	NomeFantasia       string          `json:"nomeFantasia,omitempty"`
	InscricaoMunicipal string          `json:"inscricaoMunicipal,omitempty"`
	Email              string          `json:"email,omitempty"`
	Telefone           string          `json:"telefone,omitempty"`
}

// Matches reports whether term occurs, ignoring case, in the note number,
// access key, description or counterparty CNPJ.
func (n Nota) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{n.Numero, n.ChaveAcesso, n.Descricao, n.CNPJ} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Query selects one page of a listing.
type Query struct {
	Tipo           Tipo
	EmpresaID      int64
	DataInicio     string
	DataFim        string
	Pagina         int
	ItensPorPagina int
}

// Normalize fills the paging defaults for the listing type.
func (q Query) Normalize() Query {
	if q.Pagina < 1 {
		q.Pagina = 1
	}
	if q.ItensPorPagina < 1 {
		q.ItensPorPagina = DefaultPageSize
		if q.Tipo == Recebidas {
			q.ItensPorPagina = DefaultReceivedPageSize
		}
	}
	q.DataInicio = strings.TrimSpace(q.DataInicio)
	q.DataFim = strings.TrimSpace(q.DataFim)
	return q
}

// Ready reports whether the query has everything the listing needs: both
// ends of the date range and, for received notes, a company.
func (q Query) Ready() bool {
	if q.DataInicio == "" || q.DataFim == "" {
		return false
	}
	if q.Tipo == Recebidas && q.EmpresaID == 0 {
		return false
	}
	return true
}

// Key identifies the query by content.
func (q Query) Key() string {
	return strings.Join([]string{
		string(q.Tipo),
		strconv.FormatInt(q.EmpresaID, 10),
		q.DataInicio,
		q.DataFim,
		strconv.Itoa(q.Pagina),
		strconv.Itoa(q.ItensPorPagina),
	}, "|")
}

func (q Query) String() string {
	return fmt.Sprintf("%s empresa=%d %s..%s pagina=%d/%d", q.Tipo, q.EmpresaID, q.DataInicio, q.DataFim, q.Pagina, q.ItensPorPagina)
}

// Page is one page of a listing.
type Page struct {
	Notas          []Nota `json:"notas"`
	Total          int    `json:"total"`
	Pagina         int    `json:"pagina"`
	ItensPorPagina int    `json:"itensPorPagina"`
	TotalPaginas   int    `json:"totalPaginas"`
}

// TotalPages trusts the server-reported count when present and otherwise
// derives it from the total. The result is never below one.
func TotalPages(total, pageSize, reported int) int {
	if reported > 0 {
		return reported
	}
	if pageSize < 1 || total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Repository is the note listing endpoint set of the invoicing API.
type Repository interface {
	Search(ctx context.Context, q Query) (Page, error)
}
