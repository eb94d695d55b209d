package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

// ListingReport is one displayed page of a notes listing.
type ListingReport struct {
	Title       string
	Company     string
	Period      string
	Notas       []nota.Nota
	Shown       int
	Total       int
	GeneratedAt time.Time
}

// RenderListing renders the listing as a PDF document.
func RenderListing(r ListingReport) ([]byte, error) {
	doc, err := build(r).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate listing pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// SaveListing renders the listing and writes it to path.
func SaveListing(r ListingReport, path string) error {
	doc, err := build(r).Generate()
	if err != nil {
		return fmt.Errorf("generate listing pdf: %w", err)
	}
	if err := doc.Save(path); err != nil {
		return fmt.Errorf("save listing pdf: %w", err)
	}
	return nil
}

func build(r ListingReport) core.Maroto {
	m := maroto.New(config.NewBuilder().Build())

	m.AddRow(10,
		col.New(8).Add(
			text.New(r.Title, props.Text{Size: 16, Style: fontstyle.Bold}),
		),
		col.New(4).Add(
			text.New(r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{Size: 9, Align: align.Right}),
		),
	)
	if r.Company != "" {
		m.AddRow(6, col.New(12).Add(text.New(r.Company, props.Text{Size: 10})))
	}
	if r.Period != "" {
		m.AddRow(6, col.New(12).Add(text.New("Período: "+r.Period, props.Text{Size: 9})))
	}
	m.AddRow(4)

	header := props.Text{Size: 9, Style: fontstyle.Bold}
	m.AddRow(7,
		col.New(1).Add(text.New("Número", header)),
		col.New(2).Add(text.New("Emissão", header)),
		col.New(3).Add(text.New("Contraparte", header)),
		col.New(3).Add(text.New("Descrição", header)),
		col.New(1).Add(text.New("Status", header)),
		col.New(2).Add(text.New("Valor", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right})),
	)

	cell := props.Text{Size: 8}
	for _, n := range r.Notas {
		m.AddRow(6,
			col.New(1).Add(text.New(n.Numero, cell)),
			col.New(2).Add(text.New(formatDate(n.DataEmissao), cell)),
			col.New(3).Add(text.New(counterparty(n), cell)),
			col.New(3).Add(text.New(n.Descricao, cell)),
			col.New(1).Add(text.New(n.Status, cell)),
			col.New(2).Add(text.New(FormatBRL(n.Valor), props.Text{Size: 8, Align: align.Right})),
		)
	}

	m.AddRow(4)
	m.AddRow(6,
		col.New(12).Add(
			text.New(fmt.Sprintf("Exibindo %d de %d notas", r.Shown, r.Total), props.Text{Size: 9, Style: fontstyle.Italic, Align: align.Right}),
		),
	)
	return m
}

func counterparty(n nota.Nota) string {
	name := n.RazaoSocial
	if name == "" {
		name = n.NomeFantasia
	}
	switch {
	case name != "" && n.CNPJ != "":
		return name + " (" + n.CNPJ + ")"
	case name != "":
		return name
	default:
		return n.CNPJ
	}
}

func formatDate(value string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}

// FormatBRL renders an amount in Brazilian reais ("R$ 1.234,50"), rounded
// to centavos. Grouping and the decimal comma come from the pt-BR locale
// data, so totals in the summary and listing agree with what the operator
// sees on the municipal portal.
func FormatBRL(v decimal.Decimal) string {
	v = v.Round(2)
	p := message.NewPrinter(language.BrazilianPortuguese)
	amount := p.Sprint(number.Decimal(v.Abs().InexactFloat64(), number.Scale(2)))
	if v.IsNegative() {
		return "-R$ " + amount
	}
	return "R$ " + amount
}
