package nota

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

// Summary holds the dashboard figures of both listings.
type Summary struct {
	TotalEmitidas       int             `json:"totalEmitidas"`
	TotalRecebidas      int             `json:"totalRecebidas"`
	ValorTotalEmitidas  decimal.Decimal `json:"valorTotalEmitidas"`
	ValorTotalRecebidas decimal.Decimal `json:"valorTotalRecebidas"`
}

func zeroSummary() Summary {
	return Summary{ValorTotalEmitidas: decimal.Zero, ValorTotalRecebidas: decimal.Zero}
}

// Summarize requests the first note of each listing, without date filters,
// and reports the totals. Both requests run concurrently; if either fails
// the whole summary is zero. empresaID is sent only when positive.
func Summarize(ctx context.Context, repo nota.Repository, empresaID int64, log *slog.Logger) Summary {
	var emitidas, recebidas nota.Page

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := repo.Search(gctx, summaryQuery(nota.Emitidas, empresaID))
		emitidas = page
		return err
	})
	g.Go(func() error {
		page, err := repo.Search(gctx, summaryQuery(nota.Recebidas, empresaID))
		recebidas = page
		return err
	})

	if err := g.Wait(); err != nil {
		log.Warn("failed to load notes summary", "empresa_id", empresaID, "error", err)
		return zeroSummary()
	}

	return Summary{
		TotalEmitidas:       emitidas.Total,
		TotalRecebidas:      recebidas.Total,
		ValorTotalEmitidas:  sum(emitidas.Notas),
		ValorTotalRecebidas: sum(recebidas.Notas),
	}
}

func summaryQuery(tipo nota.Tipo, empresaID int64) nota.Query {
	return nota.Query{Tipo: tipo, EmpresaID: empresaID, Pagina: 1, ItensPorPagina: 1}
}

func sum(notas []nota.Nota) decimal.Decimal {
	total := decimal.Zero
	for _, n := range notas {
		total = total.Add(n.Valor)
	}
	return total
}
