package nota

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
	"github.com/augusttoleao/nfse-client/internal/testutil"
)

func TestSummarize(t *testing.T) {
	var mu sync.Mutex
	seen := map[nota.Tipo]nota.Query{}
	repo := &testutil.MockNotas{
		SearchFunc: func(_ context.Context, q nota.Query) (nota.Page, error) {
			mu.Lock()
			seen[q.Tipo] = q
			mu.Unlock()
			if q.Tipo == nota.Emitidas {
				return nota.Page{Total: 42, Notas: []nota.Nota{{Valor: decimal.RequireFromString("150.25")}}}, nil
			}
			return nota.Page{Total: 7, Notas: []nota.Nota{{Valor: decimal.RequireFromString("80")}}}, nil
		},
	}

	summary := Summarize(context.Background(), repo, 3, testutil.NewNullLogger())

	if summary.TotalEmitidas != 42 || summary.TotalRecebidas != 7 {
		t.Errorf("expected totals 42/7, got %d/%d", summary.TotalEmitidas, summary.TotalRecebidas)
	}
	if !summary.ValorTotalEmitidas.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("expected 150.25, got %s", summary.ValorTotalEmitidas)
	}
	if !summary.ValorTotalRecebidas.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected 80, got %s", summary.ValorTotalRecebidas)
	}

	for _, tipo := range []nota.Tipo{nota.Emitidas, nota.Recebidas} {
		q, ok := seen[tipo]
		if !ok {
			t.Fatalf("expected a %s request", tipo)
		}
		if q.Pagina != 1 || q.ItensPorPagina != 1 {
			t.Errorf("%s: expected page 1 of size 1, got %d/%d", tipo, q.Pagina, q.ItensPorPagina)
		}
		if q.DataInicio != "" || q.DataFim != "" {
			t.Errorf("%s: expected no date filter, got %q..%q", tipo, q.DataInicio, q.DataFim)
		}
		if q.EmpresaID != 3 {
			t.Errorf("%s: expected empresa 3, got %d", tipo, q.EmpresaID)
		}
	}
}

func TestSummarize_FailureDegradesToZero(t *testing.T) {
	repo := &testutil.MockNotas{
		SearchFunc: func(_ context.Context, q nota.Query) (nota.Page, error) {
			if q.Tipo == nota.Recebidas {
				return nota.Page{}, errors.New("boom")
			}
			return nota.Page{Total: 42}, nil
		},
	}

	summary := Summarize(context.Background(), repo, 0, testutil.NewNullLogger())

	if summary.TotalEmitidas != 0 || summary.TotalRecebidas != 0 {
		t.Errorf("expected zero totals, got %d/%d", summary.TotalEmitidas, summary.TotalRecebidas)
	}
	if !summary.ValorTotalEmitidas.IsZero() || !summary.ValorTotalRecebidas.IsZero() {
		t.Error("expected zero amounts")
	}
}
