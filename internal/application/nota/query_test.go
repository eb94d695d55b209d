package nota

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
	"github.com/augusttoleao/nfse-client/internal/testutil"
)

func january() nota.Query {
	return nota.Query{Tipo: nota.Emitidas, DataInicio: "2024-01-01", DataFim: "2024-01-31"}
}

func february() nota.Query {
	return nota.Query{Tipo: nota.Emitidas, DataInicio: "2024-02-01", DataFim: "2024-02-28"}
}

func pageOf(numeros ...string) nota.Page {
	notas := make([]nota.Nota, len(numeros))
	for i, n := range numeros {
		notas[i] = nota.Nota{Numero: n, Valor: decimal.NewFromInt(10)}
	}
	return nota.Page{Notas: notas, Total: len(notas)}
}

func TestUpdate_GatesIncompleteQueries(t *testing.T) {
	tests := []struct {
		name  string
		query nota.Query
	}{
		{"received without dates", nota.Query{Tipo: nota.Recebidas, EmpresaID: 1}},
		{"received without company", nota.Query{Tipo: nota.Recebidas, DataInicio: "2024-01-01", DataFim: "2024-01-31"}},
		{"issued without end date", nota.Query{Tipo: nota.Emitidas, DataInicio: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			repo := &testutil.MockNotas{
				SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
					calls.Add(1)
					return pageOf("1"), nil
				},
			}
			unit := NewQuery(repo, testutil.NewNullLogger())

			snap := unit.Update(context.Background(), tt.query)

			if calls.Load() != 0 {
				t.Errorf("expected no request, got %d", calls.Load())
			}
			if snap.Phase != PhaseWaiting {
				t.Errorf("expected waiting phase, got %q", snap.Phase)
			}
			if snap.Notas == nil || len(snap.Notas) != 0 || snap.Total != 0 {
				t.Errorf("expected empty result, got %+v", snap)
			}
			if snap.Error != "" {
				t.Errorf("expected no error, got %q", snap.Error)
			}
		})
	}
}

func TestUpdate_FetchesReadyQuery(t *testing.T) {
	var got nota.Query
	repo := &testutil.MockNotas{
		SearchFunc: func(_ context.Context, q nota.Query) (nota.Page, error) {
			got = q
			return nota.Page{Notas: pageOf("1", "2").Notas, Total: 101}, nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	q := january()
	q.ItensPorPagina = 10
	snap := unit.Update(context.Background(), q)

	if snap.Phase != PhaseReady {
		t.Fatalf("expected ready phase, got %q", snap.Phase)
	}
	if got.Pagina != 1 {
		t.Errorf("expected page defaulted to 1, got %d", got.Pagina)
	}
	if snap.TotalPaginas != 11 {
		t.Errorf("expected 11 pages, got %d", snap.TotalPaginas)
	}
	if snap.HasPrevious() {
		t.Error("expected no previous page on page 1")
	}
	if !snap.HasNext() {
		t.Error("expected a next page on page 1")
	}
}

func TestUpdate_LastPageHasNoNext(t *testing.T) {
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			return nota.Page{Total: 101}, nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	q := january()
	q.Pagina, q.ItensPorPagina = 11, 10
	snap := unit.Update(context.Background(), q)

	if snap.HasNext() {
		t.Error("expected no next page on the last page")
	}
	if !snap.HasPrevious() {
		t.Error("expected a previous page on page 11")
	}
}

func TestUpdate_SameQueryIsFetchedOnce(t *testing.T) {
	var calls atomic.Int32
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			calls.Add(1)
			return pageOf("1"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	unit.Update(context.Background(), january())
	unit.Update(context.Background(), january())
	unit.Update(context.Background(), nota.Query{Tipo: nota.Emitidas, DataInicio: " 2024-01-01 ", DataFim: "2024-01-31", Pagina: 1, ItensPorPagina: nota.DefaultPageSize})

	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

func TestUpdate_ConcurrentSameQueryJoins(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			calls.Add(1)
			<-release
			return pageOf("1"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	var wg sync.WaitGroup
	results := make([]Snapshot, 3)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = unit.Update(context.Background(), january())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
	for i, r := range results {
		if r.Phase != PhaseReady || len(r.Notas) != 1 {
			t.Errorf("caller %d: expected ready result, got %+v", i, r)
		}
	}
}

func TestUpdate_DiscardsStaleResponse(t *testing.T) {
	releaseJanuary := make(chan struct{})
	januaryStarted := make(chan struct{})
	repo := &testutil.MockNotas{
		SearchFunc: func(_ context.Context, q nota.Query) (nota.Page, error) {
			if q.DataInicio == "2024-01-01" {
				close(januaryStarted)
				<-releaseJanuary
				return pageOf("jan"), nil
			}
			return pageOf("feb"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	janDone := make(chan Snapshot, 1)
	go func() { janDone <- unit.Update(context.Background(), january()) }()
	<-januaryStarted

	snap := unit.Update(context.Background(), february())
	if len(snap.Notas) != 1 || snap.Notas[0].Numero != "feb" {
		t.Fatalf("expected february result, got %+v", snap.Notas)
	}

	close(releaseJanuary)
	<-janDone

	// The january goroutine may still be applying its result.
	time.Sleep(20 * time.Millisecond)
	final := unit.Snapshot()
	if len(final.Notas) != 1 || final.Notas[0].Numero != "feb" {
		t.Errorf("expected february result to survive, got %+v", final.Notas)
	}
}

func TestUpdate_SupersededRequestIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	repo := &testutil.MockNotas{
		SearchFunc: func(ctx context.Context, q nota.Query) (nota.Page, error) {
			if q.DataInicio == "2024-01-01" {
				<-ctx.Done()
				close(cancelled)
				return nota.Page{}, ctx.Err()
			}
			return pageOf("feb"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	go unit.Update(context.Background(), january())
	time.Sleep(20 * time.Millisecond)
	unit.Update(context.Background(), february())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("expected superseded request to be cancelled")
	}
}

func TestClose_SameQueryFetchesAgain(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	repo := &testutil.MockNotas{
		SearchFunc: func(ctx context.Context, q nota.Query) (nota.Page, error) {
			if calls.Add(1) == 1 {
				close(started)
				<-ctx.Done()
				return nota.Page{}, ctx.Err()
			}
			return pageOf("1", "2"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	first := make(chan Snapshot, 1)
	go func() { first <- unit.Update(context.Background(), january()) }()
	<-started
	unit.Close()
	<-first

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap := unit.Update(ctx, january())

	if snap.Phase != PhaseReady {
		t.Fatalf("expected ready after close, got %q", snap.Phase)
	}
	if len(snap.Notas) != 2 {
		t.Errorf("expected 2 notes, got %d", len(snap.Notas))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected a fresh request after close, got %d calls", got)
	}
}

func TestUpdate_ErrorClearsList(t *testing.T) {
	fail := false
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			if fail {
				return nota.Page{}, &remote.Error{StatusCode: 400, Message: "Período inválido"}
			}
			return pageOf("1", "2"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	unit.Update(context.Background(), january())
	fail = true
	snap := unit.Update(context.Background(), february())

	if snap.Phase != PhaseError {
		t.Fatalf("expected error phase, got %q", snap.Phase)
	}
	if len(snap.Notas) != 0 {
		t.Errorf("expected list cleared, got %d notes", len(snap.Notas))
	}
	if snap.Error != "Período inválido" {
		t.Errorf("expected API message, got %q", snap.Error)
	}
}

func TestUpdate_TransportErrorUsesFallback(t *testing.T) {
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			return nota.Page{}, errors.New("connection reset")
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	if snap := unit.Update(context.Background(), january()); snap.Error != searchErrorMessage {
		t.Errorf("expected %q, got %q", searchErrorMessage, snap.Error)
	}
}

func TestUpdate_GateCancelsInFlight(t *testing.T) {
	release := make(chan struct{})
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			<-release
			return pageOf("1"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	done := make(chan struct{})
	go func() {
		unit.Update(context.Background(), january())
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	unit.Update(context.Background(), nota.Query{Tipo: nota.Emitidas})
	close(release)
	<-done
	time.Sleep(20 * time.Millisecond)

	if snap := unit.Snapshot(); snap.Phase != PhaseWaiting || len(snap.Notas) != 0 {
		t.Errorf("expected waiting state to win, got %+v", snap)
	}
}

func TestReload_FetchesAgain(t *testing.T) {
	var calls atomic.Int32
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			calls.Add(1)
			return pageOf("1"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	unit.Update(context.Background(), january())
	unit.Reload(context.Background())

	if calls.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", calls.Load())
	}
}

func TestUpdate_ReturnsOnCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	repo := &testutil.MockNotas{
		SearchFunc: func(context.Context, nota.Query) (nota.Page, error) {
			<-release
			return pageOf("1"), nil
		},
	}
	unit := NewQuery(repo, testutil.NewNullLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap := unit.Update(ctx, january())
	if snap.Phase != PhaseLoading {
		t.Errorf("expected loading phase while response is pending, got %q", snap.Phase)
	}
}

func TestSnapshot_Filter(t *testing.T) {
	snap := Snapshot{
		Notas: []nota.Nota{
			{Numero: "101", Descricao: "Consultoria em TI", CNPJ: "11222333000144"},
			{Numero: "102", Descricao: "Suporte", ChaveAcesso: "ABC123"},
			{Numero: "203", Descricao: "Treinamento"},
		},
		Total: 57,
	}

	tests := []struct {
		term  string
		shown int
	}{
		{"", 3},
		{"10", 2},
		{"consultoria", 1},
		{"abc", 1},
		{"112223", 1},
		{"inexistente", 0},
	}

	for _, tt := range tests {
		view := snap.Filter(tt.term)
		if view.Shown != tt.shown || len(view.Notas) != tt.shown {
			t.Errorf("Filter(%q): expected %d shown, got %d", tt.term, tt.shown, view.Shown)
		}
		if view.Total != 57 {
			t.Errorf("Filter(%q): expected total to stay 57, got %d", tt.term, view.Total)
		}
	}
}
