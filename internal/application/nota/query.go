package nota

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
)

const searchErrorMessage = "Erro ao buscar notas"

// Phase is the lifecycle position of a query unit.
type Phase string

const (
	// PhaseWaiting means the filters are incomplete and nothing was requested.
	PhaseWaiting Phase = "waiting"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Snapshot is the state of a query unit at one point in time.
type Snapshot struct {
	Query          nota.Query  `json:"-"`
	Phase          Phase       `json:"fase"`
	Notas          []nota.Nota `json:"notas"`
	Total          int         `json:"total"`
	Pagina         int         `json:"pagina"`
	ItensPorPagina int         `json:"itensPorPagina"`
	TotalPaginas   int         `json:"totalPaginas"`
	Error          string      `json:"erro,omitempty"`
}

// HasPrevious reports whether a previous page exists.
func (s Snapshot) HasPrevious() bool {
	return s.Pagina > 1
}

// HasNext reports whether a next page exists.
func (s Snapshot) HasNext() bool {
	return s.Pagina < s.TotalPaginas
}

// View is a snapshot narrowed by a free-text term. Only the fetched page is
// filtered, so Shown counts the visible notes and Total stays the server
// total.
type View struct {
	Notas []nota.Nota `json:"notas"`
	Shown int         `json:"exibidas"`
	Total int         `json:"total"`
}

// Filter narrows the fetched page to the notes matching term.
func (s Snapshot) Filter(term string) View {
	matched := make([]nota.Nota, 0, len(s.Notas))
	for _, n := range s.Notas {
		if n.Matches(term) {
			matched = append(matched, n)
		}
	}
	return View{Notas: matched, Shown: len(matched), Total: s.Total}
}

func (s Snapshot) clone() Snapshot {
	s.Notas = slices.Clone(s.Notas)
	return s
}

func emptySnapshot(q nota.Query, phase Phase) Snapshot {
	return Snapshot{
		Query:          q,
		Phase:          phase,
		Notas:          []nota.Nota{},
		Pagina:         q.Pagina,
		ItensPorPagina: q.ItensPorPagina,
		TotalPaginas:   1,
	}
}

// Query is a gated listing: it only reaches the API once the filters are
// complete, issues one request per distinct query and drops responses to
// queries that have since been replaced. Use one Query per listing type.
type Query struct {
	repo nota.Repository
	log  *slog.Logger

	mu     sync.Mutex
	gen    uint64
	key    string
	cancel context.CancelFunc
	done   chan struct{}
	snap   Snapshot
}

// NewQuery creates a query unit over repo.
func NewQuery(repo nota.Repository, log *slog.Logger) *Query {
	return &Query{
		repo: repo,
		log:  log,
		snap: emptySnapshot(nota.Query{}.Normalize(), PhaseWaiting),
	}
}

// Update points the unit at q and returns its state once the matching
// response has been applied or ctx is done. A query equal to the current
// one joins the request already made.
func (u *Query) Update(ctx context.Context, q nota.Query) Snapshot {
	q = q.Normalize()

	u.mu.Lock()
	if !q.Ready() {
		u.supersede()
		u.snap = emptySnapshot(q, PhaseWaiting)
		snap := u.snap.clone()
		u.mu.Unlock()

		u.log.Debug("notes query waiting for filters", "query", q.String())
		return snap
	}

	key := q.Key()
	if key == u.key {
		done := u.done
		u.mu.Unlock()
		return u.wait(ctx, done)
	}

	u.supersede()
	gen := u.gen
	// Only a newer query cancels the request; the caller's deadline bounds
	// its own wait.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	u.key, u.cancel, u.done = key, cancel, done
	u.snap = emptySnapshot(q, PhaseLoading)
	u.mu.Unlock()

	go u.fetch(fetchCtx, gen, q, done)
	return u.wait(ctx, done)
}

// Reload fetches the current query again.
func (u *Query) Reload(ctx context.Context) Snapshot {
	u.mu.Lock()
	q := u.snap.Query
	u.key = ""
	u.mu.Unlock()
	return u.Update(ctx, q)
}

// Snapshot returns the current state without waiting.
func (u *Query) Snapshot() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snap.clone()
}

// Close cancels the request in flight, if any. The unit stays usable: a
// later Update issues a fresh request.
func (u *Query) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.supersede()
}

// supersede invalidates the request in flight and forgets its key, so the
// same query asked again starts a new request instead of joining one whose
// result will be discarded. Callers hold u.mu.
func (u *Query) supersede() {
	u.gen++
	u.key = ""
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
}

func (u *Query) fetch(ctx context.Context, gen uint64, q nota.Query, done chan struct{}) {
	defer close(done)

	page, err := u.repo.Search(ctx, q)

	u.mu.Lock()
	defer u.mu.Unlock()

	if gen != u.gen {
		u.log.Debug("discarding superseded notes response", "query", q.String())
		return
	}
	u.cancel = nil

	if err != nil {
		u.log.Warn("failed to fetch notes", "query", q.String(), "error", err)
		snap := emptySnapshot(q, PhaseError)
		snap.Error = remote.MessageOf(err, searchErrorMessage)
		u.snap = snap
		return
	}

	notas := page.Notas
	if notas == nil {
		notas = []nota.Nota{}
	}
	u.snap = Snapshot{
		Query:          q,
		Phase:          PhaseReady,
		Notas:          notas,
		Total:          page.Total,
		Pagina:         q.Pagina,
		ItensPorPagina: q.ItensPorPagina,
		TotalPaginas:   nota.TotalPages(page.Total, q.ItensPorPagina, page.TotalPaginas),
	}
}

func (u *Query) wait(ctx context.Context, done <-chan struct{}) Snapshot {
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return u.Snapshot()
}
