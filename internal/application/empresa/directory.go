package empresa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/augusttoleao/nfse-client/internal/core/empresa"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
	"github.com/augusttoleao/nfse-client/internal/core/state"
)

const loadErrorMessage = "Erro ao carregar empresas"

// Snapshot is an immutable view of the directory.
type Snapshot struct {
	Empresas    []empresa.Company `json:"empresas"`
	Selecionada *empresa.Company  `json:"selecionada"`
	Loaded      bool              `json:"carregado"`
	Error       string            `json:"erro,omitempty"`
}

// Directory owns the company roster and the selected company. The selection
// is mirrored to a state.Store and commit is its only writer.
type Directory struct {
	source empresa.Directory
	store  state.Store
	log    *slog.Logger

	loadMu sync.Mutex

	mu       sync.RWMutex
	loaded   bool
	roster   []empresa.Company
	selected *empresa.Company
	err      string
}

// NewDirectory creates a directory backed by source and persisting the
// selection in store.
func NewDirectory(source empresa.Directory, store state.Store, log *slog.Logger) *Directory {
	return &Directory{
		source: source,
		store:  store,
		log:    log,
		roster: []empresa.Company{},
	}
}

// Load fetches the roster on first use and restores the persisted selection.
// Later calls return the cached result; a failed load is not retried.
func (d *Directory) Load(ctx context.Context) Snapshot {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()

	if d.isLoaded() {
		return d.Snapshot()
	}
	return d.load(ctx)
}

// Reload fetches the roster again and re-runs the selection restore.
func (d *Directory) Reload(ctx context.Context) Snapshot {
	d.loadMu.Lock()
	defer d.loadMu.Unlock()
	return d.load(ctx)
}

// load replaces the roster and then restores the selection against it.
// Explicitly inactive companies are dropped; unmarked and unrecognised ones
// are kept. On failure the roster is emptied and the snapshot carries the
// API message, or loadErrorMessage when there is none.
func (d *Directory) load(ctx context.Context) Snapshot {
	companies, err := d.source.ListActive(ctx)
	if err != nil {
		d.log.Error("failed to load companies", "error", err)
		d.mu.Lock()
		d.loaded = true
		d.roster = []empresa.Company{}
		d.err = remote.MessageOf(err, loadErrorMessage)
		d.mu.Unlock()
		return d.Snapshot()
	}

	roster := make([]empresa.Company, 0, len(companies))
	for _, c := range companies {
		if c.Inactive() {
			continue
		}
		if c.Ativo == empresa.FlagUnrecognised {
			d.log.Warn("company has an unrecognised ativo value, keeping it", "empresa_id", c.ID, "cnpj", c.CNPJ)
		}
		roster = append(roster, c)
	}

	d.mu.Lock()
	d.loaded = true
	d.roster = roster
	d.err = ""
	d.mu.Unlock()

	d.log.Debug("companies loaded", "count", len(roster), "discarded", len(companies)-len(roster))

	d.restore(ctx, roster)
	return d.Snapshot()
}

// restore reconciles the persisted selection with the roster: a stored
// record still present is refreshed from the roster, anything else yields
// the first entry or no selection.
func (d *Directory) restore(ctx context.Context, roster []empresa.Company) {
	var candidate *empresa.Company

	if stored, ok := d.readStored(ctx); ok {
		if i := slices.IndexFunc(roster, func(c empresa.Company) bool { return c.ID == stored.ID }); i >= 0 {
			candidate = &roster[i]
		} else {
			d.log.Debug("persisted company is no longer active", "empresa_id", stored.ID)
		}
	}
	if candidate == nil && len(roster) > 0 {
		candidate = &roster[0]
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.commit(ctx, candidate); err != nil {
		d.log.Warn("failed to persist restored company", "error", err)
	}
}

func (d *Directory) readStored(ctx context.Context) (empresa.Company, bool) {
	raw, ok, err := d.store.Get(ctx, state.SelectedCompanyKey)
	if err != nil {
		d.log.Warn("failed to read persisted company", "error", err)
		return empresa.Company{}, false
	}
	if !ok || len(raw) == 0 {
		return empresa.Company{}, false
	}

	var c empresa.Company
	if err := json.Unmarshal(raw, &c); err != nil {
		d.log.Warn("discarding unreadable persisted company", "error", err)
		return empresa.Company{}, false
	}
	return c, true
}

// Select makes c the selected company and persists it. The caller is
// expected to pass a roster member. When persisting fails the previous
// selection is kept and the error returned.
func (d *Directory) Select(ctx context.Context, c empresa.Company) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.commit(ctx, &c); err != nil {
		return err
	}
	d.log.Info("company selected", "empresa_id", c.ID, "cnpj", c.CNPJ)
	return nil
}

// commit writes the store first and memory second; callers hold d.mu.
func (d *Directory) commit(ctx context.Context, c *empresa.Company) error {
	if c == nil {
		if err := d.store.Delete(ctx, state.SelectedCompanyKey); err != nil {
			return fmt.Errorf("clear selected company: %w", err)
		}
		d.selected = nil
		return nil
	}

	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode selected company: %w", err)
	}

	if d.selected != nil && d.selected.ID == c.ID {
		if current, err := json.Marshal(d.selected); err == nil && bytes.Equal(current, encoded) {
			return nil
		}
	}

	if err := d.store.Set(ctx, state.SelectedCompanyKey, encoded); err != nil {
		return fmt.Errorf("persist selected company: %w", err)
	}
	selected := *c
	d.selected = &selected
	return nil
}

// Selected returns a copy of the selected company.
func (d *Directory) Selected() (empresa.Company, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.selected == nil {
		return empresa.Company{}, false
	}
	return *d.selected, true
}

// Find returns the roster member with the given id.
func (d *Directory) Find(id int64) (empresa.Company, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.roster {
		if c.ID == id {
			return c, true
		}
	}
	return empresa.Company{}, false
}

// IDs returns the roster identifiers in roster order.
func (d *Directory) IDs() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]int64, len(d.roster))
	for i, c := range d.roster {
		ids[i] = c.ID
	}
	return ids
}

// Snapshot returns a copy of the current state.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := Snapshot{
		Empresas: slices.Clone(d.roster),
		Loaded:   d.loaded,
		Error:    d.err,
	}
	if d.selected != nil {
		selected := *d.selected
		snap.Selecionada = &selected
	}
	return snap
}

func (d *Directory) isLoaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}
