package certstatus

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/augusttoleao/nfse-client/internal/core/certificado"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/cache"
)

const (
	defaultConcurrency   = 8
	defaultExpiryWarning = 30 * 24 * time.Hour
)

// Options tunes the aggregator.
type Options struct {
	// Concurrency bounds the number of certificate lookups in flight.
	Concurrency int
	// ExpiryWarning is how close to expiry a certificate is flagged.
	ExpiryWarning time.Duration
	Now           func() time.Time
}

// Aggregator keeps the certificate status of every company in the roster.
// The status map is rebuilt as a whole whenever the set of companies
// changes and is never updated entry by entry.
type Aggregator struct {
	certs       certificado.Repository
	log         *slog.Logger
	statuses    *cache.Snapshot[int64, certificado.Status]
	group       singleflight.Group
	concurrency int
	warning     time.Duration
	now         func() time.Time
}

// NewAggregator creates an aggregator reading certificates from certs.
func NewAggregator(certs certificado.Repository, log *slog.Logger, opts Options) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.ExpiryWarning <= 0 {
		opts.ExpiryWarning = defaultExpiryWarning
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{
		certs:       certs,
		log:         log,
		statuses:    cache.NewSnapshot[int64, certificado.Status](),
		concurrency: opts.Concurrency,
		warning:     opts.ExpiryWarning,
		now:         opts.Now,
	}
}

// Key derives the cache key of a company set: the sorted, de-duplicated
// identifiers joined by commas.
func Key(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// Refresh ensures the status map covers exactly ids and returns a copy of it.
// A set equal to the last one aggregated issues no requests; concurrent
// calls for the same set share one batch.
//
// Each company is fetched independently and a failed fetch yields an absent
// status for that company alone. When ctx is cancelled mid-batch the stored
// map is left untouched and every requested id is reported absent.
func (a *Aggregator) Refresh(ctx context.Context, ids []int64) map[int64]certificado.Status {
	key := Key(ids)
	if current, ok := a.statuses.Key(); ok && current == key {
		return a.statuses.All()
	}

	v, _, _ := a.group.Do(key, func() (any, error) {
		if current, ok := a.statuses.Key(); ok && current == key {
			return a.statuses.All(), nil
		}
		return a.aggregate(ctx, key, ids), nil
	})
	return maps.Clone(v.(map[int64]certificado.Status))
}

func (a *Aggregator) aggregate(ctx context.Context, key string, ids []int64) map[int64]certificado.Status {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	results := make([]certificado.Status, len(unique))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, id := range unique {
		g.Go(func() error {
			results[i] = a.lookup(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	// An abandoned batch is neither cached nor mixed with the previous map,
	// which may belong to another roster: every requested company reads as
	// absent until a complete batch lands.
	if err := ctx.Err(); err != nil {
		a.log.Debug("certificate aggregation abandoned", "companies", len(unique), "error", err)
		absent := make(map[int64]certificado.Status, len(unique))
		for _, id := range unique {
			absent[id] = certificado.Status{State: certificado.StateAbsent}
		}
		return absent
	}

	statuses := make(map[int64]certificado.Status, len(unique))
	for i, id := range unique {
		statuses[id] = results[i]
	}
	a.statuses.Replace(key, statuses)

	a.log.Debug("certificate statuses aggregated",
		"companies", len(unique),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return statuses
}

// lookup never fails: an unreachable certificate list counts as absent.
func (a *Aggregator) lookup(ctx context.Context, id int64) certificado.Status {
	certs, err := a.certs.ListByCompany(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Warn("certificate lookup failed", "empresa_id", id, "error", err)
		}
		return certificado.Status{State: certificado.StateAbsent}
	}
	return certificado.Derive(certs, a.now())
}

// Status returns the cached status of a company; unknown companies are absent.
func (a *Aggregator) Status(id int64) certificado.Status {
	if s, ok := a.statuses.Get(id); ok {
		return s
	}
	return certificado.Status{State: certificado.StateAbsent}
}

// Display describes a company's cached status for presentation.
func (a *Aggregator) Display(id int64) Display {
	s := a.Status(id)
	now := a.now()
	return Display{
		EmpresaID: id,
		State:     s.State,
		ExpiresAt: s.ExpiresAt,
		Severity:  Classify(s, now, a.warning),
		Tooltip:   Tooltip(s, now, a.warning),
	}
}

// Invalidate drops the status map so the next Refresh rebuilds it.
func (a *Aggregator) Invalidate() {
	a.statuses.Clear()
}
