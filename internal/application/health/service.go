package health

import (
	"context"
	"log/slog"
	"sort"
	"time"

	corehealth "github.com/augusttoleao/nfse-client/internal/core/health"
)

const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running client.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Pinger is anything whose reachability can be probed, such as the state
// store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    map[string]Pinger
	log       *slog.Logger
}

func NewService(meta Metadata, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    make(map[string]Pinger),
		log:       log,
	}
}

// Register adds a named dependency probed on every Status call.
func (s *Service) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	s.checks[name] = p
}

// Status returns the current availability snapshot. Any failing dependency
// degrades the overall status.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := corehealth.Dependency{Name: name, Status: corehealth.StatusUp}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.checks[name].Ping(checkCtx)
		cancel()

		if err != nil {
			s.log.Warn("health dependency check failed", "dependency", name, "error", err)
			dep.Status = corehealth.StatusDown
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}
