package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/augusttoleao/nfse-client/internal/adapters/nfseapi"
	"github.com/augusttoleao/nfse-client/internal/adapters/state/memory"
	"github.com/augusttoleao/nfse-client/internal/adapters/state/postgres"
	"github.com/augusttoleao/nfse-client/internal/adapters/state/sqlite"
	"github.com/augusttoleao/nfse-client/internal/adapters/viacep"
	appcert "github.com/augusttoleao/nfse-client/internal/application/certificado"
	"github.com/augusttoleao/nfse-client/internal/application/certstatus"
	appemissao "github.com/augusttoleao/nfse-client/internal/application/emissao"
	appempresa "github.com/augusttoleao/nfse-client/internal/application/empresa"
	apphealth "github.com/augusttoleao/nfse-client/internal/application/health"
	"github.com/augusttoleao/nfse-client/internal/application/session"
	"github.com/augusttoleao/nfse-client/internal/core/state"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/config"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/database"
	httpx "github.com/augusttoleao/nfse-client/internal/infrastructure/http"
)

// app is the wired client shared by every online command.
type app struct {
	session *session.Session
	health  *apphealth.Service
	closers []func()
}

func newApp(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (*app, error) {
	a := &app{
		health: apphealth.NewService(apphealth.Metadata{
			Service:     cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
		}, log),
	}

	store, err := a.openStore(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	apiHTTP := httpx.NewTracedClient(httpx.TracedClientConfig{
		Timeout:     cfg.NFSeAPI.Timeout,
		LogBodies:   cfg.NFSeAPI.LogBodies,
		MaxBodySize: cfg.NFSeAPI.MaxBodySize,
	}, log, "nfse-api")
	api := nfseapi.NewClient(cfg.NFSeAPI.BaseURL, apiHTTP, log, nfseapi.Options{
		CompaniesPath: cfg.NFSeAPI.CompaniesPath,
		Breaker:       nfseapi.NewCircuitBreaker(cfg.Circuit.MaxFailures, cfg.Circuit.Cooldown),
	})

	cepHTTP := httpx.NewTracedClient(httpx.TracedClientConfig{Timeout: cfg.CEP.Timeout}, log, "viacep")
	postal := viacep.NewClient(cfg.CEP.BaseURL, cepHTTP, log)

	a.session = session.New(session.Deps{
		Empresas: appempresa.NewDirectory(api, store, log),
		Statuses: certstatus.NewAggregator(api, log, certstatus.Options{
			Concurrency:   cfg.Certificates.StatusConcurrency,
			ExpiryWarning: cfg.Certificates.ExpiryWarning(),
		}),
		Certificados: appcert.NewManager(api, log),
		Emissao:      appemissao.NewService(api, api, postal, log, appemissao.Options{}),
		Notas:        api,
		PageSizes: session.PageSizes{
			Emitidas:  cfg.Notas.PageSize,
			Recebidas: cfg.Notas.ReceivedPageSize,
		},
	}, log)
	a.closers = append(a.closers, a.session.Close)

	snap := a.session.Start(ctx)
	if snap.Error != "" {
		log.Warn("company roster unavailable", "error", snap.Error)
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (state.Store, error) {
	switch cfg.State.Driver {
	case config.StateDriverMemory:
		log.Debug("using in-memory state store")
		return memory.NewStore(), nil

	case config.StateDriverPostgres:
		pool, err := database.NewPool(ctx, database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Database,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect state database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return nil, fmt.Errorf("migrate state database: %w", err)
		}
		a.health.Register("state", apphealth.PingFunc(pool.Ping))
		log.Info("using postgres state store", "host", cfg.Database.Host, "database", cfg.Database.Database)
		return postgres.NewStore(pool, log), nil

	default:
		store, err := sqlite.Open(cfg.State.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.health.Register("state", store)
		log.Debug("using sqlite state store", "path", cfg.State.SQLitePath)
		return store, nil
	}
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
