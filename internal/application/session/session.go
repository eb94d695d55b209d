// Package session ties the core units to the selected company so that every
// surface drives the same objects.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	appcert "github.com/augusttoleao/nfse-client/internal/application/certificado"
	"github.com/augusttoleao/nfse-client/internal/application/certstatus"
	appemissao "github.com/augusttoleao/nfse-client/internal/application/emissao"
	appempresa "github.com/augusttoleao/nfse-client/internal/application/empresa"
	appnota "github.com/augusttoleao/nfse-client/internal/application/nota"
	"github.com/augusttoleao/nfse-client/internal/core/certificado"
	"github.com/augusttoleao/nfse-client/internal/core/empresa"
	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

// ErrCompanyNotFound is returned when selecting an id outside the roster.
var ErrCompanyNotFound = errors.New("Empresa não encontrada")

// PageSizes are the default page sizes of the two listings.
type PageSizes struct {
	Emitidas  int
	Recebidas int
}

// Deps are the units a session coordinates.
type Deps struct {
	Empresas     *appempresa.Directory
	Statuses     *certstatus.Aggregator
	Certificados *appcert.Manager
	Emissao      *appemissao.Service
	Notas        nota.Repository
	PageSizes    PageSizes
}

// Session is one operator's view over the invoicing API.
type Session struct {
	Empresas     *appempresa.Directory
	Statuses     *certstatus.Aggregator
	Certificados *appcert.Manager
	Emissao      *appemissao.Service
	Emitidas     *appnota.Query
	Recebidas    *appnota.Query

	notas     nota.Repository
	pageSizes PageSizes
	log       *slog.Logger
}

// New builds a session. Each listing gets its own query unit.
func New(deps Deps, log *slog.Logger) *Session {
	if deps.PageSizes.Emitidas < 1 {
		deps.PageSizes.Emitidas = nota.DefaultPageSize
	}
	if deps.PageSizes.Recebidas < 1 {
		deps.PageSizes.Recebidas = nota.DefaultReceivedPageSize
	}
	return &Session{
		Empresas:     deps.Empresas,
		Statuses:     deps.Statuses,
		Certificados: deps.Certificados,
		Emissao:      deps.Emissao,
		Emitidas:     appnota.NewQuery(deps.Notas, log),
		Recebidas:    appnota.NewQuery(deps.Notas, log),
		notas:        deps.Notas,
		pageSizes:    deps.PageSizes,
		log:          log,
	}
}

// Start loads the roster, restores the selection and propagates it to the
// dependent units.
func (s *Session) Start(ctx context.Context) appempresa.Snapshot {
	snap := s.Empresas.Load(ctx)
	s.propagate(ctx)
	return snap
}

// Select makes the roster member with id the selected company.
func (s *Session) Select(ctx context.Context, id int64) (empresa.Company, error) {
	c, ok := s.Empresas.Find(id)
	if !ok {
		return empresa.Company{}, fmt.Errorf("select company %d: %w", id, ErrCompanyNotFound)
	}
	if err := s.Empresas.Select(ctx, c); err != nil {
		return empresa.Company{}, err
	}
	s.propagate(ctx)
	return c, nil
}

func (s *Session) propagate(ctx context.Context) {
	c, ok := s.Empresas.Selected()
	if !ok {
		s.Emissao.SetCompany(ctx, nil)
		return
	}
	s.Emissao.SetCompany(ctx, &c)
	s.Certificados.List(ctx, c.ID)
}

// Selected returns the selected company or ErrNoCompanySelected.
func (s *Session) Selected() (empresa.Company, error) {
	c, ok := s.Empresas.Selected()
	if !ok {
		return empresa.Company{}, empresa.ErrNoCompanySelected
	}
	return c, nil
}

// CertificateStatuses refreshes the roster's statuses and returns them in
// roster order.
func (s *Session) CertificateStatuses(ctx context.Context) []certstatus.Display {
	ids := s.Empresas.IDs()
	s.Statuses.Refresh(ctx, ids)

	out := make([]certstatus.Display, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.Statuses.Display(id))
	}
	return out
}

// Certificates lists the selected company's certificates.
func (s *Session) Certificates(ctx context.Context) ([]certificado.Certificate, error) {
	c, err := s.Selected()
	if err != nil {
		return nil, err
	}
	return s.Certificados.List(ctx, c.ID), nil
}

// UploadCertificate uploads file for the selected company.
func (s *Session) UploadCertificate(ctx context.Context, file certificado.File, senha string) error {
	c, err := s.Selected()
	if err != nil {
		return err
	}
	err = s.Certificados.Upload(ctx, certificado.UploadRequest{
		File:        file,
		EmpresaID:   c.ID,
		CNPJ:        c.CNPJ,
		RazaoSocial: c.RazaoSocial,
		Senha:       senha,
	})
	if err != nil {
		return err
	}
	s.certificatesChanged(ctx)
	return nil
}

// DeleteCertificate removes a certificate of the selected company.
func (s *Session) DeleteCertificate(ctx context.Context, id int64) error {
	if err := s.Certificados.Delete(ctx, id); err != nil {
		return err
	}
	s.certificatesChanged(ctx)
	return nil
}

// certificatesChanged drops cached statuses and rechecks the emission gate.
func (s *Session) certificatesChanged(ctx context.Context) {
	s.Statuses.Invalidate()
	if c, ok := s.Empresas.Selected(); ok {
		s.Emissao.SetCompany(ctx, &c)
	}
}

// ListingRequest is the operator-facing part of a listing query.
type ListingRequest struct {
	Tipo           nota.Tipo
	DataInicio     string
	DataFim        string
	Pagina         int
	ItensPorPagina int
}

// Listing runs r through the listing unit of its type, scoped to the
// selected company when there is one.
func (s *Session) Listing(ctx context.Context, r ListingRequest) appnota.Snapshot {
	q := nota.Query{
		Tipo:           r.Tipo,
		DataInicio:     r.DataInicio,
		DataFim:        r.DataFim,
		Pagina:         r.Pagina,
		ItensPorPagina: r.ItensPorPagina,
	}
	if c, ok := s.Empresas.Selected(); ok {
		q.EmpresaID = c.ID
	}

	unit := s.Emitidas
	if q.ItensPorPagina < 1 {
		q.ItensPorPagina = s.pageSizes.Emitidas
	}
	if r.Tipo == nota.Recebidas {
		unit = s.Recebidas
		if r.ItensPorPagina < 1 {
			q.ItensPorPagina = s.pageSizes.Recebidas
		}
	}
	return unit.Update(ctx, q)
}

// Summary returns the dashboard totals of the selected company.
func (s *Session) Summary(ctx context.Context) appnota.Summary {
	var id int64
	if c, ok := s.Empresas.Selected(); ok {
		id = c.ID
	}
	return appnota.Summarize(ctx, s.notas, id, s.log)
}

// Close stops in-flight listing fetches.
func (s *Session) Close() {
	s.Emitidas.Close()
	s.Recebidas.Close()
}
