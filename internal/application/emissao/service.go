package emissao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/augusttoleao/nfse-client/internal/core/cep"
	"github.com/augusttoleao/nfse-client/internal/core/certificado"
	"github.com/augusttoleao/nfse-client/internal/core/emissao"
	"github.com/augusttoleao/nfse-client/internal/core/empresa"
	"github.com/augusttoleao/nfse-client/internal/core/remote"
)

// State is the position of the emission flow.
type State string

const (
	StateIdle        State = "idle"
	StateChecking    State = "checking-certificate"
	StateReady       State = "ready"
	StateBlocked     State = "blocked"
	StateSubmitting  State = "submitting"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

const (
	submitErrMessage = "Erro ao enviar DPS"
	successMessage   = "DPS enviada com sucesso! NFSe em processamento."
)

var (
	ErrBlocked              = errors.New("Esta empresa não possui certificado digital cadastrado")
	ErrNotReady             = errors.New("Verificando certificado da empresa, aguarde")
	ErrSubmissionInProgress = errors.New("Envio de DPS em andamento")
)

// Outcome is the terminal result of a submission.
type Outcome struct {
	Success bool   `json:"sucesso"`
	Message string `json:"mensagem"`
	Details string `json:"detalhes,omitempty"`
	IDDps   string `json:"idDps,omitempty"`
}

// Notification is a transient message for the operator.
type Notification struct {
	Success bool   `json:"sucesso"`
	Message string `json:"mensagem"`
}

// Snapshot is the state of the emission flow at one point in time.
type Snapshot struct {
	State              State            `json:"estado"`
	Empresa            *empresa.Company `json:"empresa,omitempty"`
	HasCertificate     bool             `json:"temCertificado"`
	CertificateExpired bool             `json:"certificadoVencido"`
	Form               Form             `json:"formulario"`
	Outcome            *Outcome         `json:"resultado,omitempty"`
}

// Options tunes the service.
type Options struct {
	Now func() time.Time
}

// Service drives the DPS emission form. Submission is only possible once
// the selected company is confirmed to have a certificate; a failed lookup
// blocks it.
type Service struct {
	certs     certificado.Repository
	submitter emissao.Submitter
	postal    cep.Service
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   State
	company *empresa.Company
	gen     uint64
	hasCert bool
	expired bool
	form    Form
	outcome *Outcome

	// Company change requested while submitting, applied on settle.
	deferred bool
	pending  *empresa.Company
}

// NewService creates the emission service.
func NewService(certs certificado.Repository, submitter emissao.Submitter, postal cep.Service, log *slog.Logger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		certs:     certs,
		submitter: submitter,
		postal:    postal,
		log:       log,
		now:       opts.Now,
		state:     StateIdle,
		form:      NewForm(opts.Now()),
	}
}

// SetCompany switches the emitter and checks its certificates. A nil
// company returns the flow to idle.
//
// A submission in flight is never interrupted: the change is recorded and
// applied once the submission settles, so the flow cannot go back to ready
// while a DPS is still on its way to the API.
func (s *Service) SetCompany(ctx context.Context, c *empresa.Company) Snapshot {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.deferred = true
		s.pending = nil
		if c != nil {
			company := *c
			s.pending = &company
		}
		s.log.Debug("company change deferred until submission settles")
		snap := s.snapshot()
		s.mu.Unlock()
		return snap
	}
	s.mu.Unlock()
	return s.check(ctx, c, false)
}

// check runs the certificate lookup for c. keepOutcome preserves the last
// submission result when the same company is checked again.
func (s *Service) check(ctx context.Context, c *empresa.Company, keepOutcome bool) Snapshot {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.hasCert, s.expired = false, false
	if !keepOutcome || c == nil || s.company == nil || s.company.ID != c.ID {
		s.outcome = nil
	}
	if c == nil {
		s.company = nil
		s.state = StateIdle
		snap := s.snapshot()
		s.mu.Unlock()
		return snap
	}

	company := *c
	s.company = &company
	s.state = StateChecking
	s.prefill()
	s.mu.Unlock()

	certs, err := s.certs.ListByCompany(ctx, company.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return s.snapshot()
	}

	switch {
	case err != nil:
		s.log.Warn("certificate check failed, emission blocked", "empresa_id", company.ID, "error", err)
		s.state = StateBlocked
	case len(certs) == 0:
		s.log.Debug("company has no certificate", "empresa_id", company.ID)
		s.state = StateBlocked
	default:
		s.hasCert = true
		s.expired = certificado.Derive(certs, s.now()).State == certificado.StateExpired
		s.state = StateReady
	}
	return s.snapshot()
}

// UpdateForm replaces the form contents.
func (s *Service) UpdateForm(f Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting {
		return ErrSubmissionInProgress
	}
	s.form = f
	return nil
}

// ResetForm restores the initial form.
func (s *Service) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = NewForm(s.now())
	s.prefill()
}

// Submit sends the form as a DPS. Precondition failures return an error
// without reaching the API; API failures return both the outcome and an
// error.
//
// At most one submission runs at a time; a second call gets
// ErrSubmissionInProgress. The flow always settles in succeeded or failed,
// after which a company change recorded meanwhile is re-checked.
func (s *Service) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.company == nil {
		s.mu.Unlock()
		return Outcome{}, empresa.ErrNoCompanySelected
	}
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return Outcome{}, ErrSubmissionInProgress
	case StateBlocked:
		s.mu.Unlock()
		return Outcome{}, ErrBlocked
	case StateIdle, StateChecking:
		s.mu.Unlock()
		return Outcome{}, ErrNotReady
	}
	if err := s.form.Validate(); err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}

	payload := s.form.Payload(*s.company)
	s.state = StateSubmitting
	s.outcome = nil
	s.mu.Unlock()

	receipt, err := s.submitter.Submit(ctx, payload)

	outcome, err := s.settle(payload, receipt, err)

	s.mu.Lock()
	deferred, pending := s.deferred, s.pending
	s.deferred, s.pending = false, nil
	s.mu.Unlock()
	if deferred {
		s.check(context.WithoutCancel(ctx), pending, true)
	}
	return outcome, err
}

// settle records the result of a submission and leaves the submitting state.
func (s *Service) settle(payload emissao.Payload, receipt emissao.Receipt, err error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		outcome := Outcome{
			Message: remote.MessageOf(err, submitErrMessage),
			Details: remote.DetailsOf(err),
		}
		var apiErr *remote.Error
		if outcome.Details == "" && !errors.As(err, &apiErr) {
			outcome.Details = err.Error()
		}
		s.log.Warn("dps submission failed", "empresa_id", payload.EmpresaID, "error", err)
		s.state = StateFailed
		s.outcome = &outcome
		return outcome, fmt.Errorf("submit dps: %w", err)
	}

	outcome := Outcome{Success: true, Message: successMessage, IDDps: receipt.IDDps}
	if receipt.IDDps != "" {
		outcome.Details = "ID DPS: " + receipt.IDDps
	}
	s.log.Info("dps submitted", "empresa_id", payload.EmpresaID, "id_dps", receipt.IDDps)
	s.state = StateSucceeded
	s.outcome = &outcome
	s.form = NewForm(s.now())
	s.prefill()
	return outcome, nil
}

// LookupPostalCode fills the taker's address from the postal code in the
// form, or from code when given. Only address fields are written and only
// when the lookup succeeds.
func (s *Service) LookupPostalCode(ctx context.Context, code string) Notification {
	s.mu.Lock()
	if code != "" {
		s.form.TomadorCep = code
	}
	raw := s.form.TomadorCep
	s.mu.Unlock()

	digits, err := cep.Normalize(raw)
	if err != nil {
		return Notification{Message: cep.ErrInvalid.Error()}
	}

	addr, err := s.postal.Lookup(ctx, digits)
	if err != nil {
		if errors.Is(err, cep.ErrNotFound) {
			return Notification{Message: cep.ErrNotFound.Error()}
		}
		s.log.Warn("postal code lookup failed", "cep", digits, "error", err)
		return Notification{Message: "Erro ao buscar CEP"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.TomadorLogradouro = addr.Logradouro
	s.form.TomadorBairro = addr.Bairro
	s.form.TomadorCidade = addr.Localidade
	s.form.TomadorUf = addr.UF
	s.form.TomadorCodigoIbge = addr.IBGE
	return Notification{Success: true, Message: "Endereço preenchido pelo CEP"}
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Service) snapshot() Snapshot {
	snap := Snapshot{
		State:              s.state,
		HasCertificate:     s.hasCert,
		CertificateExpired: s.expired,
		Form:               s.form,
	}
	if s.company != nil {
		c := *s.company
		snap.Empresa = &c
	}
	if s.outcome != nil {
		o := *s.outcome
		snap.Outcome = &o
	}
	return snap
}

// prefill copies the company's activity code into the form; callers hold s.mu.
func (s *Service) prefill() {
	if s.company != nil && s.company.CNAE != "" {
		s.form.CNAE = s.company.CNAE
	}
}
