package certificado

import "time"

// State is the derived certificate situation of a company.
type State string

const (
	StateAbsent  State = "absent"
	StateExpired State = "expired"
	StateValid   State = "valid"
)

// Status is the certificate situation of one company.
type Status struct {
	State     State      `json:"status"`
	ExpiresAt *time.Time `json:"expiraEm,omitempty"`
}

// Derive reduces a company's certificates to a single status using the most
// recently registered one. Ties on registration time go to the later expiry.
func Derive(certs []Certificate, now time.Time) Status {
	if len(certs) == 0 {
		return Status{State: StateAbsent}
	}

	latest := certs[0]
	for _, c := range certs[1:] {
		if c.DataInclusao.After(latest.DataInclusao) ||
			(c.DataInclusao.Equal(latest.DataInclusao) && c.DataValidade.After(latest.DataValidade)) {
			latest = c
		}
	}

	if latest.DataValidade.IsZero() {
		return Status{State: StateValid}
	}

	expiry := latest.DataValidade
	if expiry.Before(now) {
		return Status{State: StateExpired, ExpiresAt: &expiry}
	}
	return Status{State: StateValid, ExpiresAt: &expiry}
}
