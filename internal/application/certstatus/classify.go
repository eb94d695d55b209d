package certstatus

import (
	"time"

	"github.com/augusttoleao/nfse-client/internal/core/certificado"
)

// Severity is the display level of a certificate status.
type Severity string

const (
	SeverityNone    Severity = "none"
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Display is the presentation form of one company's certificate status.
type Display struct {
	EmpresaID int64             `json:"empresaId"`
	State     certificado.State `json:"status"`
	ExpiresAt *time.Time        `json:"expiraEm,omitempty"`
	Severity  Severity          `json:"severidade"`
	Tooltip   string            `json:"dica"`
}

// Classify maps a status to its display severity. A valid certificate
// expiring within window is a warning.
func Classify(s certificado.Status, now time.Time, window time.Duration) Severity {
	switch s.State {
	case certificado.StateExpired:
		return SeverityDanger
	case certificado.StateValid:
		if expiringSoon(s, now, window) {
			return SeverityWarning
		}
		return SeverityOK
	default:
		return SeverityNone
	}
}

// Tooltip returns the human-readable description of a status.
func Tooltip(s certificado.Status, now time.Time, window time.Duration) string {
	switch s.State {
	case certificado.StateExpired:
		if s.ExpiresAt == nil {
			return "Certificado vencido"
		}
		return "Certificado vencido em " + formatDate(*s.ExpiresAt)
	case certificado.StateValid:
		if s.ExpiresAt == nil {
			return "Certificado válido"
		}
		if expiringSoon(s, now, window) {
			return "Certificado vence em breve (" + formatDate(*s.ExpiresAt) + ")"
		}
		return "Certificado válido até " + formatDate(*s.ExpiresAt)
	default:
		return "Nenhum certificado cadastrado"
	}
}

func expiringSoon(s certificado.Status, now time.Time, window time.Duration) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Sub(now) <= window
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
