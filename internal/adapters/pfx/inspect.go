package pfx

import (
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

// ErrWrongPassword is returned when the bundle does not open with the given password.
var ErrWrongPassword = errors.New("senha do certificado incorreta")

// Info describes the leaf certificate of a PKCS#12 bundle.
type Info struct {
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	SerialNumber string    `json:"numeroSerie"`
	NotBefore    time.Time `json:"validoDesde"`
	NotAfter     time.Time `json:"validoAte"`
	CNPJ         string    `json:"cnpj,omitempty"`
	ChainLength  int       `json:"cadeia"`
}

// Expired reports whether the certificate is past its validity at now.
func (i Info) Expired(now time.Time) bool {
	return now.After(i.NotAfter)
}

// Inspect decodes a PKCS#12 bundle and returns its leaf certificate
// details. The private key is discarded.
func Inspect(data []byte, password string) (Info, error) {
	if len(data) == 0 {
		return Info{}, errors.New("arquivo de certificado vazio")
	}

	_, cert, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return Info{}, ErrWrongPassword
		}
		return Info{}, fmt.Errorf("decode PKCS#12: %w", err)
	}

	return Info{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: strings.ToUpper(cert.SerialNumber.Text(16)),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		CNPJ:         cnpjFromSubject(cert),
		ChainLength:  1 + len(caCerts),
	}, nil
}

// ICP-Brasil e-CNPJ certificates carry "RAZAO SOCIAL:CNPJ" in the common name.
func cnpjFromSubject(cert *x509.Certificate) string {
	cn := cert.Subject.CommonName
	i := strings.LastIndexByte(cn, ':')
	if i < 0 {
		return ""
	}
	candidate := strings.TrimSpace(cn[i+1:])
	if len(candidate) != 14 {
		return ""
	}
	for _, r := range candidate {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return candidate
}
