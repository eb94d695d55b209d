package cep

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalid  = errors.New("CEP deve ter 8 dígitos")
	ErrNotFound = errors.New("CEP não encontrado")
)

// Address is the result of a postal-code lookup.
type Address struct {
	CEP        string
	Logradouro string
	Bairro     string
	Localidade string
	UF         string
	IBGE       string
}

// Service resolves Brazilian postal codes.
type Service interface {
	Lookup(ctx context.Context, cep string) (Address, error)
}

// Normalize strips formatting from a postal code and checks its length.
func Normalize(value string) (string, error) {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 8 {
		return "", ErrInvalid
	}
	return digits, nil
}
