package remote

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when calls to the invoicing API are being
// short-circuited after repeated failures.
var ErrUnavailable = errors.New("API de NFSe indisponível, tente novamente em instantes")

// Error is a failure reported by the invoicing API. Message is the text
// meant for the user; Details carries the raw diagnostics when present.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// MessageOf extracts the user-facing message from err, falling back to
// fallback when err does not carry one.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnavailable) {
		return ErrUnavailable.Error()
	}
	return fallback
}

// DetailsOf returns the diagnostic details attached to err, if any.
func DetailsOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Details
	}
	return ""
}
