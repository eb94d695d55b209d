package cep

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"01310-100", "01310100", nil},
		{" 01310100 ", "01310100", nil},
		{"01.310-100", "01310100", nil},
		{"0131010", "", ErrInvalid},
		{"013101000", "", ErrInvalid},
		{"", "", ErrInvalid},
		{"abcdefgh", "", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
