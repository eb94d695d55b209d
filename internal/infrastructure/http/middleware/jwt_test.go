package middleware

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/augusttoleao/nfse-client/internal/infrastructure/config"
	"github.com/augusttoleao/nfse-client/internal/testutil"
)

const testIssuer = "https://issuer.example.com"

func signingKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func enabledAuthenticator(key *ecdsa.PrivateKey) *JWTAuthenticator {
	cfg := config.AuthSettings{
		IssuerURI:   testIssuer,
		ClockSkew:   time.Minute,
		BypassPaths: []string{"/health"},
	}
	return NewJWTAuthenticatorWithKeyfunc(cfg, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, testutil.NewNullLogger())
}

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Subject(r.Context())))
	})
}

func TestNewJWTAuthenticator_AuthDisabled(t *testing.T) {
	auth, err := NewJWTAuthenticator(config.AuthSettings{Enabled: false}, testutil.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/empresas", nil)
	w := httptest.NewRecorder()
	auth.Middleware(subjectEcho()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected pass-through when disabled, got %d", w.Code)
	}
}

func TestNewJWTAuthenticator_InvalidJWKSetURI(t *testing.T) {
	cfg := config.AuthSettings{Enabled: true, IssuerURI: testIssuer, JWKSetURI: "invalid-uri"}
	if _, err := NewJWTAuthenticator(cfg, testutil.NewNullLogger()); err == nil {
		t.Error("expected error for invalid JWKS URI, got nil")
	}
}

func TestJWTAuthenticator_Middleware(t *testing.T) {
	key := signingKey(t)
	otherKey := signingKey(t)
	now := time.Now()

	valid := jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "operador@example.com",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	wrongIssuer := valid
	wrongIssuer.Issuer = "https://other.example.com"

	tests := []struct {
		name    string
		path    string
		header  string
		status  int
		subject string
	}{
		{name: "valid token", path: "/api/empresas", header: "Bearer " + signToken(t, key, valid), status: http.StatusOK, subject: "operador@example.com"},
		{name: "missing header", path: "/api/empresas", status: http.StatusUnauthorized},
		{name: "malformed header", path: "/api/empresas", header: "Token abc", status: http.StatusUnauthorized},
		{name: "expired token", path: "/api/empresas", header: "Bearer " + signToken(t, key, expired), status: http.StatusUnauthorized},
		{name: "wrong issuer", path: "/api/empresas", header: "Bearer " + signToken(t, key, wrongIssuer), status: http.StatusUnauthorized},
		{name: "wrong key", path: "/api/empresas", header: "Bearer " + signToken(t, otherKey, valid), status: http.StatusUnauthorized},
		{name: "bypass path", path: "/health", status: http.StatusOK},
		{name: "bypass subpath", path: "/health/live", status: http.StatusOK},
	}

	auth := enabledAuthenticator(key)
	handler := auth.Middleware(subjectEcho())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			if tt.status == http.StatusUnauthorized {
				var body map[string]any
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body["message"] != authErrorMessage {
					t.Errorf("expected message %q, got %v", authErrorMessage, body["message"])
				}
				return
			}
			if got := w.Body.String(); got != tt.subject {
				t.Errorf("expected subject %q, got %q", tt.subject, got)
			}
		})
	}
}

func TestJWTAuthenticator_shouldBypass(t *testing.T) {
	auth := newAuthenticator(config.AuthSettings{BypassPaths: []string{"/health/", " /docs ", ""}}, testutil.NewNullLogger())

	tests := []struct {
		path     string
		expected bool
	}{
		{"/health", true},
		{"/health/ready", true},
		{"/healthz", false},
		{"/docs", true},
		{"/api/notas", false},
	}

	for _, tt := range tests {
		if got := auth.shouldBypass(tt.path); got != tt.expected {
			t.Errorf("shouldBypass(%q): expected %v, got %v", tt.path, tt.expected, got)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		token   string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc.def", token: "abc.def"},
		{name: "case insensitive", header: "bearer abc", token: "abc"},
		{name: "empty", header: "", wantErr: true},
		{name: "no token", header: "Bearer", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
		{name: "extra parts", header: "Bearer a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := extractBearerToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.token {
				t.Errorf("expected %q, got %q", tt.token, token)
			}
		})
	}
}

func TestJWTAuthenticator_Close(t *testing.T) {
	auth, _ := NewJWTAuthenticator(config.AuthSettings{}, testutil.NewNullLogger())
	auth.Close()
}
