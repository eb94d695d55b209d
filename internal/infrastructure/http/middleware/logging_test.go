package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "github.com/augusttoleao/nfse-client/internal/infrastructure/context"
	"github.com/augusttoleao/nfse-client/internal/testutil"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		level      string
	}{
		{"2xx logs as info", http.StatusOK, "level=INFO"},
		{"3xx logs as info", http.StatusMovedPermanently, "level=INFO"},
		{"4xx logs as warn", http.StatusBadRequest, "level=WARN"},
		{"5xx logs as error", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := testutil.NewCapturingLogger()
			handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("test response"))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notas/emitidas", nil))

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
			out := buf.String()
			if !strings.Contains(out, tt.level) {
				t.Errorf("expected %s in %q", tt.level, out)
			}
			if !strings.Contains(out, "bytes=13") {
				t.Errorf("expected byte count in %q", out)
			}
		})
	}
}

func TestRequestLogger_CorrelationID(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		requestID string
		expected  string
	}{
		{name: "caller header wins", header: "caller-id", requestID: "req-id", expected: "caller-id"},
		{name: "falls back to request id", requestID: "req-id", expected: "req-id"},
		{name: "generates when absent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := testutil.NewCapturingLogger()

			var seen string
			handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ctxutil.GetCorrelationID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.header != "" {
				req.Header.Set(ctxutil.CorrelationHeader, tt.header)
			}
			if tt.requestID != "" {
				req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, tt.requestID))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if tt.expected != "" && seen != tt.expected {
				t.Errorf("expected correlation id %q, got %q", tt.expected, seen)
			}
			if seen == "" {
				t.Error("expected a correlation id in the request context")
			}
			if got := w.Header().Get(ctxutil.CorrelationHeader); got != seen {
				t.Errorf("expected response header %q, got %q", seen, got)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("expected a deadline on the request context")
	}
	if time.Until(deadline) > time.Second {
		t.Errorf("expected deadline within 1s, got %v", time.Until(deadline))
	}
}

func TestRequestTimeout_Disabled(t *testing.T) {
	handler := RequestTimeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("expected no deadline when timeout is disabled")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	base := httptest.NewRecorder()
	rw := &responseWriter{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
	}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("expected status code %d, got %d", http.StatusNotFound, rw.statusCode)
	}
	if base.Code != http.StatusNotFound {
		t.Errorf("expected base status code %d, got %d", http.StatusNotFound, base.Code)
	}
}

func TestResponseWriter_Write(t *testing.T) {
	base := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: base}

	data := []byte("test data")
	n, err := rw.Write(data)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected to write %d bytes, got %d", len(data), n)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("expected default status code %d, got %d", http.StatusOK, rw.statusCode)
	}
	if rw.bytesWritten != int64(len(data)) {
		t.Errorf("expected bytesWritten %d, got %d", len(data), rw.bytesWritten)
	}
}
