package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphealth "github.com/augusttoleao/nfse-client/internal/application/health"
	corehealth "github.com/augusttoleao/nfse-client/internal/core/health"
	"github.com/augusttoleao/nfse-client/internal/testutil"
)

func TestHandler_Status(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		code     int
		expected string
	}{
		{name: "healthy", code: http.StatusOK, expected: corehealth.StatusUp},
		{name: "degraded", pingErr: errors.New("unreachable"), code: http.StatusServiceUnavailable, expected: corehealth.StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := apphealth.NewService(apphealth.Metadata{Service: "nfse-client", Version: "1.0.0", Environment: "test"}, testutil.NewNullLogger())
			service.Register("state", apphealth.PingFunc(func(context.Context) error { return tt.pingErr }))
			handler := NewHandler(service, testutil.NewNullLogger())

			w := httptest.NewRecorder()
			handler.Status(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			var status corehealth.Status
			testutil.ReadJSONResponse(t, w, tt.code, &status)

			if status.Status != tt.expected {
				t.Errorf("expected status %q, got %q", tt.expected, status.Status)
			}
			if status.Service != "nfse-client" {
				t.Errorf("expected service nfse-client, got %q", status.Service)
			}
			if len(status.Dependencies) != 1 || status.Dependencies[0].Name != "state" {
				t.Errorf("expected state dependency, got %v", status.Dependencies)
			}
		})
	}
}
