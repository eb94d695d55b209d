package security

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  http.Header
		expected map[string]string
	}{
		{
			name: "sensitive headers are redacted",
			headers: http.Header{
				"Authorization": []string{"Bearer secret-token"},
				"Cookie":        []string{"session=abc123"},
				"Content-Type":  []string{"application/json"},
				"X-Api-Key":     []string{"my-api-key"},
			},
			expected: map[string]string{
				"Authorization": "[REDACTED]",
				"Cookie":        "[REDACTED]",
				"Content-Type":  "application/json",
				"X-Api-Key":     "[REDACTED]",
			},
		},
		{
			name: "multiple values are joined",
			headers: http.Header{
				"Accept": []string{"application/json", "text/html"},
			},
			expected: map[string]string{
				"Accept": "application/json, text/html",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeHeaders(tt.headers)
			for key, expectedValue := range tt.expected {
				if result[key] != expectedValue {
					t.Errorf("expected %s=%s, got %s", key, expectedValue, result[key])
				}
			}
		})
	}
}

func TestSanitizeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		maxSize     int
		expectation func(t *testing.T, result json.RawMessage)
	}{
		{
			name:    "empty body returns nil",
			body:    []byte{},
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				if result != nil {
					t.Errorf("expected nil, got %v", result)
				}
			},
		},
		{
			name:    "certificate password is redacted",
			body:    []byte(`{"empresaId":7,"senha":"123456","cnpj":"11222333000181"}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				var data map[string]any
				if err := json.Unmarshal(result, &data); err != nil {
					t.Fatalf("failed to unmarshal result: %v", err)
				}
				if data["senha"] != "[REDACTED]" {
					t.Errorf("expected senha to be redacted, got %v", data["senha"])
				}
				if data["cnpj"] != "11222333000181" {
					t.Errorf("expected cnpj to remain, got %v", data["cnpj"])
				}
			},
		},
		{
			name:    "nested arrays are sanitized",
			body:    []byte(`{"data":[{"numero":"1","token":"abc"}]}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				var data struct {
					Data []map[string]any `json:"data"`
				}
				if err := json.Unmarshal(result, &data); err != nil {
					t.Fatalf("failed to unmarshal result: %v", err)
				}
				if len(data.Data) != 1 {
					t.Fatalf("expected 1 element, got %d", len(data.Data))
				}
				if data.Data[0]["token"] != "[REDACTED]" {
					t.Errorf("expected token to be redacted, got %v", data.Data[0]["token"])
				}
				if data.Data[0]["numero"] != "1" {
					t.Errorf("expected numero to remain, got %v", data.Data[0]["numero"])
				}
			},
		},
		{
			name:    "access key is not mistaken for a secret",
			body:    []byte(`{"chaveAcesso":"NFS35"}`),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				var data map[string]any
				_ = json.Unmarshal(result, &data)
				if data["chaveAcesso"] != "NFS35" {
					t.Errorf("expected chaveAcesso to remain, got %v", data["chaveAcesso"])
				}
			},
		},
		{
			name:    "body is truncated if too large",
			body:    []byte(`{"data":"very long string with lots of content"}`),
			maxSize: 20,
			expectation: func(t *testing.T, result json.RawMessage) {
				var data map[string]any
				if err := json.Unmarshal(result, &data); err != nil {
					t.Fatalf("failed to unmarshal result: %v", err)
				}
				if data["_truncated"] != true {
					t.Errorf("expected truncation marker, got %v", data)
				}
			},
		},
		{
			name:    "plain text is wrapped",
			body:    []byte("Internal Server Error"),
			maxSize: 1000,
			expectation: func(t *testing.T, result json.RawMessage) {
				var data map[string]any
				_ = json.Unmarshal(result, &data)
				if data["_format"] != "text" {
					t.Errorf("expected text wrapper, got %v", data)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expectation(t, SanitizeBody(tt.body, tt.maxSize))
		})
	}
}

func TestSanitizeBody_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(`{"senha":"x"}`))
	gz.Close()

	var data map[string]any
	if err := json.Unmarshal(SanitizeBody(buf.Bytes(), 1000), &data); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if data["senha"] != "[REDACTED]" {
		t.Errorf("expected senha to be redacted after inflating, got %v", data["senha"])
	}
}

func TestIsMultipart(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"multipart/form-data; boundary=abc", true},
		{"Multipart/Form-Data", true},
		{"application/json", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsMultipart(tt.contentType); got != tt.expected {
			t.Errorf("IsMultipart(%q): expected %v, got %v", tt.contentType, tt.expected, got)
		}
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "url without sensitive params unchanged",
			url:      "https://api.example.com/notas/emitidas?pagina=1&itensPorPagina=50",
			expected: "https://api.example.com/notas/emitidas?pagina=1&itensPorPagina=50",
		},
		{
			name:     "url with senha param is redacted",
			url:      "https://api.example.com/certificados?empresaId=1&senha=secret123",
			expected: "https://api.example.com/certificados?empresaId=1&senha=[REDACTED]",
		},
		{
			name:     "url with token param is redacted in the middle",
			url:      "https://api.example.com/data?token=abc123&format=json",
			expected: "https://api.example.com/data?token=[REDACTED]&format=json",
		},
		{
			name:     "url without query unchanged",
			url:      "https://api.example.com/empresas/ativas",
			expected: "https://api.example.com/empresas/ativas",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := SanitizeURL(tt.url); result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}
