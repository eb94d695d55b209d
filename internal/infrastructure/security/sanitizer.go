package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Field names are matched by substring against the lowercased key.
var sensitiveFields = []string{
	"password",
	"senha",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"private_key",
	"chaveprivada",
	"credential",
	"auth",
}

const redactedValue = "[REDACTED]"

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// SanitizeHeaders returns a flattened copy of headers with credentials redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// IsMultipart reports whether contentType is a multipart form. Such bodies
// carry certificate files and passwords and are never logged.
func IsMultipart(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(contentType), "multipart/")
	}
	return strings.HasPrefix(mediaType, "multipart/")
}

// DescribeOmitted stands in for a body that must not be logged.
func DescribeOmitted(contentType string, size int) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_omitted": true,
		"_format":  contentType,
		"_size":    size,
	})
	return result
}

// SanitizeBody redacts sensitive fields from a JSON body. Gzip bodies are
// inflated first; binary and oversized bodies are wrapped instead.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinaryAsJSON(body, "gzip-compressed (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinaryAsJSON(body, "binary (non-UTF8)")
	}

	if maxSize > 0 && len(body) > maxSize {
		result, _ := json.Marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
		return result
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrapText(body)
	}

	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return wrapText(body)
	}
	return result
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func wrapText(body []byte) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_raw":    string(body),
		"_format": "text",
	})
	return result
}

func wrapBinaryAsJSON(data []byte, format string) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
	return result
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		sanitized := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitiveField(key) {
				sanitized[key] = redactedValue
				continue
			}
			sanitized[key] = sanitizeValue(value)
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}

// SanitizeURL redacts the values of sensitive query parameters, keeping
// parameter order intact.
func SanitizeURL(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return rawURL
	}

	fragment := ""
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query, fragment = query[:i], query[i:]
	}

	params := strings.Split(query, "&")
	for i, param := range params {
		name, _, hasValue := strings.Cut(param, "=")
		if hasValue && isSensitiveField(name) {
			params[i] = name + "=" + redactedValue
		}
	}
	return base + "?" + strings.Join(params, "&") + fragment
}
