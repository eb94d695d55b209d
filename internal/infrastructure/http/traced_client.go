package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ctxutil "github.com/augusttoleao/nfse-client/internal/infrastructure/context"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/security"
)

// TracedClient wraps an HTTP client and logs every exchange with the
// upstream, propagating the correlation ID and redacting credentials.
type TracedClient struct {
	client      *http.Client
	log         *slog.Logger
	upstream    string
	logBodies   bool
	maxBodySize int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	LogBodies       bool
	MaxBodySize     int
	MaxConnsPerHost int
}

// NewTracedClient creates a traced client for the named upstream.
func NewTracedClient(cfg TracedClientConfig, log *slog.Logger, upstream string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}

	return &TracedClient{
		client: NewClient(&ClientConfig{
			Timeout:   cfg.Timeout,
			Transport: NewTransport(cfg.MaxConnsPerHost, cfg.Timeout),
		}),
		log:         log,
		upstream:    upstream,
		logBodies:   cfg.LogBodies,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Do executes req, logging the request and the response around it. Both
// bodies are restored so callers can read them as usual.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	operation := c.extractOperation(req)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set(ctxutil.CorrelationHeader, correlationID)
	}

	var requestBody []byte
	if c.logBodies && req.Body != nil && !security.IsMultipart(req.Header.Get("Content-Type")) {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			c.log.Error("failed to read request body for tracing", "error", err, "correlation_id", correlationID)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if c.logBodies && resp != nil && resp.Body != nil {
		responseBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)
	return resp, err
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"upstream", c.upstream,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}

	contentType := req.Header.Get("Content-Type")
	switch {
	case c.logBodies && security.IsMultipart(contentType):
		attrs = append(attrs, "request_body", string(security.DescribeOmitted(contentType, int(req.ContentLength))))
	case c.logBodies && len(body) > 0:
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	c.log.Debug("upstream_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"upstream", c.upstream,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Warn("upstream_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if c.logBodies && len(body) > 0 {
		attrs = append(attrs, "response_size_bytes", len(body))
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("upstream_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("upstream_response", attrs...)
	default:
		c.log.Debug("upstream_response", attrs...)
	}
}

// extractOperation names the call after its first two path segments below
// the API root, e.g. "certificados/empresa".
func (c *TracedClient) extractOperation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(parts) > 0 && parts[0] == "api" {
		parts = parts[1:]
	}

	segments := make([]string, 0, 2)
	for _, part := range parts {
		if part == "" || isNumeric(part) {
			continue
		}
		segments = append(segments, part)
		if len(segments) == 2 {
			break
		}
	}
	if len(segments) == 0 {
		return strings.ToLower(req.Method) + "_" + c.upstream
	}
	return strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Client returns the underlying HTTP client.
func (c *TracedClient) Client() *http.Client {
	return c.client
}
