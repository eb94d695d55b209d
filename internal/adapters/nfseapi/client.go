package nfseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/augusttoleao/nfse-client/internal/core/remote"
)

// HTTPClient is satisfied by *http.Client and the traced client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options tune a Client.
type Options struct {
	// CompaniesPath is the roster endpoint, relative to the base URL.
	CompaniesPath string
	// Breaker, when set, guards every call.
	Breaker *CircuitBreaker
}

// Client talks to the NFS-e backend. Every endpoint answers with a
// {success, data, message, error, details} envelope.
type Client struct {
	baseURL       string
	companiesPath string
	http          HTTPClient
	breaker       *CircuitBreaker
	log           *slog.Logger
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, httpClient HTTPClient, log *slog.Logger, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.CompaniesPath == "" {
		opts.CompaniesPath = "/empresas/ativas"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		companiesPath: opts.CompaniesPath,
		http:          httpClient,
		breaker:       opts.Breaker,
		log:           log,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Details json.RawMessage `json:"details"`
}

func (e envelope) errorText() string   { return rawText(e.Error) }
func (e envelope) detailsText() string { return rawText(e.Details) }

// hasData reports whether the payload carries a non-null data member.
func (e envelope) hasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// envelope decodes the body. Empty bodies decode to an envelope whose
// success mirrors the status code.
func (r response) envelope() (envelope, error) {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return envelope{Success: r.ok()}, nil
	}
	var env envelope
	if err := json.Unmarshal(r.body, &env); err != nil {
		return envelope{}, fmt.Errorf("decode response envelope: %w", err)
	}
	return env, nil
}

// errUpstream marks responses that count as failures for the breaker.
var errUpstream = errors.New("upstream server error")

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// do performs one API round trip through the circuit breaker, when one is
// configured, and returns the raw status and body.
// Outcomes map as follows:
//   - 2xx, 4xx: returned as is for the caller to interpret
//   - 5xx: returned as is, but counted as a breaker failure
//   - open breaker: remote.ErrUnavailable, logged at Warn
//   - transport error: wrapped with method and path, logged at Warn
func (c *Client) do(ctx context.Context, r request) (response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var resp response
	call := func() error {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, target, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		payload, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		resp = response{status: httpResp.StatusCode, body: payload}
		if httpResp.StatusCode >= 500 {
			return errUpstream
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call()
	}

	switch {
	case err == nil, errors.Is(err, errUpstream):
		return resp, nil
	case errors.Is(err, ErrCircuitOpen):
		c.log.Warn("NFSe API call short-circuited", "method", r.method, "path", r.path)
		return response{}, remote.ErrUnavailable
	default:
		c.log.Warn("NFSe API request failed", "method", r.method, "path", r.path, "error", err)
		return response{}, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
}

// failure builds the error for an unsuccessful response. The message is the
// first non-empty candidate, or fallback.
func failure(resp response, fallback string, candidates ...string) *remote.Error {
	msg := fallback
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			msg = c
			break
		}
	}
	return &remote.Error{StatusCode: resp.status, Message: msg}
}

func decodeData[T any](env envelope) (T, error) {
	var v T
	if !env.hasData() {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, fmt.Errorf("decode response data: %w", err)
	}
	return v, nil
}

// rawText renders a JSON member as text: strings unquoted, anything else
// as indented JSON, null as empty.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
