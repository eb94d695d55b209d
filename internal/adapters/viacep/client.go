package viacep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/augusttoleao/nfse-client/internal/core/cep"
)

const (
	// BaseURL is the public ViaCEP endpoint.
	BaseURL = "https://viacep.com.br/ws"
	// DefaultTimeout applies when no HTTP client is supplied.
	DefaultTimeout = 10 * time.Second
)

// HTTPClient is satisfied by *http.Client and the traced client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements cep.Service against ViaCEP.
type Client struct {
	baseURL string
	client  HTTPClient
	log     *slog.Logger
}

// NewClient creates a ViaCEP client. An empty baseURL means the public service.
func NewClient(baseURL string, httpClient HTTPClient, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		log:     log,
	}
}

var _ cep.Service = (*Client)(nil)

type viaCEPResponse struct {
	CEP        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	IBGE       string          `json:"ibge"`
	Erro       json.RawMessage `json:"erro"`
}

// notFound reports the "erro" marker, sent as true or as "true".
func (r viaCEPResponse) notFound() bool {
	marker := strings.Trim(string(bytes.TrimSpace(r.Erro)), `"`)
	return strings.EqualFold(marker, "true")
}

// Lookup resolves a postal code. The code is normalised to eight digits
// before any request is made, so malformed input fails locally.
// Unknown codes yield cep.ErrNotFound, whether ViaCEP signals them with a
// 400, a 404 or an "erro" marker in a 200 body.
func (c *Client) Lookup(ctx context.Context, code string) (cep.Address, error) {
	digits, err := cep.Normalize(code)
	if err != nil {
		return cep.Address{}, err
	}

	apiURL := fmt.Sprintf("%s/%s/json/", c.baseURL, digits)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return cep.Address{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("consulting ViaCEP", "cep", digits)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("error consulting ViaCEP", "error", err, "cep", digits)
		return cep.Address{}, fmt.Errorf("ViaCEP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cep.Address{}, fmt.Errorf("read response body: %w", err)
	}

	// ViaCEP answers 400 for malformed codes; treat those as unknown.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return cep.Address{}, cep.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("ViaCEP returned non-200 status", "status", resp.StatusCode, "cep", digits)
		return cep.Address{}, fmt.Errorf("ViaCEP returned status %d", resp.StatusCode)
	}

	var result viaCEPResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.log.Warn("failed to parse ViaCEP response", "error", err, "cep", digits)
		return cep.Address{}, fmt.Errorf("parse ViaCEP response: %w", err)
	}
	if result.notFound() {
		c.log.Debug("CEP not found", "cep", digits)
		return cep.Address{}, cep.ErrNotFound
	}

	return cep.Address{
		CEP:        result.CEP,
		Logradouro: result.Logradouro,
		Bairro:     result.Bairro,
		Localidade: result.Localidade,
		UF:         result.UF,
		IBGE:       result.IBGE,
	}, nil
}
