package nfseapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/augusttoleao/nfse-client/internal/core/empresa"
)

var _ empresa.Directory = (*Client)(nil)

// ListActive fetches the company roster.
func (c *Client) ListActive(ctx context.Context) ([]empresa.Company, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: c.companiesPath})
	if err != nil {
		return nil, err
	}

	if !resp.ok() {
		env, _ := resp.envelope()
		return nil, failure(resp, "Erro ao carregar empresas: "+http.StatusText(resp.status), env.Message, env.errorText())
	}

	env, err := resp.envelope()
	if err != nil {
		return nil, fmt.Errorf("empresas: %w", err)
	}
	if !env.Success {
		return nil, failure(resp, "Erro ao carregar empresas", env.Message, env.errorText())
	}

	companies, err := decodeData[[]empresa.Company](env)
	if err != nil {
		return nil, fmt.Errorf("empresas: %w", err)
	}

	c.log.Debug("company roster fetched", "count", len(companies))
	return companies, nil
}
