package nfseapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

var _ nota.Repository = (*Client)(nil)

// Search fetches one page of issued or received notes.
func (c *Client) Search(ctx context.Context, q nota.Query) (nota.Page, error) {
	if !q.Tipo.Valid() {
		return nota.Page{}, fmt.Errorf("notas: unknown listing %q", q.Tipo)
	}

	params := url.Values{}
	if q.EmpresaID > 0 {
		params.Set("empresaId", strconv.FormatInt(q.EmpresaID, 10))
	}
	if q.DataInicio != "" {
		params.Set("dataInicio", q.DataInicio)
	}
	if q.DataFim != "" {
		params.Set("dataFim", q.DataFim)
	}
	params.Set("pagina", strconv.Itoa(q.Pagina))
	params.Set("itensPorPagina", strconv.Itoa(q.ItensPorPagina))

	resp, err := c.do(ctx, request{method: http.MethodGet, path: "/notas/" + string(q.Tipo), query: params})
	if err != nil {
		return nota.Page{}, err
	}

	env, decodeErr := resp.envelope()
	if !resp.ok() {
		return nota.Page{}, failure(resp, "Erro ao buscar notas", env.Message, env.errorText())
	}
	if decodeErr != nil {
		return nota.Page{}, fmt.Errorf("notas %s: %w", q.Tipo, decodeErr)
	}
	if !env.Success || !env.hasData() {
		return nota.Page{}, failure(resp, "Erro ao buscar notas", env.Message, env.errorText())
	}

	page, err := decodeData[nota.Page](env)
	if err != nil {
		return nota.Page{}, fmt.Errorf("notas %s: %w", q.Tipo, err)
	}
	if page.Notas == nil {
		page.Notas = []nota.Nota{}
	}
	return page, nil
}
