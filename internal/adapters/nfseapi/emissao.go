package nfseapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/augusttoleao/nfse-client/internal/core/emissao"
)

var _ emissao.Submitter = (*Client)(nil)

type receiptData struct {
	IDDps json.RawMessage `json:"idDps"`
}

// Submit posts a DPS. Only {success: true} counts as accepted; anything
// else is reported as a failure carrying the API diagnostics.
func (c *Client) Submit(ctx context.Context, p emissao.Payload) (emissao.Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return emissao.Receipt{}, fmt.Errorf("encode DPS: %w", err)
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/notas/emitir", body: body, contentType: "application/json"})
	if err != nil {
		return emissao.Receipt{}, err
	}

	env, decodeErr := resp.envelope()
	if !resp.ok() || decodeErr != nil || !env.Success {
		apiErr := failure(resp, "Erro ao enviar DPS", env.Message)
		apiErr.Details = env.errorText()
		if apiErr.Details == "" {
			apiErr.Details = env.detailsText()
		}
		if apiErr.Details == "" {
			apiErr.Details = rawText(env.Data)
		}
		if apiErr.Details == "" && decodeErr != nil {
			apiErr.Details = string(resp.body)
		}
		c.log.Warn("DPS rejected", "empresa_id", p.EmpresaID, "status", resp.status, "message", apiErr.Message)
		return emissao.Receipt{}, apiErr
	}

	data, _ := decodeData[receiptData](env)
	receipt := emissao.Receipt{IDDps: rawText(data.IDDps)}

	c.log.Info("DPS accepted", "empresa_id", p.EmpresaID, "id_dps", receipt.IDDps)
	return receipt, nil
}
