package nfseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/augusttoleao/nfse-client/internal/core/certificado"
)

var _ certificado.Repository = (*Client)(nil)

// ListByCompany returns the certificates registered for a company.
func (c *Client) ListByCompany(ctx context.Context, empresaID int64) ([]certificado.Certificate, error) {
	path := "/certificados/empresa/" + strconv.FormatInt(empresaID, 10)
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}

	env, decodeErr := resp.envelope()
	if !resp.ok() {
		return nil, failure(resp, "Erro ao carregar certificados", env.Message, env.errorText())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("certificados empresa %d: %w", empresaID, decodeErr)
	}
	if !env.Success {
		return nil, failure(resp, "Erro ao carregar certificados", env.Message, env.errorText())
	}

	certs, err := decodeData[[]certificado.Certificate](env)
	if err != nil {
		return nil, fmt.Errorf("certificados empresa %d: %w", empresaID, err)
	}
	return certs, nil
}

// Upload sends a certificate file with its password for the given company.
func (c *Client) Upload(ctx context.Context, req certificado.UploadRequest) error {
	body, contentType, err := multipartBody(req.File, [][2]string{
		{"empresaId", strconv.FormatInt(req.EmpresaID, 10)},
		{"cnpj", req.CNPJ},
		{"razaoSocial", req.RazaoSocial},
		{"senha", req.Senha},
	})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/certificados/upload", body: body, contentType: contentType})
	if err != nil {
		return err
	}

	env, decodeErr := resp.envelope()
	if !resp.ok() || decodeErr != nil || !env.Success {
		apiErr := failure(resp, "Erro ao fazer upload do certificado", env.errorText(), env.detailsText())
		apiErr.Details = env.detailsText()
		return apiErr
	}

	c.log.Info("certificate uploaded", "empresa_id", req.EmpresaID, "arquivo", req.File.Name)
	return nil
}

type validateResponse struct {
	Valido *bool           `json:"valido"`
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
}

// Validate asks the API whether the file opens with the password. Nothing is stored.
func (c *Client) Validate(ctx context.Context, file certificado.File, senha string) (bool, error) {
	body, contentType, err := multipartBody(file, [][2]string{{"senha", senha}})
	if err != nil {
		return false, err
	}

	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/certificados/validar", body: body, contentType: contentType})
	if err != nil {
		return false, err
	}

	var out validateResponse
	decodeErr := json.Unmarshal(resp.body, &out)
	if !resp.ok() {
		return false, failure(resp, "Erro ao validar certificado", rawText(out.Error))
	}
	if decodeErr != nil {
		return false, fmt.Errorf("certificados validar: decode response: %w", decodeErr)
	}

	if out.Valido != nil {
		return *out.Valido, nil
	}
	// Some deployments wrap the verdict in the usual envelope.
	var nested validateResponse
	if len(out.Data) > 0 && json.Unmarshal(out.Data, &nested) == nil && nested.Valido != nil {
		return *nested.Valido, nil
	}
	return false, nil
}

// Delete removes a certificate by id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, request{method: http.MethodDelete, path: "/certificados/" + strconv.FormatInt(id, 10)})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return failure(resp, "Erro ao deletar certificado")
	}

	c.log.Info("certificate deleted", "certificado_id", id)
	return nil
}

func multipartBody(file certificado.File, fields [][2]string) ([]byte, string, error) {
	name := file.Name
	if name == "" {
		name = "certificado.pfx"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("certificado", name)
	if err != nil {
		return nil, "", fmt.Errorf("create certificate part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", fmt.Errorf("write certificate part: %w", err)
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
