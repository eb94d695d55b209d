package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/augusttoleao/nfse-client/internal/adapters/pfx"
	"github.com/augusttoleao/nfse-client/internal/core/certificado"
)

var certSenha string

var certificadosCmd = &cobra.Command{
	Use:   "certificados",
	Short: "Manage the digital certificates of the companies",
}

var certStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the certificate status of every active company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		statuses := client.session.CertificateStatuses(cmd.Context())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), statuses)
		}

		snap := client.session.Empresas.Snapshot()
		names := make(map[int64]string, len(snap.Empresas))
		for _, c := range snap.Empresas {
			names[c.ID] = c.DisplayName()
		}

		rows := make([][]string, 0, len(statuses))
		for _, s := range statuses {
			rows = append(rows, []string{
				strconv.FormatInt(s.EmpresaID, 10),
				names[s.EmpresaID],
				string(s.Severity),
				s.Tooltip,
			})
		}
		return table(cmd.OutOrStdout(), []string{"ID", "EMPRESA", "SITUAÇÃO", "DETALHE"}, rows)
	},
}

var certListarCmd = &cobra.Command{
	Use:   "listar",
	Short: "List the certificates of the selected company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		certs, err := client.session.Certificates(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), certs)
		}

		rows := make([][]string, 0, len(certs))
		for _, c := range certs {
			validade, inclusao := c.DataValidade, c.DataInclusao
			rows = append(rows, []string{
				strconv.FormatInt(c.ID, 10),
				orDash(c.NumeroSerie),
				formatDate(&validade),
				formatDate(&inclusao),
				orDash(c.NomeArquivo),
			})
		}
		return table(cmd.OutOrStdout(), []string{"ID", "SÉRIE", "VALIDADE", "INCLUSÃO", "ARQUIVO"}, rows)
	},
}

var certEnviarCmd = &cobra.Command{
	Use:   "enviar <arquivo.pfx>",
	Short: "Upload a certificate for the selected company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := readCertificateFile(args[0])
		if err != nil {
			return err
		}
		if err := client.session.UploadCertificate(cmd.Context(), file, certSenha); err != nil {
			if msg := client.session.Certificados.Snapshot().Error; msg != "" {
				return fmt.Errorf("%s: %w", msg, err)
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Certificado enviado com sucesso")
		return nil
	},
}

var certValidarCmd = &cobra.Command{
	Use:   "validar <arquivo.pfx>",
	Short: "Check a certificate and password with the API without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := readCertificateFile(args[0])
		if err != nil {
			return err
		}
		valid, err := client.session.Certificados.Validate(cmd.Context(), file, certSenha)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]bool{"valido": valid})
		}
		if !valid {
			return errors.New("certificado ou senha inválidos")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Certificado válido")
		return nil
	},
}

var certRemoverCmd = &cobra.Command{
	Use:   "remover <id>",
	Short: "Delete a certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid certificate id %q", args[0])
		}
		if err := client.session.DeleteCertificate(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Certificado removido")
		return nil
	},
}

var certInspecionarCmd = &cobra.Command{
	Use:         "inspecionar <arquivo.pfx>",
	Short:       "Decode a PKCS#12 file locally and show its identity and validity",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read certificate: %w", err)
		}
		info, err := pfx.Inspect(data, certSenha)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), info)
		}

		situacao := "válido"
		if info.Expired(time.Now()) {
			situacao = "vencido"
		}
		notBefore, notAfter := info.NotBefore, info.NotAfter
		return table(cmd.OutOrStdout(), []string{"CAMPO", "VALOR"}, [][]string{
			{"Titular", info.Subject},
			{"Emissor", info.Issuer},
			{"CNPJ", orDash(info.CNPJ)},
			{"Série", info.SerialNumber},
			{"Válido desde", formatDate(&notBefore)},
			{"Válido até", formatDate(&notAfter)},
			{"Situação", situacao},
			{"Cadeia", strconv.Itoa(info.ChainLength)},
		})
	},
}

func readCertificateFile(path string) (certificado.File, error) {
	if certSenha == "" {
		return certificado.File{}, errors.New("--senha is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return certificado.File{}, fmt.Errorf("read certificate: %w", err)
	}
	return certificado.File{Name: filepath.Base(path), Content: data}, nil
}

func init() {
	for _, c := range []*cobra.Command{certEnviarCmd, certValidarCmd, certInspecionarCmd} {
		c.Flags().StringVar(&certSenha, "senha", "", "certificate password")
		_ = c.MarkFlagRequired("senha")
	}

	certificadosCmd.AddCommand(certStatusCmd, certListarCmd, certEnviarCmd, certValidarCmd, certRemoverCmd, certInspecionarCmd)
	rootCmd.AddCommand(certificadosCmd)
}
