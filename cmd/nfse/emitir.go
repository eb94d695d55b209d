package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appemissao "github.com/augusttoleao/nfse-client/internal/application/emissao"
)

var (
	emitirArquivo string
	emitirCEP     bool
)

var emitirCmd = &cobra.Command{
	Use:   "emitir",
	Short: "Submit a DPS for the selected company",
	Long: `emitir reads the DPS form from a JSON file, using the same field names as
the console API (tomadorCpfCnpj, codigoServico, valorServico, ...). Fields
left out keep their initial values.`,
	Example: `  nfse emitir --arquivo dps.json --cep`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		emission := client.session.Emissao

		form := emission.Snapshot().Form
		raw, err := os.ReadFile(emitirArquivo)
		if err != nil {
			return fmt.Errorf("read form: %w", err)
		}
		if err := json.Unmarshal(raw, &form); err != nil {
			return fmt.Errorf("decode form: %w", err)
		}
		if err := emission.UpdateForm(form); err != nil {
			return err
		}

		if emitirCEP {
			note := emission.LookupPostalCode(cmd.Context(), "")
			log.Info("postal code lookup", "success", note.Success, "message", note.Message)
		}

		outcome, err := emission.Submit(cmd.Context())
		var verr *appemissao.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %v", err, verr.Missing)
		}
		if jsonOutput && outcome.Message != "" {
			if perr := printJSON(cmd.OutOrStdout(), outcome); perr != nil {
				return perr
			}
		}
		if err != nil {
			if outcome.Details != "" {
				return fmt.Errorf("%s (%s): %w", outcome.Message, outcome.Details, err)
			}
			return err
		}
		if !jsonOutput {
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			if outcome.Details != "" {
				fmt.Fprintln(cmd.OutOrStdout(), outcome.Details)
			}
		}
		return nil
	},
}

func init() {
	emitirCmd.Flags().StringVar(&emitirArquivo, "arquivo", "", "JSON file with the DPS form")
	emitirCmd.Flags().BoolVar(&emitirCEP, "cep", false, "fill the taker address from the postal code before submitting")
	_ = emitirCmd.MarkFlagRequired("arquivo")
	rootCmd.AddCommand(emitirCmd)
}
