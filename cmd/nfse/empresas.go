package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var empresasCmd = &cobra.Command{
	Use:   "empresas",
	Short: "List the active companies and show the selected one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snap := client.session.Empresas.Snapshot()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}
		if snap.Error != "" {
			return errors.New(snap.Error)
		}

		rows := make([][]string, 0, len(snap.Empresas))
		for _, c := range snap.Empresas {
			mark := ""
			if snap.Selecionada != nil && snap.Selecionada.ID == c.ID {
				mark = "*"
			}
			rows = append(rows, []string{mark, strconv.FormatInt(c.ID, 10), c.CNPJ, c.DisplayName()})
		}
		return table(cmd.OutOrStdout(), []string{"", "ID", "CNPJ", "EMPRESA"}, rows)
	},
}

var selecionarCmd = &cobra.Command{
	Use:   "selecionar <id>",
	Short: "Select the active company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid company id %q", args[0])
		}

		c, err := client.session.Select(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Empresa selecionada: %s (%s)\n", c.DisplayName(), c.CNPJ)
		return nil
	},
}

func init() {
	empresasCmd.AddCommand(selecionarCmd)
	rootCmd.AddCommand(empresasCmd)
}
