package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/augusttoleao/nfse-client/internal/adapters/report"
	appnota "github.com/augusttoleao/nfse-client/internal/application/nota"
	"github.com/augusttoleao/nfse-client/internal/application/session"
	"github.com/augusttoleao/nfse-client/internal/core/nota"
)

type listingFlags struct {
	inicio string
	fim    string
	pagina int
	itens  int
	busca  string
	pdf    string
}

var notasCmd = &cobra.Command{
	Use:   "notas",
	Short: "Browse issued and received service invoices",
}

var notasResumoCmd = &cobra.Command{
	Use:   "resumo",
	Short: "Show the totals of issued and received invoices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s := client.session.Summary(cmd.Context())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), s)
		}
		return table(cmd.OutOrStdout(), []string{"", "NOTAS", "VALOR"}, [][]string{
			{"Emitidas", fmt.Sprint(s.TotalEmitidas), report.FormatBRL(s.ValorTotalEmitidas)},
			{"Recebidas", fmt.Sprint(s.TotalRecebidas), report.FormatBRL(s.ValorTotalRecebidas)},
		})
	},
}

func listingCmd(tipo nota.Tipo, short string) *cobra.Command {
	var f listingFlags
	cmd := &cobra.Command{
		Use:   string(tipo),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListing(cmd, tipo, f)
		},
	}
	cmd.Flags().StringVar(&f.inicio, "inicio", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.fim, "fim", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.pagina, "pagina", 1, "page number")
	cmd.Flags().IntVar(&f.itens, "itens", 0, "page size (defaults to NOTAS_PAGE_SIZE or NOTAS_RECEBIDAS_PAGE_SIZE)")
	cmd.Flags().StringVar(&f.busca, "busca", "", "narrow the page by number, access key, description or CNPJ")
	cmd.Flags().StringVar(&f.pdf, "pdf", "", "also write the displayed page to this PDF file")
	return cmd
}

func runListing(cmd *cobra.Command, tipo nota.Tipo, f listingFlags) error {
	snap := client.session.Listing(cmd.Context(), session.ListingRequest{
		Tipo:           tipo,
		DataInicio:     f.inicio,
		DataFim:        f.fim,
		Pagina:         f.pagina,
		ItensPorPagina: f.itens,
	})

	switch snap.Phase {
	case appnota.PhaseWaiting:
		if tipo == nota.Recebidas && f.inicio != "" && f.fim != "" {
			return errors.New("selecione uma empresa para listar notas recebidas")
		}
		return errors.New("informe --inicio e --fim")
	case appnota.PhaseError:
		return errors.New(snap.Error)
	}

	view := snap.Filter(f.busca)

	if f.pdf != "" {
		company := ""
		if c, err := client.session.Selected(); err == nil {
			company = c.DisplayName() + " (" + c.CNPJ + ")"
		}
		err := report.SaveListing(report.ListingReport{
			Title:       "Notas " + string(tipo),
			Company:     company,
			Period:      f.inicio + " a " + f.fim,
			Notas:       view.Notas,
			Shown:       view.Shown,
			Total:       view.Total,
			GeneratedAt: time.Now(),
		}, f.pdf)
		if err != nil {
			return err
		}
		log.Info("listing exported", "path", f.pdf, "notas", view.Shown)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), view)
	}

	rows := make([][]string, 0, len(view.Notas))
	for _, n := range view.Notas {
		rows = append(rows, []string{
			n.Numero,
			orDash(n.DataEmissao),
			orDash(n.RazaoSocial),
			n.Status,
			report.FormatBRL(n.Valor),
		})
	}
	if err := table(cmd.OutOrStdout(), []string{"NÚMERO", "EMISSÃO", "CONTRAPARTE", "STATUS", "VALOR"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nExibindo %d de %d notas, página %d de %d\n", view.Shown, view.Total, snap.Pagina, snap.TotalPaginas)
	return nil
}

func init() {
	notasCmd.AddCommand(
		listingCmd(nota.Emitidas, "List issued invoices"),
		listingCmd(nota.Recebidas, "List invoices received by the selected company"),
		notasResumoCmd,
	)
	rootCmd.AddCommand(notasCmd)
}
