package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/augusttoleao/nfse-client/internal/infrastructure/config"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/logger"
)

// offline marks commands that run without the invoicing API.
const offline = "offline"

var (
	jsonOutput bool
	logLevel   string

	cfg    config.AppConfig
	log    *slog.Logger
	client *app
)

var rootCmd = &cobra.Command{
	Use:   "nfse",
	Short: "Operator client for the NFS-e invoicing API",
	Long: `nfse selects the active company, checks its digital certificates,
browses issued and received service invoices and submits DPS declarations
through the NFS-e invoicing API.

Configuration is read from the environment and from a .env file in the
working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		log = logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

		if cmd.Annotations[offline] == "true" {
			return nil
		}

		client, err = newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if client != nil {
			client.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}
