package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/augusttoleao/nfse-client/internal/adapters/http/console"
	"github.com/augusttoleao/nfse-client/internal/adapters/http/health"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/http/middleware"
	"github.com/augusttoleao/nfse-client/internal/infrastructure/http/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local console API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
		if err != nil {
			return fmt.Errorf("configure auth: %w", err)
		}

		srv, err := server.New(server.Options{
			Config:        cfg,
			Logger:        log,
			HealthHandler: http.HandlerFunc(health.NewHandler(client.health, log).Status),
			Auth:          auth,
			Console:       console.NewHandler(client.session, log).Routes(),
		})
		if err != nil {
			auth.Close()
			return fmt.Errorf("build server: %w", err)
		}
		defer srv.Close()

		log.Info("console API configured",
			"addr", cfg.HTTP.Address(),
			"auth_enabled", cfg.Auth.Enabled,
			"nfse_api", cfg.NFSeAPI.BaseURL,
			"state_driver", cfg.State.Driver,
		)
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
