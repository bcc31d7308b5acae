package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/planora/planora/internal/config"
	"github.com/planora/planora/internal/home"
	"github.com/planora/planora/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Planora server",
	Long: `Start the Planora HTTP server.

The server provides:
  - /health       - Basic server health check
  - /ready        - Readiness check (reports the active extraction path)
  - /api/extract  - Document upload and tour plan extraction

Configuration is reloaded when config.yaml changes; a new AI provider
takes effect on the next extraction request.

Examples:
  planora serve                    # Start on default port 8080
  planora serve --port 3000        # Start on custom port
  planora serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Home directory holds the upload archive and optionally a
		// config.yaml.
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			ArchiveDir:    h.UploadsPath(),
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
