package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joelmbaka/introspect/internal/adapters/driving/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP report server",
	Long: `Start the HTTP server exposing the report pipeline.

Endpoints:
  GET  /                 health probe
  POST /generate-report  run the report pipeline

The server shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	if addr == "" {
		addr = app.cfg.Addr()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(addr, app.pipeline)
	cmd.Printf("introspect listening on %s\n", addr)
	return server.Run(ctx)
}
