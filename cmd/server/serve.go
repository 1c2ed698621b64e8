package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpserver "lecturepdf/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := httpserver.NewServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
