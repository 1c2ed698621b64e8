package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lecturepdf/internal/app"
	"lecturepdf/internal/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one conversion pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Syncer.SyncAll(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "run %s: %d transcripts\n", report.RunID, len(report.Outcomes))
		for _, status := range []domain.OutcomeStatus{
			domain.OutcomeCreated,
			domain.OutcomeSkippedExists,
			domain.OutcomeSkippedNoTranscript,
			domain.OutcomeSkippedLeased,
			domain.OutcomeFailed,
		} {
			fmt.Fprintf(out, "  %-22s %d\n", status, report.Count(status))
		}
		for _, o := range report.Outcomes {
			if o.Status == domain.OutcomeFailed {
				fmt.Fprintf(out, "  failed %s: %s\n", o.SourceKey, o.Reason)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
