package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/veracity/internal/report"
)

var (
	reportProvider string
	reportHours    int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize stored verdicts for a provider and time range",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		to := time.Now().UTC()
		from := to.Add(-time.Duration(reportHours) * time.Hour)

		summary, err := report.NewReporter(e.Store).Summarize(ctx, reportProvider, from, to)
		if err != nil {
			return err
		}

		return printJSON(summary)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportProvider, "provider", "", "provider to summarize (empty = all)")
	reportCmd.Flags().IntVar(&reportHours, "hours", 24, "lookback window in hours")
	rootCmd.AddCommand(reportCmd)
}
