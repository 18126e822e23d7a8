// Package main provides the CLI entry point for the instruments validity monitor.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"InstrumentsMonitor/internal/domain"
)

// Flags shared by every subcommand.
var (
	configPath string
	logLevel   string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		code := domain.ExitCodeFor(err)
		switch {
		case errors.Is(err, domain.ErrSourceNotFound):
			fmt.Fprintf(os.Stderr, "Error: instruments table not found: %v\n", err)
		case errors.Is(err, domain.ErrSummaryNotFound), errors.Is(err, domain.ErrSummaryMalformed):
			fmt.Fprintf(os.Stderr, "Error: run summary unavailable, run the monitor first: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return code.Int()
	}
	return domain.ExitOK.Int()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "instrumentsmonitor",
		Short: "Monitor the end of validity of agreements and cooperation instruments",
		Long: `Classify instruments by days until the end of validity, write the priority
and alert queues plus a run summary, and notify by email or Telegram.

Exit codes:
  0 - Success
  1 - Error
  2 - Instruments table not found
  3 - Run summary missing or malformed`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML config (env: INSTRUMENTS_MONITOR_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (env: LOG_LEVEL)")

	rootCmd.AddCommand(newRunCmd(), newNotifyCmd(), newScheduleCmd(), newHistoryCmd())
	return rootCmd
}
