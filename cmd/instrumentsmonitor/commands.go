package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"InstrumentsMonitor/internal/app"
	"InstrumentsMonitor/internal/config"
	"InstrumentsMonitor/internal/dates"
	"InstrumentsMonitor/internal/logging"
)

// runOptions are the flag overrides of the run command.
type runOptions struct {
	source    string
	format    string
	outDir    string
	scheme    string
	writeBack bool
	today     string
	notify    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one monitoring pass and write the queues and summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}

			var appOpts []app.Option
			if opts.today != "" {
				clock, err := fixedClock(opts.today, cfg.Scheduler.Location())
				if err != nil {
					return err
				}
				appOpts = append(appOpts, app.WithClock(clock))
			}

			ctx := cmd.Context()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			application, err := app.New(ctx, cfg, logger, appOpts...)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d instruments, %d in priority queue, %d archived\n",
				result.Summary.Total, result.Summary.Surviving, result.Summary.Archived)

			if !opts.notify {
				return nil
			}
			_, err = application.Notify(ctx)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Instruments table (csv or html export)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Source format: auto, csv, html")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVar(&opts.scheme, "scheme", "", "Urgency scheme: faixas, semaforo, etapas")
	cmd.Flags().BoolVar(&opts.writeBack, "write-back", false, "Rewrite the source table with derived columns")
	cmd.Flags().StringVar(&opts.today, "today", "", "Reference date (DD/MM/YYYY or YYYY-MM-DD) instead of the current day")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Deliver the report after the run")
	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (o runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Path = o.source
	}
	if flags.Changed("format") {
		cfg.Source.Format = o.format
	}
	if flags.Changed("out") {
		cfg.Output.Dir = o.outDir
	}
	if flags.Changed("scheme") {
		cfg.Classification.Scheme = o.scheme
		cfg.Classification.Custom = nil
	}
	if flags.Changed("write-back") {
		cfg.Output.WriteBack = o.writeBack
	}
	return cfg.Validate()
}

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Render the last run summary and deliver it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			application, err := app.New(ctx, cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}
			defer application.Close()

			msg, err := application.Notify(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Subject)
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run and notify on a schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("spec") {
				cfg.Scheduler.Spec = spec
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Schedule(ctx)
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "Schedule: @daily, @weekly, @monthly or @every <duration>")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the latest runs stored in Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			application, err := app.New(ctx, cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}
			defer application.Close()

			runs, err := application.History(ctx, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %-9s total=%d priority=%d archived=%d\n",
					r.ID, r.RunDate.Format(time.DateOnly), r.Scheme, r.Total, r.Surviving, r.Archived)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// fixedClock pins "now" to midday of the given date so the timezone never shifts the day.
func fixedClock(raw string, loc *time.Location) (func() time.Time, error) {
	d, ok := dates.Parse(raw)
	if !ok {
		return nil, fmt.Errorf("invalid --today %q", raw)
	}
	if loc == nil {
		loc = time.UTC
	}
	pinned := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
	return func() time.Time { return pinned }, nil
}
