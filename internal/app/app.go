package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"InstrumentsMonitor/internal/augment"
	"InstrumentsMonitor/internal/classify"
	"InstrumentsMonitor/internal/config"
	"InstrumentsMonitor/internal/dates"
	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/fields"
	"InstrumentsMonitor/internal/infrastructure/email"
	"InstrumentsMonitor/internal/infrastructure/filestore"
	"InstrumentsMonitor/internal/infrastructure/scheduler"
	"InstrumentsMonitor/internal/infrastructure/storage"
	"InstrumentsMonitor/internal/infrastructure/telegram"
	"InstrumentsMonitor/internal/loader"
	"InstrumentsMonitor/internal/logging"
	"InstrumentsMonitor/internal/ports"
	"InstrumentsMonitor/internal/status"
	"InstrumentsMonitor/internal/usecase"
)

// ErrNoDatabase is returned by History when no DSN is configured.
var ErrNoDatabase = errors.New("run history requires database.dsn or DATABASE_DSN")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	notify   *usecase.Notify
	store    *filestore.Store
	history  *storage.PostgresRepository
	db       *sql.DB
	now      func() time.Time
}

// Option tweaks construction (tests pin the clock).
type Option func(*Application)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Application) { a.now = now }
}

// New builds the application from configuration. The database is only opened
// when a DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	scheme, err := cfg.Classification.ResolveScheme()
	if err != nil {
		return nil, err
	}
	classifier, err := classify.NewClassifier(scheme)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	alerts := cfg.Classification.Alerts

	aliases := fields.DefaultAliases().Merge(cfg.Fields)
	matcher := status.NewMatcher(aliases, cfg.Status)
	aug := augment.New(aliases, classifier, matcher, alerts)

	format, err := loader.Default().Resolve(cfg.Source.Format, cfg.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("source format: %w", err)
	}
	source := format.Open(loader.Request{
		Path:      cfg.Source.Path,
		Delimiter: cfg.Source.DelimiterRune(),
		Selector:  cfg.Source.Selector,
		Logger:    baseLogger.With("component", "source"),
	})

	storeOpts := filestore.Options{
		Dir:          cfg.Output.Dir,
		PriorityFile: cfg.Output.PriorityFile,
		SummaryFile:  cfg.Output.SummaryFile,
		AlertNames:   classify.AlertNames(alerts),
		AlertFiles:   cfg.Output.AlertFiles,
		Labels:       cfg.Classification.Labels,
	}
	if cfg.Output.WriteBack {
		if format.Writable() {
			storeOpts.WriteBackPath = cfg.Source.Path
		} else {
			baseLogger.Warn("write-back skipped: source format is read-only", "format", format.Name())
		}
	}
	a.store = filestore.New(storeOpts, baseLogger.With("component", "filestore"))

	var repo ports.RunRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		pg, err := storage.NewPostgresRepository(db, cfg.Database.Schema)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.history = pg
		repo = pg
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Augmenter:  aug,
		Scheme:     scheme,
		Alerts:     alerts,
		Sinks:      []ports.ResultSink{a.store},
		Repository: repo,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	var attachments []string
	if cfg.Notifications.Email.Attach {
		attachments = a.store.Files()
	}
	a.notify = usecase.NewNotify(usecase.NotifyDeps{
		Summaries:   a.store,
		Notifiers:   notifiers(cfg.Notifications),
		Options:     cfg.Notifications.Report,
		Attachments: attachments,
		Logger:      baseLogger.With("component", "notify"),
	})

	return a, nil
}

func notifiers(cfg config.NotificationConfig) []ports.Notifier {
	var out []ports.Notifier
	if cfg.Email.Enabled() {
		out = append(out, email.NewNotifier(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       email.SplitRecipients(cfg.Email.To),
			Attach:   cfg.Email.Attach,
		}))
	}
	if cfg.Telegram.Enabled() {
		out = append(out, telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase, nil))
	}
	return out
}

// Today captures the run's reference date once, in the configured timezone.
func (a *Application) Today() time.Time {
	return dates.Today(a.now(), a.cfg.Scheduler.Location())
}

// Run performs a single monitoring pass.
func (a *Application) Run(ctx context.Context) (domain.Result, error) {
	return a.pipeline.Run(ctx, a.Today())
}

// Notify delivers the stored summary of the last run.
func (a *Application) Notify(ctx context.Context) (domain.Message, error) {
	return a.notify.Send(ctx)
}

// Schedule runs monitor + notify on the configured schedule until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.Spec, a.cfg.Scheduler.Location(), a.cfg.Scheduler.RunNow)
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.pipeline, a.notify, a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "spec", a.cfg.Scheduler.Spec)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// History lists the latest stored runs; it needs a configured database.
func (a *Application) History(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if a.history == nil {
		return nil, ErrNoDatabase
	}
	return a.history.LatestRuns(ctx, limit)
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
