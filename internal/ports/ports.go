package ports

import (
	"context"
	"time"

	"InstrumentsMonitor/internal/domain"
)

// TableSource loads the instruments table for one run.
type TableSource interface {
	Load(ctx context.Context) (domain.Table, error)
}

// ResultSink persists the outputs of a run (augmented table, queues, summary).
type ResultSink interface {
	Write(ctx context.Context, result domain.Result) error
}

// SummaryStore reads and writes the machine-readable run summary.
type SummaryStore interface {
	SaveSummary(ctx context.Context, summary domain.Summary) error
	LoadSummary(ctx context.Context) (domain.Summary, error)
}

// RunRepository keeps a history of runs (e.g. Postgres).
type RunRepository interface {
	SaveRun(ctx context.Context, result domain.Result) error
}

// Notifier delivers a rendered report over one channel (email, Telegram).
type Notifier interface {
	Name() string
	Publish(ctx context.Context, msg domain.Message) error
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
