package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
	"InstrumentsMonitor/internal/report"
)

// NotifyDeps wires the summary store, renderer options and delivery channels.
type NotifyDeps struct {
	Summaries   ports.SummaryStore
	Notifiers   []ports.Notifier
	Options     report.Options
	Attachments []string
	Logger      *slog.Logger
}

// Notify renders the latest run summary and delivers it.
type Notify struct {
	summaries   ports.SummaryStore
	notifiers   []ports.Notifier
	options     report.Options
	attachments []string
	logger      *slog.Logger
}

// NewNotify constructs the notification step.
func NewNotify(deps NotifyDeps) *Notify {
	return &Notify{
		summaries:   deps.Summaries,
		notifiers:   deps.Notifiers,
		options:     deps.Options,
		attachments: deps.Attachments,
		logger:      deps.Logger,
	}
}

// Send loads the stored summary and publishes it on every channel.
// A missing or malformed summary fails this step only.
func (n *Notify) Send(ctx context.Context) (domain.Message, error) {
	if n.summaries == nil {
		return domain.Message{}, fmt.Errorf("notify: %w", domain.ErrSummaryNotFound)
	}

	summary, err := n.summaries.LoadSummary(ctx)
	if err != nil {
		return domain.Message{}, fmt.Errorf("load summary: %w", err)
	}

	return n.Deliver(ctx, summary)
}

// Deliver renders summary and publishes it; every channel is attempted.
func (n *Notify) Deliver(ctx context.Context, summary domain.Summary) (domain.Message, error) {
	msg, err := report.Render(summary, n.options)
	if err != nil {
		return domain.Message{}, fmt.Errorf("render report: %w", err)
	}
	msg.Attachments = append(msg.Attachments, n.attachments...)

	if len(n.notifiers) == 0 {
		n.warn("no notifier configured; report rendered only", "subject", msg.Subject)
		return msg, nil
	}

	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.Publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		n.info("report delivered", "channel", notifier.Name(), "subject", msg.Subject)
	}

	return msg, errors.Join(errs...)
}

func (n *Notify) info(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Info(msg, args...)
	}
}

func (n *Notify) warn(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
