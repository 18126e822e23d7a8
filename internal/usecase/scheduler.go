package usecase

import (
	"context"
	"log/slog"
	"time"

	"InstrumentsMonitor/internal/dates"
	"InstrumentsMonitor/internal/ports"
)

// Scheduler wires the ticker driver with the monitoring pass and its notification.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	notify   *Notify
	location *time.Location
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. notify may be nil.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, notify *Notify, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, notify: notify, location: loc, logger: logger}
}

// Start registers the job with the driver. Each tick captures its own "today".
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce executes a single monitoring pass followed by its notification.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	today := dates.Today(trigger, s.location)
	result, err := s.pipeline.Run(ctx, today)
	if err != nil {
		s.error("scheduled run failed", "error", err)
		return
	}
	if s.notify == nil {
		return
	}
	if _, err := s.notify.Deliver(ctx, result.Summary); err != nil {
		s.error("scheduled notification failed", "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) error(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
