package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"InstrumentsMonitor/internal/ports"
)

// CronScheduler fires a job on a descriptor schedule: "@daily", "@weekly",
// "@monthly" (first day of the month) or "@every <duration>".
type CronScheduler struct {
	next     func(time.Time) time.Time
	location *time.Location
	runNow   bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec; runNow fires the job once at start.
func NewCronScheduler(spec string, loc *time.Location, runNow bool) (*CronScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	next, err := Parse(spec, loc)
	if err != nil {
		return nil, err
	}
	return &CronScheduler{next: next, location: loc, runNow: runNow}, nil
}

// Parse turns a descriptor into a function computing the next fire time after t.
func Parse(spec string, loc *time.Location) (func(time.Time) time.Time, error) {
	spec = strings.TrimSpace(spec)
	midnight := func(t time.Time) time.Time {
		t = t.In(loc)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}

	switch {
	case spec == "@daily" || spec == "@midnight":
		return func(t time.Time) time.Time { return midnight(t).AddDate(0, 0, 1) }, nil
	case spec == "@weekly":
		return func(t time.Time) time.Time {
			d := midnight(t)
			return d.AddDate(0, 0, 7-int(d.Weekday()))
		}, nil
	case spec == "@monthly":
		return func(t time.Time) time.Time {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
		}, nil
	case strings.HasPrefix(spec, "@every "):
		d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(spec, "@every ")))
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", spec, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("schedule %q: interval must be positive", spec)
		}
		return func(t time.Time) time.Time { return t.Add(d) }, nil
	default:
		return nil, fmt.Errorf("unsupported schedule %q", spec)
	}
}

// Start runs job in a goroutine until ctx is done or Stop is called.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done

	go func() {
		defer close(done)
		if c.runNow {
			job(time.Now().In(c.location))
		}
		for {
			wait := time.Until(c.next(time.Now()))
			timer := time.NewTimer(wait)
			select {
			case t := <-timer.C:
				job(t.In(c.location))
			case <-ctx.Done():
				timer.Stop()
				return
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the loop and waits for a running job to return.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the current loop exits; nil when not started.
func (c *CronScheduler) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
