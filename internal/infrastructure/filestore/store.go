// Package filestore writes the outputs of a run to a directory and reads the summary back.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/infrastructure/csvtable"
	"InstrumentsMonitor/internal/ports"
)

// Options locates output files.
type Options struct {
	Dir          string
	PriorityFile string
	SummaryFile  string
	AlertNames   []string
	// AlertFiles maps an alert rule to its file name; unmapped rules use <name>.csv.
	AlertFiles map[string]string
	Labels       domain.Labels
	// WriteBackPath, when set, is rewritten with the augmented table.
	WriteBackPath string
}

// Store implements ResultSink and SummaryStore over the local filesystem.
type Store struct {
	opts   Options
	logger *slog.Logger
}

var (
	_ ports.ResultSink   = (*Store)(nil)
	_ ports.SummaryStore = (*Store)(nil)
)

// New applies default file names.
func New(opts Options, logger *slog.Logger) *Store {
	if opts.Dir == "" {
		opts.Dir = "data"
	}
	if opts.PriorityFile == "" {
		opts.PriorityFile = "prioridades.csv"
	}
	if opts.SummaryFile == "" {
		opts.SummaryFile = "resumo_execucao.json"
	}
	if opts.Labels == (domain.Labels{}) {
		opts.Labels = domain.DefaultLabels()
	}
	return &Store{opts: opts, logger: logger}
}

// PriorityPath is where the priority queue is written.
func (s *Store) PriorityPath() string {
	return filepath.Join(s.opts.Dir, s.opts.PriorityFile)
}

// SummaryPath is where the run summary is written.
func (s *Store) SummaryPath() string {
	return filepath.Join(s.opts.Dir, s.opts.SummaryFile)
}

// AlertPath is where the named alert queue is written.
func (s *Store) AlertPath(name string) string {
	if file := s.opts.AlertFiles[name]; file != "" {
		return filepath.Join(s.opts.Dir, file)
	}
	return filepath.Join(s.opts.Dir, name+".csv")
}

// Files lists every output suitable as a notification attachment.
func (s *Store) Files() []string {
	files := []string{s.SummaryPath(), s.PriorityPath()}
	for _, n := range s.opts.AlertNames {
		files = append(files, s.AlertPath(n))
	}
	return files
}

// Write persists the queues, the summary and, when configured, the augmented table.
func (s *Store) Write(ctx context.Context, result domain.Result) error {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := csvtable.WriteFile(s.PriorityPath(), result.QueueTable(result.Priority, s.opts.Labels)); err != nil {
		return fmt.Errorf("write priority queue: %w", err)
	}
	for _, q := range result.Alerts {
		if err := csvtable.WriteFile(s.AlertPath(q.Name), result.QueueTable(q.Instruments, s.opts.Labels)); err != nil {
			return fmt.Errorf("write alert queue %s: %w", q.Name, err)
		}
	}

	if err := s.SaveSummary(ctx, result.Summary); err != nil {
		return err
	}

	if s.opts.WriteBackPath != "" {
		if err := csvtable.WriteFile(s.opts.WriteBackPath, result.AugmentedTable(s.opts.Labels)); err != nil {
			return fmt.Errorf("write back source table: %w", err)
		}
		s.debug("source table updated", "path", s.opts.WriteBackPath)
	}

	s.debug("outputs written", "dir", s.opts.Dir, "queues", len(result.Alerts)+1)
	return nil
}

// SaveSummary writes the summary as indented JSON.
func (s *Store) SaveSummary(_ context.Context, summary domain.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.SummaryPath()), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	if err := os.WriteFile(s.SummaryPath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// LoadSummary reads the summary back; absence and malformed content are distinct errors.
func (s *Store) LoadSummary(_ context.Context) (domain.Summary, error) {
	raw, err := os.ReadFile(s.SummaryPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Summary{}, fmt.Errorf("%s: %w", s.SummaryPath(), domain.ErrSummaryNotFound)
		}
		return domain.Summary{}, fmt.Errorf("read summary: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("%s: %w: %v", s.SummaryPath(), domain.ErrSummaryMalformed, err)
	}
	if strings.TrimSpace(summary.RunDate) == "" {
		return domain.Summary{}, fmt.Errorf("%s: %w: missing data_execucao", s.SummaryPath(), domain.ErrSummaryMalformed)
	}
	if summary.Categories == nil {
		summary.Categories = map[string]int{}
	}
	return summary, nil
}

func (s *Store) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
