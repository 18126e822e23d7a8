package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"InstrumentsMonitor/internal/augment"
	"InstrumentsMonitor/internal/classify"
	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

// Stage names the steps of a monitoring pass, in execution order.
type Stage string

const (
	StageLoaded     Stage = "loaded"
	StageAugmented  Stage = "augmented"
	StageFiltered   Stage = "filtered"
	StageBucketed   Stage = "bucketed"
	StageSorted     Stage = "sorted"
	StageSummarized Stage = "summarized"
)

// PipelineDeps wires the augmenter and the driven adapters into the pipeline.
type PipelineDeps struct {
	Source     ports.TableSource
	Augmenter  *augment.Augmenter
	Scheme     classify.Scheme
	Alerts     []classify.AlertRule
	Sinks      []ports.ResultSink
	Repository ports.RunRepository
	Logger     *slog.Logger
}

// Pipeline implements the validity-monitoring workflow.
type Pipeline struct {
	source     ports.TableSource
	augmenter  *augment.Augmenter
	scheme     classify.Scheme
	alerts     []classify.AlertRule
	sinks      []ports.ResultSink
	repository ports.RunRepository
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		augmenter:  deps.Augmenter,
		scheme:     deps.Scheme,
		alerts:     append([]classify.AlertRule(nil), deps.Alerts...),
		sinks:      deps.Sinks,
		repository: deps.Repository,
		logger:     deps.Logger,
	}
}

// Run loads the table, processes it against today and hands the result to every sink.
// today must be captured once by the caller; it is never re-read during the run.
func (p *Pipeline) Run(ctx context.Context, today time.Time) (domain.Result, error) {
	if p.source == nil {
		return domain.Result{}, fmt.Errorf("pipeline has no source: %w", domain.ErrSourceNotFound)
	}

	table, err := p.source.Load(ctx)
	if err != nil {
		return domain.Result{}, fmt.Errorf("load table: %w", err)
	}
	p.debug("stage", "stage", StageLoaded, "records", len(table.Records))

	result := p.Process(table, today)
	result.Summary.RunID = uuid.NewString()

	if p.repository != nil {
		if err := p.repository.SaveRun(ctx, result); err != nil {
			return result, fmt.Errorf("save run: %w", err)
		}
	}

	for _, sink := range p.sinks {
		if err := sink.Write(ctx, result); err != nil {
			return result, fmt.Errorf("write outputs: %w", err)
		}
	}

	p.info("run finished",
		"date", result.Summary.RunDate,
		"total", result.Summary.Total,
		"surviving", result.Summary.Surviving,
		"archived", result.Summary.Archived)
	return result, nil
}

// Process is the in-memory core: augment, filter archived, bucket, sort, summarize.
func (p *Pipeline) Process(table domain.Table, today time.Time) domain.Result {
	names := classify.AlertNames(p.alerts)

	instruments := make([]domain.Instrument, 0, len(table.Records))
	for _, rec := range table.Records {
		instruments = append(instruments, p.augmenter.Augment(rec, today))
	}
	p.debug("stage", "stage", StageAugmented, "records", len(instruments))

	surviving := make([]domain.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if inst.Derived.Archived {
			continue
		}
		surviving = append(surviving, inst)
	}
	p.debug("stage", "stage", StageFiltered, "surviving", len(surviving))

	priority := make([]domain.Instrument, 0, len(surviving))
	queues := make([]domain.Queue, len(p.alerts))
	for i, name := range names {
		queues[i] = domain.Queue{Name: name}
	}
	for _, inst := range surviving {
		priority = append(priority, inst)
		for i, rule := range p.alerts {
			if inst.Derived.Alert(rule.Name) {
				queues[i].Instruments = append(queues[i].Instruments, inst)
			}
		}
	}
	p.debug("stage", "stage", StageBucketed, "queues", len(queues))

	SortByUrgency(priority)
	for i := range queues {
		SortByUrgency(queues[i].Instruments)
	}
	p.debug("stage", "stage", StageSorted)

	result := domain.Result{
		Today:       today,
		Header:      domain.ExtendHeader(table.Header, domain.DerivedColumns(names)),
		Delimiter:   table.Delimiter,
		Instruments: instruments,
		Priority:    priority,
		Alerts:      queues,
	}
	result.Summary = Summarize(today, p.scheme, instruments, priority, queues)
	p.debug("stage", "stage", StageSummarized)

	return result
}

// SortByUrgency orders by days remaining (absent last), then identification.
func SortByUrgency(items []domain.Instrument) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Derived, items[j].Derived
		if ka, kb := a.Days.SortKey(), b.Days.SortKey(); ka != kb {
			return ka < kb
		}
		return a.Identification < b.Identification
	})
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
