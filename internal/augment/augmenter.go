package augment

import (
	"strings"
	"time"

	"InstrumentsMonitor/internal/classify"
	"InstrumentsMonitor/internal/dates"
	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/fields"
	"InstrumentsMonitor/internal/status"
)

// Augmenter computes the derived fields of one instrument.
type Augmenter struct {
	aliases    fields.Aliases
	classifier *classify.Classifier
	matcher    *status.Matcher
	alerts     []classify.AlertRule
}

// New wires the field table, classifier, state predicates and alert rules.
func New(aliases fields.Aliases, classifier *classify.Classifier, matcher *status.Matcher, alerts []classify.AlertRule) *Augmenter {
	return &Augmenter{
		aliases:    aliases,
		classifier: classifier,
		matcher:    matcher,
		alerts:     append([]classify.AlertRule(nil), alerts...),
	}
}

// Augment derives fields for rec against today. rec itself is left untouched.
func (a *Augmenter) Augment(rec domain.Record, today time.Time) domain.Instrument {
	row := rec.Clone()
	a.backfillPublication(row)

	start, hasStart := dates.Parse(a.aliases.Get(row, fields.StartDate))
	end, ok := dates.Parse(a.aliases.Get(row, fields.EndDate))
	days := dates.DaysRemaining(end, ok, today)

	flags := make([]domain.AlertFlag, len(a.alerts))
	for i, r := range a.alerts {
		flags[i] = domain.AlertFlag{Name: r.Name, Raised: r.Matches(days)}
	}

	return domain.Instrument{
		Record: row,
		Derived: domain.Derived{
			Identification: strings.TrimSpace(a.aliases.Get(row, fields.Identification)),
			StartDate:      start,
			HasStartDate:   hasStart,
			EndDate:        end,
			HasEndDate:     ok,
			Days:           days,
			Category:       a.classifier.Classify(days),
			Alerts:         flags,
			Completed:      a.matcher.IsCompleted(row),
			Archived:       a.matcher.IsArchived(row),
		},
	}
}

// backfillPublication copies the legacy extract number into a blank publication column.
func (a *Augmenter) backfillPublication(row domain.Record) {
	target := domain.ColumnPublication
	if names := a.aliases[fields.Publication]; len(names) > 0 {
		target = names[0]
	}
	if strings.TrimSpace(row[target]) != "" {
		return
	}
	if extract := strings.TrimSpace(a.aliases.Get(row, fields.PublishedExtract)); extract != "" {
		row[target] = extract
	}
}
