package usecase

import (
	"time"

	"InstrumentsMonitor/internal/classify"
	"InstrumentsMonitor/internal/dates"
	"InstrumentsMonitor/internal/domain"
)

// Summarize tallies a processed run. Category, completion and no-date counts cover
// surviving instruments only; archived ones contribute to Total and Archived.
func Summarize(today time.Time, scheme classify.Scheme, all, priority []domain.Instrument, queues []domain.Queue) domain.Summary {
	s := domain.Summary{
		RunDate:    today.Format(time.DateOnly),
		Scheme:     scheme.Name,
		Total:      len(all),
		Surviving:  len(priority),
		Archived:   len(all) - len(priority),
		Categories: map[string]int{},
		Alerts:     make([]domain.AlertCount, 0, len(queues)),
	}

	for _, label := range scheme.Labels() {
		if label == "" {
			continue
		}
		s.Categories[label] = 0
		s.CategoryOrder = append(s.CategoryOrder, label)
	}

	for _, inst := range priority {
		s.Categories[string(inst.Derived.Category)]++
		if inst.Derived.Completed {
			s.Completed++
		}
		if !inst.Derived.Days.Known {
			s.NoDate++
		}
	}

	for _, q := range queues {
		s.Alerts = append(s.Alerts, domain.AlertCount{Name: q.Name, Count: len(q.Instruments)})
	}

	// priority is sorted, so the first dated entry holds the smallest day count.
	if len(priority) > 0 && priority[0].Derived.Days.Known {
		days := priority[0].Derived.Days.Value
		s.NearestDays = &days
		s.NearestID = priority[0].Derived.Identification
		s.NearestDate = dates.Format(priority[0].Derived.EndDate, priority[0].Derived.HasEndDate)
	}

	return s
}
