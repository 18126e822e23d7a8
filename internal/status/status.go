package status

import (
	"strings"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/fields"
)

// Keywords configures the completed/archived predicates.
type Keywords struct {
	Completed      []string `yaml:"completed"`
	ArchivedValues []string `yaml:"archivedValues"`
	Archived       []string `yaml:"archived"`
}

// DefaultKeywords returns the Portuguese keyword sets used by the sheets.
func DefaultKeywords() Keywords {
	return Keywords{
		Completed:      []string{"CONCL", "FINALIZ"},
		ArchivedValues: []string{"SIM", "S", "1", "TRUE", "YES", "Y"},
		Archived:       []string{"ARQUIV"},
	}
}

// Matcher evaluates the state predicates over aliased status columns.
type Matcher struct {
	aliases        fields.Aliases
	completed      []string
	archivedValues map[string]struct{}
	archived       []string
}

// NewMatcher uppercases the keyword sets once.
func NewMatcher(aliases fields.Aliases, kw Keywords) *Matcher {
	m := &Matcher{
		aliases:        aliases,
		completed:      upperAll(kw.Completed),
		archivedValues: map[string]struct{}{},
		archived:       upperAll(kw.Archived),
	}
	for _, v := range upperAll(kw.ArchivedValues) {
		m.archivedValues[v] = struct{}{}
	}
	return m
}

// IsCompleted is true when the execution status mentions a completion keyword.
func (m *Matcher) IsCompleted(rec domain.Record) bool {
	v := normalize(m.aliases.Get(rec, fields.ExecutionStatus))
	return v != "" && containsAny(v, m.completed)
}

// IsArchived is true for an affirmative archive flag or an "archived" keyword.
func (m *Matcher) IsArchived(rec domain.Record) bool {
	v := normalize(m.aliases.Get(rec, fields.ArchiveStatus))
	if v == "" {
		return false
	}
	if _, ok := m.archivedValues[v]; ok {
		return true
	}
	return containsAny(v, m.archived)
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func containsAny(v string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(v, k) {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = normalize(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
