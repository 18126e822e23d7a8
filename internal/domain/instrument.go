package domain

import (
	"strconv"
	"time"
)

// Derived column names appended to the source table.
const (
	ColumnDays        = "dias_para_vencer"
	ColumnCategory    = "categoria_risco"
	ColumnStatus      = "status_execucao_padrao"
	ColumnPublication = "publicacao_doe"
)

// NoDateSortKey places instruments without a resolvable end date after every dated one.
const NoDateSortKey = 1_000_000_000

// Record is one instrument row keyed by its (revision-dependent) column names.
type Record map[string]string

// Clone returns a shallow copy so callers can derive fields without touching the source.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of records sharing a header.
type Table struct {
	Header    []string
	Records   []Record
	Delimiter rune
}

// Days is a signed day count that may be absent when no end date could be parsed.
type Days struct {
	Value int
	Known bool
}

// DaysOf wraps a known day count.
func DaysOf(n int) Days {
	return Days{Value: n, Known: true}
}

// SortKey maps absent counts to NoDateSortKey.
func (d Days) SortKey() int {
	if !d.Known {
		return NoDateSortKey
	}
	return d.Value
}

func (d Days) String() string {
	if !d.Known {
		return ""
	}
	return strconv.Itoa(d.Value)
}

// Category is an urgency band label.
type Category string

// AlertFlag records whether an instrument falls inside one alert rule.
type AlertFlag struct {
	Name   string
	Raised bool
}

// Derived holds everything computed for an instrument during augmentation.
type Derived struct {
	Identification string
	StartDate      time.Time
	HasStartDate   bool
	EndDate        time.Time
	HasEndDate     bool
	Days           Days
	Category       Category
	Alerts         []AlertFlag
	Completed      bool
	Archived       bool
}

// Alert reports the flag for the named rule; unknown rules are false.
func (d Derived) Alert(name string) bool {
	for _, a := range d.Alerts {
		if a.Name == name {
			return a.Raised
		}
	}
	return false
}

// Instrument pairs the (back-filled) source record with its derived fields.
type Instrument struct {
	Record  Record
	Derived Derived
}

// Labels are the localized tokens used when derived values are serialized.
type Labels struct {
	Yes        string `yaml:"yes"`
	No         string `yaml:"no"`
	Completed  string `yaml:"completed"`
	InProgress string `yaml:"inProgress"`
}

// DefaultLabels returns the Portuguese tokens used by the spreadsheets.
func DefaultLabels() Labels {
	return Labels{
		Yes:        "SIM",
		No:         "NÃO",
		Completed:  "CONCLUÍDO",
		InProgress: "EM ANDAMENTO",
	}
}

func (l Labels) yesNo(v bool) string {
	if v {
		return l.Yes
	}
	return l.No
}

// Row serializes the instrument back into a flat record with derived columns set.
func (i Instrument) Row(labels Labels) Record {
	row := i.Record.Clone()
	row[ColumnDays] = i.Derived.Days.String()
	row[ColumnCategory] = string(i.Derived.Category)
	for _, a := range i.Derived.Alerts {
		row[a.Name] = labels.yesNo(a.Raised)
	}
	if i.Derived.Completed {
		row[ColumnStatus] = labels.Completed
	} else {
		row[ColumnStatus] = labels.InProgress
	}
	if _, ok := row[ColumnPublication]; !ok {
		row[ColumnPublication] = ""
	}
	return row
}

// DerivedColumns lists the derived columns in output order for the given alert rules.
func DerivedColumns(alertNames []string) []string {
	cols := []string{ColumnDays, ColumnCategory}
	cols = append(cols, alertNames...)
	return append(cols, ColumnStatus, ColumnPublication)
}

// ExtendHeader appends every column in extra that is not already present.
func ExtendHeader(header, extra []string) []string {
	out := make([]string, len(header), len(header)+len(extra))
	copy(out, header)
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		seen[h] = struct{}{}
	}
	for _, c := range extra {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
