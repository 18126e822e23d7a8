// Package classify maps days-until-expiration to urgency bands and alert queues.
package classify

import (
	"fmt"
	"sort"
	"strings"

	"InstrumentsMonitor/internal/domain"
)

const (
	LabelNoData  = "SEM DATA"
	LabelExpired = "VENCIDO"
)

// Band is an inclusive upper bound and the label assigned up to it.
type Band struct {
	Max   int    `yaml:"max"`
	Label string `yaml:"label"`
}

// Scheme is an ordered threshold table evaluated first-match.
type Scheme struct {
	Name    string `yaml:"name"`
	NoData  string `yaml:"noData"`
	Expired string `yaml:"expired"`
	Bands   []Band `yaml:"bands"`
	Beyond  string `yaml:"beyond"`
}

// Labels lists every category of the scheme from most to least urgent, no-data last.
func (s Scheme) Labels() []string {
	out := make([]string, 0, len(s.Bands)+3)
	out = append(out, s.Expired)
	for _, b := range s.Bands {
		out = append(out, b.Label)
	}
	return append(out, s.Beyond, s.NoData)
}

var presets = map[string]Scheme{
	"faixas": {
		Name:    "faixas",
		NoData:  LabelNoData,
		Expired: LabelExpired,
		Bands: []Band{
			{Max: 30, Label: "CRÍTICO (≤30d)"},
			{Max: 90, Label: "ALTO (31–90d)"},
			{Max: 180, Label: "MÉDIO (91–180d)"},
			{Max: 365, Label: "BAIXO (181–365d)"},
		},
		Beyond: "OK (>365d)",
	},
	"semaforo": {
		Name:    "semaforo",
		NoData:  LabelNoData,
		Expired: LabelExpired,
		Bands: []Band{
			{Max: 60, Label: "CRITICO_60"},
			{Max: 180, Label: "ALERTA_180"},
		},
		Beyond: "CONFORTAVEL",
	},
	"etapas": {
		Name:    "etapas",
		NoData:  LabelNoData,
		Expired: LabelExpired,
		Bands: []Band{
			{Max: 30, Label: "CRÍTICO"},
			{Max: 60, Label: "EXECUÇÃO"},
			{Max: 180, Label: "PREPARAÇÃO"},
		},
		Beyond: "CONFORTÁVEL",
	},
}

// DefaultScheme is used when configuration names none.
const DefaultScheme = "faixas"

// Preset returns a copy of a built-in scheme.
func Preset(name string) (Scheme, bool) {
	s, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scheme{}, false
	}
	s.Bands = append([]Band(nil), s.Bands...)
	return s, true
}

// PresetNames lists built-in schemes in a stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Classifier assigns categories under one validated scheme.
type Classifier struct {
	scheme Scheme
	rank   map[domain.Category]int
}

// NewClassifier validates s: bands strictly ascending, non-negative and labelled.
func NewClassifier(s Scheme) (*Classifier, error) {
	if len(s.Bands) == 0 {
		return nil, fmt.Errorf("scheme %q has no bands", s.Name)
	}
	if s.NoData == "" {
		s.NoData = LabelNoData
	}
	if s.Expired == "" {
		s.Expired = LabelExpired
	}
	if strings.TrimSpace(s.Beyond) == "" {
		return nil, fmt.Errorf("scheme %q has no label beyond the last band", s.Name)
	}

	prev := -1
	for i, b := range s.Bands {
		if b.Max <= prev {
			return nil, fmt.Errorf("scheme %q band %d: bound %d not above %d", s.Name, i, b.Max, prev)
		}
		if strings.TrimSpace(b.Label) == "" {
			return nil, fmt.Errorf("scheme %q band %d: empty label", s.Name, i)
		}
		prev = b.Max
	}

	rank := make(map[domain.Category]int)
	for i, l := range s.Labels() {
		if _, dup := rank[domain.Category(l)]; dup {
			return nil, fmt.Errorf("scheme %q: duplicate label %q", s.Name, l)
		}
		rank[domain.Category(l)] = i
	}

	return &Classifier{scheme: s, rank: rank}, nil
}

// Scheme returns the validated scheme.
func (c *Classifier) Scheme() Scheme {
	return c.scheme
}

// Classify returns the first band whose bound is at or above d.
func (c *Classifier) Classify(d domain.Days) domain.Category {
	if !d.Known {
		return domain.Category(c.scheme.NoData)
	}
	if d.Value < 0 {
		return domain.Category(c.scheme.Expired)
	}
	for _, b := range c.scheme.Bands {
		if d.Value <= b.Max {
			return domain.Category(b.Label)
		}
	}
	return domain.Category(c.scheme.Beyond)
}

// Rank orders categories by urgency (0 = expired); unknown labels rank last.
func (c *Classifier) Rank(cat domain.Category) int {
	if r, ok := c.rank[cat]; ok {
		return r
	}
	return len(c.rank)
}
