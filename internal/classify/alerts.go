package classify

import (
	"fmt"
	"strings"

	"InstrumentsMonitor/internal/domain"
)

// AlertRule selects instruments whose day count lies in [Min, Max].
type AlertRule struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

// DefaultAlerts are the two inclusive queues the monthly report always carried.
func DefaultAlerts() []AlertRule {
	return []AlertRule{
		{Name: "alerta_30", Min: 0, Max: 30},
		{Name: "alerta_180", Min: 0, Max: 180},
	}
}

// Matches reports whether d falls in the rule; absent counts never match.
func (r AlertRule) Matches(d domain.Days) bool {
	return d.Known && d.Value >= r.Min && d.Value <= r.Max
}

// ValidateAlerts checks names are unique and ranges well formed.
func ValidateAlerts(rules []AlertRule) error {
	seen := map[string]struct{}{}
	for _, r := range rules {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("alert rule with empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("alert rule %q declared twice", name)
		}
		seen[name] = struct{}{}
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("alert rule %q: invalid range [%d, %d]", name, r.Min, r.Max)
		}
	}
	return nil
}

// AlertNames returns rule names in declaration order.
func AlertNames(rules []AlertRule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}
