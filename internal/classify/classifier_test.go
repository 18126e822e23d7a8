package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InstrumentsMonitor/internal/domain"
)

func mustPreset(t *testing.T, name string) *Classifier {
	t.Helper()
	s, ok := Preset(name)
	require.True(t, ok, "preset %s", name)
	c, err := NewClassifier(s)
	require.NoError(t, err)
	return c
}

func TestClassifyFaixas(t *testing.T) {
	t.Parallel()

	c := mustPreset(t, "faixas")
	cases := []struct {
		days domain.Days
		want string
	}{
		{domain.Days{}, "SEM DATA"},
		{domain.DaysOf(-1), "VENCIDO"},
		{domain.DaysOf(0), "CRÍTICO (≤30d)"},
		{domain.DaysOf(30), "CRÍTICO (≤30d)"},
		{domain.DaysOf(31), "ALTO (31–90d)"},
		{domain.DaysOf(90), "ALTO (31–90d)"},
		{domain.DaysOf(180), "MÉDIO (91–180d)"},
		{domain.DaysOf(365), "BAIXO (181–365d)"},
		{domain.DaysOf(366), "OK (>365d)"},
	}
	for _, tc := range cases {
		assert.Equal(t, domain.Category(tc.want), c.Classify(tc.days), "days=%v", tc.days)
	}
}

func TestClassifySemaforoBoundaryAtSixty(t *testing.T) {
	t.Parallel()

	c := mustPreset(t, "semaforo")
	assert.Equal(t, domain.Category("CRITICO_60"), c.Classify(domain.DaysOf(60)))
	assert.Equal(t, domain.Category("ALERTA_180"), c.Classify(domain.DaysOf(61)))
	assert.Equal(t, domain.Category("CONFORTAVEL"), c.Classify(domain.DaysOf(181)))
}

func TestClassifyMonotonic(t *testing.T) {
	t.Parallel()

	for _, name := range PresetNames() {
		c := mustPreset(t, name)
		prev := c.Rank(c.Classify(domain.DaysOf(0)))
		for d := 1; d <= 800; d++ {
			r := c.Rank(c.Classify(domain.DaysOf(d)))
			require.GreaterOrEqual(t, r, prev, "scheme %s day %d became more urgent", name, d)
			prev = r
		}
	}
}

func TestNewClassifierRejectsBadSchemes(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier(Scheme{Name: "empty", Beyond: "OK"})
	require.Error(t, err)

	_, err = NewClassifier(Scheme{Name: "desc", Beyond: "OK", Bands: []Band{{Max: 90, Label: "A"}, {Max: 30, Label: "B"}}})
	require.Error(t, err)

	_, err = NewClassifier(Scheme{Name: "dup", Beyond: "A", Bands: []Band{{Max: 30, Label: "A"}}})
	require.Error(t, err)

	_, err = NewClassifier(Scheme{Name: "nobeyond", Bands: []Band{{Max: 30, Label: "A"}}})
	require.Error(t, err)
}

func TestPresetReturnsCopy(t *testing.T) {
	t.Parallel()

	s, ok := Preset("SEMAFORO")
	require.True(t, ok)
	s.Bands[0].Max = 1

	again, _ := Preset("semaforo")
	assert.Equal(t, 60, again.Bands[0].Max)
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	rules := DefaultAlerts()
	require.NoError(t, ValidateAlerts(rules))

	r30, r180 := rules[0], rules[1]
	assert.True(t, r30.Matches(domain.DaysOf(0)))
	assert.True(t, r30.Matches(domain.DaysOf(30)))
	assert.False(t, r30.Matches(domain.DaysOf(31)))
	assert.False(t, r30.Matches(domain.DaysOf(-1)))
	assert.False(t, r30.Matches(domain.Days{}))
	assert.True(t, r180.Matches(domain.DaysOf(40)), "inclusive queues overlap")

	band := AlertRule{Name: "alerta_61_180", Min: 61, Max: 180}
	assert.False(t, band.Matches(domain.DaysOf(60)))
	assert.True(t, band.Matches(domain.DaysOf(61)))

	assert.Error(t, ValidateAlerts([]AlertRule{{Name: "a", Max: 1}, {Name: "a", Max: 2}}))
	assert.Error(t, ValidateAlerts([]AlertRule{{Name: "a", Min: 10, Max: 2}}))
	assert.Error(t, ValidateAlerts([]AlertRule{{Name: " ", Max: 2}}))
}
