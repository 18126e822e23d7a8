package report

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InstrumentsMonitor/internal/domain"
)

func sampleSummary() domain.Summary {
	nearest := 12
	return domain.Summary{
		RunDate:   "2026-10-19",
		Scheme:    "semaforo",
		Total:     10,
		Surviving: 8,
		Archived:  2,
		Completed: 1,
		Categories: map[string]int{
			"VENCIDO":     0,
			"CRITICO_60":  3,
			"ALERTA_180":  2,
			"CONFORTAVEL": 2,
			"SEM DATA":    1,
		},
		CategoryOrder: []string{"VENCIDO", "CRITICO_60", "ALERTA_180", "CONFORTAVEL", "SEM DATA"},
		Alerts: []domain.AlertCount{
			{Name: "alerta_30", Count: 1},
			{Name: "alerta_180", Count: 5},
		},
		NearestDays: &nearest,
		NearestID:   "ACT <05>",
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	got := Subject(sampleSummary(), Options{})
	assert.Equal(t, "ACTs/Convênios — Monitoramento (2026-10-19) | alerta_30:1 • alerta_180:5", got)

	assert.Equal(t, "Relatório (sem-data)", Subject(domain.Summary{}, Options{SubjectPrefix: "Relatório"}))
}

func TestSemaphoreSkipsEmptyExpired(t *testing.T) {
	t.Parallel()

	lines := Semaphore(sampleSummary())
	require.Len(t, lines, 4)
	assert.Equal(t, Line{Marker: "🔴", Label: "CRITICO_60", Count: 3}, lines[0])
	assert.Equal(t, Line{Marker: "🟡", Label: "ALERTA_180", Count: 2}, lines[1])
	assert.Equal(t, Line{Marker: "🟢", Label: "CONFORTAVEL", Count: 2}, lines[2])
	assert.Equal(t, Line{Marker: "⚪", Label: "SEM DATA", Count: 1}, lines[3])
}

func TestSemaphoreWithoutOrder(t *testing.T) {
	t.Parallel()

	lines := Semaphore(domain.Summary{Categories: map[string]int{"B": 1, "A": 0}})
	require.Len(t, lines, 2)
	assert.Equal(t, "A", lines[0].Label)
	assert.Equal(t, "•", lines[0].Marker)
}

func TestTextBody(t *testing.T) {
	t.Parallel()

	body := Text(sampleSummary(), Options{})
	assert.Contains(t, body, "Data de execução: 2026-10-19")
	assert.Contains(t, body, "🔴 CRITICO_60: 3")
	assert.Contains(t, body, "- alerta_180: 5")
	assert.Contains(t, body, "Menor prazo atual: 12 dia(s) — ACT <05>")
	assert.NotContains(t, body, "VENCIDO")

	dated := sampleSummary()
	dated.NearestDate = "2026-10-31"
	assert.Contains(t, Nearest(dated), "ACT <05> (vencimento 2026-10-31)")

	empty := Text(domain.Summary{RunDate: "2026-10-19"}, Options{})
	assert.NotContains(t, empty, "Menor prazo")
}

func TestHTMLBody(t *testing.T) {
	t.Parallel()

	html, err := HTML(sampleSummary(), Options{Title: "Relatório mensal ACTs"})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "Relatório mensal ACTs", doc.Find("h2").Text())
	assert.Equal(t, 4, doc.Find("table.semaphore tr").Length()-1)
	assert.Equal(t, 2, doc.Find("ul.alerts li").Length())
	assert.Contains(t, doc.Find("p.nearest").Text(), "ACT <05>", "identification is escaped, not injected")
}

func TestMarkdownEscapesUnderscores(t *testing.T) {
	t.Parallel()

	md := Markdown(sampleSummary(), Options{})
	assert.True(t, strings.HasPrefix(md, "*ACTs/Convênios"))
	assert.Contains(t, md, `alerta\_30:1`)
	assert.NotContains(t, md, "alerta_30")
}

func TestRender(t *testing.T) {
	t.Parallel()

	msg, err := Render(sampleSummary(), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Subject)
	assert.NotEmpty(t, msg.Text)
	assert.NotEmpty(t, msg.HTML)
	assert.NotEmpty(t, msg.Markdown)
	assert.Empty(t, msg.Attachments)
}
