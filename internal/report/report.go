// Package report renders a run summary into the subject and bodies of a notification.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"InstrumentsMonitor/internal/domain"
)

const (
	defaultSubject = "ACTs/Convênios — Monitoramento"
	defaultTitle   = "Relatório de monitoramento de ACTs/Convênios (execução automática)"
	defaultNote    = "Os prazos são recalculados a cada execução com base na data do dia."
)

// Options customizes the rendered texts.
type Options struct {
	SubjectPrefix string `yaml:"subjectPrefix"`
	Title         string `yaml:"title"`
	Note          string `yaml:"note"`
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.SubjectPrefix) == "" {
		o.SubjectPrefix = defaultSubject
	}
	if strings.TrimSpace(o.Title) == "" {
		o.Title = defaultTitle
	}
	if strings.TrimSpace(o.Note) == "" {
		o.Note = defaultNote
	}
	return o
}

// Line is one category of the deadline semaphore.
type Line struct {
	Marker string
	Label  string
	Count  int
}

// Subject embeds the run date and every alert queue size.
func Subject(s domain.Summary, opts Options) string {
	opts = opts.withDefaults()
	date := s.RunDate
	if date == "" {
		date = "sem-data"
	}

	subject := fmt.Sprintf("%s (%s)", opts.SubjectPrefix, date)
	if len(s.Alerts) == 0 {
		return subject
	}

	parts := make([]string, 0, len(s.Alerts))
	for _, a := range s.Alerts {
		parts = append(parts, fmt.Sprintf("%s:%d", a.Name, a.Count))
	}
	return subject + " | " + strings.Join(parts, " • ")
}

// Semaphore lists categories from most to least urgent with a colour marker.
// Expired and no-data lines are dropped when empty.
func Semaphore(s domain.Summary) []Line {
	order := s.CategoryOrder
	if len(order) == 0 {
		for label := range s.Categories {
			order = append(order, label)
		}
		sort.Strings(order)
	}

	lines := make([]Line, 0, len(order))
	last := len(order) - 1
	for i, label := range order {
		count := s.Categories[label]
		marker := "🟡"
		switch {
		case len(s.CategoryOrder) == 0:
			marker = "•"
		case i == last:
			marker = "⚪"
		case i == last-1:
			marker = "🟢"
		case i <= 1:
			marker = "🔴"
		}
		if (i == 0 || i == last) && count == 0 && len(s.CategoryOrder) > 0 {
			continue
		}
		lines = append(lines, Line{Marker: marker, Label: label, Count: count})
	}
	return lines
}

// Nearest describes the most urgent instrument, empty when none has a date.
func Nearest(s domain.Summary) string {
	if s.NearestDays == nil {
		return ""
	}
	id := s.NearestID
	if id == "" {
		id = "(sem identificação)"
	}
	line := fmt.Sprintf("Menor prazo atual: %d dia(s) — %s", *s.NearestDays, id)
	if s.NearestDate != "" {
		line += fmt.Sprintf(" (vencimento %s)", s.NearestDate)
	}
	return line
}

// Text renders the plain-text body.
func Text(s domain.Summary, opts Options) string {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintln(&b, opts.Title)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Data de execução: %s\n", s.RunDate)
	fmt.Fprintf(&b, "Total de registros: %d | Monitorados: %d | Arquivados: %d | Concluídos: %d\n",
		s.Total, s.Surviving, s.Archived, s.Completed)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "SEMÁFORO DE PRAZOS (vigência/término):")
	for _, l := range Semaphore(s) {
		fmt.Fprintf(&b, "%s %s: %d\n", l.Marker, l.Label, l.Count)
	}

	if len(s.Alerts) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "FILAS DE ALERTA:")
		for _, a := range s.Alerts {
			fmt.Fprintf(&b, "- %s: %d\n", a.Name, a.Count)
		}
	}

	if nearest := Nearest(s); nearest != "" {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, nearest)
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Obs.: %s\n", opts.Note)
	return b.String()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<html>
  <body>
    <h2>{{.Title}}</h2>
    <p><b>Data execução:</b> {{.Summary.RunDate}}</p>
    <ul class="totals">
      <li><b>Total registros:</b> {{.Summary.Total}}</li>
      <li><b>Prioridades:</b> {{.Summary.Surviving}}</li>
      <li><b>Arquivados:</b> {{.Summary.Archived}}</li>
      <li><b>Concluídos:</b> {{.Summary.Completed}}</li>
    </ul>
    <table class="semaphore">
      <tr><th>Faixa</th><th>Total</th></tr>
      {{- range .Lines}}
      <tr><td>{{.Marker}} {{.Label}}</td><td>{{.Count}}</td></tr>
      {{- end}}
    </table>
    <ul class="alerts">
      {{- range .Summary.Alerts}}
      <li><b>{{.Name}}:</b> {{.Count}}</li>
      {{- end}}
    </ul>
    {{- if .Nearest}}
    <p class="nearest">{{.Nearest}}</p>
    {{- end}}
    <p><i>{{.Note}}</i></p>
  </body>
</html>
`))

// HTML renders the HTML alternative body.
func HTML(s domain.Summary, opts Options) (string, error) {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, map[string]any{
		"Title":   opts.Title,
		"Summary": s,
		"Lines":   Semaphore(s),
		"Nearest": Nearest(s),
		"Note":    opts.Note,
	})
	if err != nil {
		return "", fmt.Errorf("execute html template: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders a Telegram-friendly digest.
func Markdown(s domain.Summary, opts Options) string {
	escape := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return "*" + escape.Replace(Subject(s, opts)) + "*\n\n" + escape.Replace(Text(s, opts))
}

// Render produces every body for summary.
func Render(s domain.Summary, opts Options) (domain.Message, error) {
	html, err := HTML(s, opts)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		Subject:  Subject(s, opts),
		Text:     Text(s, opts),
		HTML:     html,
		Markdown: Markdown(s, opts),
	}, nil
}
