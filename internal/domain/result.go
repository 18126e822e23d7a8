package domain

import "time"

// Queue is a named, sorted subset of surviving instruments.
type Queue struct {
	Name        string
	Instruments []Instrument
}

// Result is the full output of one monitoring pass.
type Result struct {
	Today       time.Time
	Header      []string
	Delimiter   rune
	Instruments []Instrument
	Priority    []Instrument
	Alerts      []Queue
	Summary     Summary
}

// AugmentedTable renders every instrument (archived included) in source order.
func (r Result) AugmentedTable(labels Labels) Table {
	return Table{Header: r.Header, Records: Rows(r.Instruments, labels), Delimiter: r.Delimiter}
}

// QueueTable renders a queue with the augmented header.
func (r Result) QueueTable(items []Instrument, labels Labels) Table {
	return Table{Header: r.Header, Records: Rows(items, labels), Delimiter: r.Delimiter}
}

// Rows serializes instruments with the given labels.
func Rows(items []Instrument, labels Labels) []Record {
	rows := make([]Record, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.Row(labels))
	}
	return rows
}

// AlertCount is the size of one alert queue.
type AlertCount struct {
	Name  string `json:"nome"`
	Count int    `json:"total"`
}

// Summary is the machine-readable run report consumed by the notification step.
type Summary struct {
	RunID         string         `json:"run_id,omitempty"`
	RunDate       string         `json:"data_execucao"`
	Scheme        string         `json:"esquema,omitempty"`
	Total         int            `json:"total_registros"`
	Surviving     int            `json:"prioridades"`
	Archived      int            `json:"arquivados"`
	Completed     int            `json:"concluidos"`
	NoDate        int            `json:"sem_data"`
	Categories    map[string]int `json:"contagens"`
	CategoryOrder []string       `json:"ordem_categorias,omitempty"`
	Alerts        []AlertCount   `json:"alertas"`
	NearestDays   *int           `json:"menor_prazo_dias,omitempty"`
	NearestID     string         `json:"menor_prazo_identificacao,omitempty"`
	NearestDate   string         `json:"menor_prazo_vencimento,omitempty"`
}

// AlertTotal returns the size of the named alert queue, zero when unknown.
func (s Summary) AlertTotal(name string) int {
	for _, a := range s.Alerts {
		if a.Name == name {
			return a.Count
		}
	}
	return 0
}
