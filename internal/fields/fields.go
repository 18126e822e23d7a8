package fields

import (
	"strings"

	"InstrumentsMonitor/internal/domain"
)

// Field names a logical column whose header spelling varies across sheet revisions.
type Field string

const (
	EndDate          Field = "end_date"
	StartDate        Field = "start_date"
	Identification   Field = "identification"
	ExecutionStatus  Field = "execution_status"
	ArchiveStatus    Field = "archive_status"
	Publication      Field = "publication"
	PublishedExtract Field = "published_extract"
)

// Aliases maps each logical field to the header spellings tried in order.
type Aliases map[Field][]string

// DefaultAliases returns the spellings seen across the spreadsheet revisions.
func DefaultAliases() Aliases {
	return Aliases{
		EndDate:   {"vigencia_termino", "VIGÊNCIA - TÉRMINO", "vencimento", "Vencimento", "vigencia_fim"},
		StartDate: {"vigencia_inicio", "VIGÊNCIA - INÍCIO", "inicio", "Inicio"},
		Identification: {
			"identificacao", "Identificação", "identificação", "Identificacao", "IDENTIFICAÇÃO",
		},
		ExecutionStatus: {
			"status_execucao", "status_execução",
			"situacao_execucao", "situação_execucao",
			"andamento", "execucao", "execução",
		},
		ArchiveStatus:    {"arquivado", "Arquivado", "status_geral", "Status Geral", "status"},
		Publication:      {domain.ColumnPublication},
		PublishedExtract: {"numero_extrato_publicado"},
	}
}

// Merge returns a copy of a where every non-empty list in override replaces the default.
func (a Aliases) Merge(override map[string][]string) Aliases {
	out := make(Aliases, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range override {
		if len(v) == 0 {
			continue
		}
		out[Field(k)] = append([]string(nil), v...)
	}
	return out
}

// Get resolves a logical field on rec.
func (a Aliases) Get(rec domain.Record, f Field) string {
	return Resolve(rec, a[f])
}

// Resolve returns the value of the first alias present in rec with a non-blank value.
func Resolve(rec domain.Record, aliases []string) string {
	for _, key := range aliases {
		if v, ok := rec[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
