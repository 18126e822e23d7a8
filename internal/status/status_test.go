package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/fields"
)

func newMatcher() *Matcher {
	return NewMatcher(fields.DefaultAliases(), DefaultKeywords())
}

func TestIsCompleted(t *testing.T) {
	t.Parallel()

	m := newMatcher()
	assert.True(t, m.IsCompleted(domain.Record{"status_execucao": "Concluído"}))
	assert.True(t, m.IsCompleted(domain.Record{"andamento": "finalizado em 2025"}))
	assert.True(t, m.IsCompleted(domain.Record{"status_execucao": "", "execução": "CONCLUSO"}))
	assert.False(t, m.IsCompleted(domain.Record{"status_execucao": "em execução"}))
	assert.False(t, m.IsCompleted(domain.Record{}))
}

func TestIsArchived(t *testing.T) {
	t.Parallel()

	m := newMatcher()
	for _, v := range []string{"sim", "S", "1", "true", " TRUE ", "Arquivado", "processo arquivado"} {
		assert.True(t, m.IsArchived(domain.Record{"arquivado": v}), "value %q", v)
	}
	for _, v := range []string{"", "não", "N", "0", "ativo", "simples"} {
		assert.False(t, m.IsArchived(domain.Record{"arquivado": v}), "value %q", v)
	}
	assert.True(t, m.IsArchived(domain.Record{"Status Geral": "ARQUIVADO"}))
	assert.False(t, m.IsArchived(domain.Record{"outro": "SIM"}))
}

func TestCustomKeywords(t *testing.T) {
	t.Parallel()

	m := NewMatcher(fields.DefaultAliases(), Keywords{
		Completed:      []string{"done"},
		ArchivedValues: []string{"x"},
	})
	assert.True(t, m.IsCompleted(domain.Record{"status_execucao": "Done"}))
	assert.False(t, m.IsCompleted(domain.Record{"status_execucao": "concluído"}))
	assert.True(t, m.IsArchived(domain.Record{"status": "x"}))
	assert.False(t, m.IsArchived(domain.Record{"status": "arquivado"}))
}
