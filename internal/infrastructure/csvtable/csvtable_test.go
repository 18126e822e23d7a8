package csvtable

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InstrumentsMonitor/internal/domain"
)

func TestDetectDelimiter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ',', DetectDelimiter("a,b,c"))
	assert.Equal(t, ';', DetectDelimiter("identificacao;vigencia_termino;status"))
	assert.Equal(t, '\t', DetectDelimiter("a\tb\tc"))
	assert.Equal(t, '|', DetectDelimiter("a|b|c,d"))
	assert.Equal(t, ',', DetectDelimiter("single"))
}

func TestReadSemicolonWithBOM(t *testing.T) {
	t.Parallel()

	input := "\ufeffIdentificação;VIGÊNCIA - TÉRMINO;arquivado\n" +
		"ACT 1;05/03/2026;não\n" +
		" ; ; \n" +
		"\n" +
		"ACT 2;2026-12-31\n"

	table, err := Read(strings.NewReader(input), 0)
	require.NoError(t, err)

	assert.Equal(t, ';', table.Delimiter)
	assert.Equal(t, []string{"Identificação", "VIGÊNCIA - TÉRMINO", "arquivado"}, table.Header)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "ACT 1", table.Records[0]["Identificação"])
	assert.Equal(t, "", table.Records[1]["arquivado"], "short rows are padded")
}

func TestReadEmptyInput(t *testing.T) {
	t.Parallel()

	table, err := Read(strings.NewReader(""), 0)
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Records)
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	table := domain.Table{
		Header:    []string{"id", "obs"},
		Delimiter: ';',
		Records: []domain.Record{
			{"id": "1", "obs": "texto; com separador"},
			{"id": "2"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table))
	assert.Equal(t, "id;obs\n1;\"texto; com separador\"\n2;\n", buf.String())

	back, err := Read(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, table.Header, back.Header)
	assert.Equal(t, "texto; com separador", back.Records[0]["obs"])
}

func TestSourceMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewSource(filepath.Join(t.TempDir(), "nope.csv"), 0, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceNotFound))
}

func TestWriteFileReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "tbl.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	table := domain.Table{Header: []string{"a"}, Records: []domain.Record{{"a": "1"}}}
	require.NoError(t, WriteFile(path, table))

	loaded, err := NewSource(path, 0, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, loaded.Header)
	require.Len(t, loaded.Records, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file cleaned up")
}
