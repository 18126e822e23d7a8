package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InstrumentsMonitor/internal/config"
	"InstrumentsMonitor/internal/domain"
)

const sampleCSV = "identificacao;vigencia_termino;arquivado\n" +
	"B;23/11/2027;\n" +
	"A;29/10/2026;NÃO\n" +
	"C;24/10/2026;SIM\n"

func testConfig(t *testing.T, source string) config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "monitor.example.yaml"))
	require.NoError(t, err)

	cfg.Source.Path = source
	cfg.Source.Format = "auto"
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.WriteBack = false
	cfg.Database.DSN = ""
	cfg.Notifications.Email = config.EmailConfig{}
	cfg.Notifications.Telegram = config.TelegramConfig{}
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *Application {
	t.Helper()
	clock := func() time.Time {
		return time.Date(2026, time.October, 19, 12, 0, 0, 0, cfg.Scheduler.Location())
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), cfg, logger, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunThenNotify(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, writeSource(t, "tbl.csv", sampleCSV))
	a := newTestApp(t, cfg)

	result, err := a.Run(context.Background())
	require.NoError(t, err)

	s := result.Summary
	assert.Equal(t, "2026-10-19", s.RunDate)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Surviving)
	assert.Equal(t, 1, s.Archived)
	assert.Equal(t, 1, s.AlertTotal("alerta_30"))

	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "prioridades.csv"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "alertas_30.csv"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "alertas_180.csv"))

	msg, err := a.Notify(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "(2026-10-19)")
	assert.Contains(t, msg.Subject, "alerta_30:1")
}

func TestWriteBackRewritesCSVSource(t *testing.T) {
	t.Parallel()

	source := writeSource(t, "tbl.csv", sampleCSV)
	cfg := testConfig(t, source)
	cfg.Output.WriteBack = true

	_, err := newTestApp(t, cfg).Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Contains(t, string(raw), domain.ColumnDays)
	assert.Contains(t, string(raw), "C;24/10/2026;SIM")
}

func TestWriteBackSkippedForHTMLSource(t *testing.T) {
	t.Parallel()

	page := `<html><body><table>
<tr><th>identificacao</th><th>vigencia_termino</th></tr>
<tr><td>A</td><td>29/10/2026</td></tr>
</table></body></html>`
	source := writeSource(t, "export.html", page)
	cfg := testConfig(t, source)
	cfg.Output.WriteBack = true

	result, err := newTestApp(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Total)

	raw, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, page, string(raw))
}

func TestRunMissingSource(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
	_, err := newTestApp(t, cfg).Run(context.Background())

	require.ErrorIs(t, err, domain.ErrSourceNotFound)
	assert.Equal(t, domain.ExitSourceMissing, domain.ExitCodeFor(err))
}

func TestNotifyWithoutRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, writeSource(t, "tbl.csv", sampleCSV))
	_, err := newTestApp(t, cfg).Notify(context.Background())

	require.ErrorIs(t, err, domain.ErrSummaryNotFound)
	assert.Equal(t, domain.ExitSummaryInvalid, domain.ExitCodeFor(err))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "tbl.xlsx")
	cfg.Source.Format = "auto"
	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestHistoryRequiresDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, writeSource(t, "tbl.csv", sampleCSV))
	_, err := newTestApp(t, cfg).History(context.Background(), 5)
	require.ErrorIs(t, err, ErrNoDatabase)
}
