package storage

import (
	"database/sql"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InstrumentsMonitor/internal/domain"
)

func sampleResult() domain.Result {
	nearest := 10
	end := time.Date(2026, time.October, 29, 0, 0, 0, 0, time.UTC)
	return domain.Result{
		Summary: domain.Summary{
			RunID:         uuid.NewString(),
			RunDate:       "2026-10-19",
			Scheme:        "faixas",
			Total:         3,
			Surviving:     2,
			Archived:      1,
			Categories:    map[string]int{"CRÍTICO (≤30d)": 1, "OK (>365d)": 1},
			CategoryOrder: []string{"CRÍTICO (≤30d)", "OK (>365d)"},
			Alerts:        []domain.AlertCount{{Name: "alerta_30", Count: 1}},
			NearestDays:   &nearest,
			NearestID:     "A",
		},
		Priority: []domain.Instrument{
			{Derived: domain.Derived{Identification: "A", EndDate: end, HasEndDate: true, Days: domain.DaysOf(10), Category: "CRÍTICO (≤30d)"}},
			{Derived: domain.Derived{Identification: "B", Category: "SEM DATA"}},
		},
	}
}

func TestNewRepositoryValidatesSchema(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresRepository(nil, "monitor; DROP TABLE x")
	require.Error(t, err)

	repo, err := NewPostgresRepository(nil, "instrument_monitor")
	require.NoError(t, err)
	assert.Equal(t, "instrument_monitor.monitor_runs", repo.table("monitor_runs"))
}

func TestRunQueries(t *testing.T) {
	t.Parallel()

	repo, err := NewPostgresRepository(nil, "acts")
	require.NoError(t, err)

	result := sampleResult()
	runID := uuid.MustParse(result.Summary.RunID)
	queries, err := repo.runQueries(runID, result)
	require.NoError(t, err)
	require.Len(t, queries, 3)

	assert.True(t, strings.HasPrefix(queries[0].sql, "INSERT INTO acts.monitor_runs (id,run_date,scheme"))
	assert.Contains(t, queries[0].sql, "$10")
	assert.Len(t, queries[0].args, 10)
	assert.Equal(t, runID, queries[0].args[0])

	assert.Contains(t, queries[1].sql, "acts.monitor_run_counts")
	assert.Len(t, queries[1].args, 12, "two categories and one alert, four columns each")

	assert.Contains(t, queries[2].sql, "acts.monitor_run_instruments")
	assert.Contains(t, queries[2].sql, "start_date,end_date")
	assert.Len(t, queries[2].args, 16)
	assert.Equal(t, sql.NullTime{}, queries[2].args[3], "A has no start date")
	assert.Equal(t, sql.NullTime{Time: result.Priority[0].Derived.EndDate, Valid: true}, queries[2].args[4])
}

func TestRunQueriesRejectsBadDate(t *testing.T) {
	t.Parallel()

	repo, _ := NewPostgresRepository(nil, "acts")
	result := sampleResult()
	result.Summary.RunDate = "19/10/2026"

	_, err := repo.runQueries(uuid.New(), result)
	assert.Error(t, err)
}

func TestLatestRunsQuery(t *testing.T) {
	t.Parallel()

	repo, _ := NewPostgresRepository(nil, "acts")
	text, args, err := repo.latestRunsQuery(0).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, run_date, scheme, total, surviving, archived, created_at FROM acts.monitor_runs ORDER BY created_at DESC LIMIT 10", text)
	assert.Empty(t, args)
}

func TestNilDatabaseIsNoop(t *testing.T) {
	t.Parallel()

	repo, _ := NewPostgresRepository(nil, "acts")
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.SaveRun(context.Background(), sampleResult()))
	runs, err := repo.LatestRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, runs)
}

func TestRunUUID(t *testing.T) {
	t.Parallel()

	id, err := runUUID("")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	_, err = runUUID("not-a-uuid")
	assert.Error(t, err)
}
