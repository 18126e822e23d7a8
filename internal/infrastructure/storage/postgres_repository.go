package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/ports"
)

var schemaName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RunRecord is one stored run as listed by LatestRuns.
type RunRecord struct {
	ID        uuid.UUID
	RunDate   time.Time
	Scheme    string
	Total     int
	Surviving int
	Archived  int
	CreatedAt time.Time
}

// PostgresRepository keeps the history of monitoring runs in Postgres.
type PostgresRepository struct {
	db     *sql.DB
	schema string
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// Open connects through the pgx database/sql driver and pings the server.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB; schema must be a plain identifier.
func NewPostgresRepository(db *sql.DB, schema string) (*PostgresRepository, error) {
	if !schemaName.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name: %q", schema)
	}
	return &PostgresRepository{db: db, schema: schema}, nil
}

func (r *PostgresRepository) table(name string) string {
	return r.schema + "." + name
}

// EnsureSchema creates the history tables when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	for _, stmt := range schemaStatements(r.schema) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(schema string) []string {
	return []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.monitor_runs (
			id uuid PRIMARY KEY,
			run_date date NOT NULL,
			scheme text NOT NULL,
			total integer NOT NULL,
			surviving integer NOT NULL,
			archived integer NOT NULL,
			completed integer NOT NULL,
			no_date integer NOT NULL,
			nearest_days integer,
			nearest_identification text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.monitor_run_counts (
			run_id uuid NOT NULL REFERENCES %s.monitor_runs(id) ON DELETE CASCADE,
			kind text NOT NULL,
			label text NOT NULL,
			total integer NOT NULL,
			PRIMARY KEY (run_id, kind, label)
		)`, schema, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.monitor_run_instruments (
			run_id uuid NOT NULL REFERENCES %s.monitor_runs(id) ON DELETE CASCADE,
			position integer NOT NULL,
			identification text NOT NULL,
			start_date date,
			end_date date,
			days_remaining integer,
			category text NOT NULL,
			completed boolean NOT NULL,
			PRIMARY KEY (run_id, position)
		)`, schema, schema),
		fmt.Sprintf(`ALTER TABLE %s.monitor_run_instruments ADD COLUMN IF NOT EXISTS start_date date`, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS monitor_runs_run_date_idx ON %s.monitor_runs (run_date)`, schema),
	}
}

// SaveRun stores the summary, its counts and the priority queue in one transaction.
func (r *PostgresRepository) SaveRun(ctx context.Context, result domain.Result) (err error) {
	if r.db == nil {
		return nil
	}

	runID, err := runUUID(result.Summary.RunID)
	if err != nil {
		return err
	}

	queries, err := r.runQueries(runID, result)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, q := range queries {
		if _, err = tx.ExecContext(ctx, q.sql, q.args...); err != nil {
			return fmt.Errorf("insert run %s: %w", runID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

type query struct {
	sql  string
	args []interface{}
}

func (r *PostgresRepository) runQueries(runID uuid.UUID, result domain.Result) ([]query, error) {
	s := result.Summary
	runDate, err := time.Parse(time.DateOnly, s.RunDate)
	if err != nil {
		return nil, fmt.Errorf("run date %q: %w", s.RunDate, err)
	}

	var nearest sql.NullInt64
	if s.NearestDays != nil {
		nearest = sql.NullInt64{Int64: int64(*s.NearestDays), Valid: true}
	}

	var out []query
	add := func(b sq.Sqlizer) error {
		text, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		out = append(out, query{sql: text, args: args})
		return nil
	}

	err = add(psql.Insert(r.table("monitor_runs")).
		Columns("id", "run_date", "scheme", "total", "surviving", "archived", "completed",
			"no_date", "nearest_days", "nearest_identification").
		Values(runID, runDate, s.Scheme, s.Total, s.Surviving, s.Archived, s.Completed,
			s.NoDate, nearest, nullString(s.NearestID)))
	if err != nil {
		return nil, err
	}

	counts := psql.Insert(r.table("monitor_run_counts")).Columns("run_id", "kind", "label", "total")
	rows := 0
	for _, label := range s.CategoryOrder {
		counts = counts.Values(runID, "category", label, s.Categories[label])
		rows++
	}
	for _, a := range s.Alerts {
		counts = counts.Values(runID, "alert", a.Name, a.Count)
		rows++
	}
	if rows > 0 {
		if err := add(counts); err != nil {
			return nil, err
		}
	}

	if len(result.Priority) > 0 {
		items := psql.Insert(r.table("monitor_run_instruments")).
			Columns("run_id", "position", "identification", "start_date", "end_date", "days_remaining", "category", "completed")
		for i, inst := range result.Priority {
			d := inst.Derived
			start := nullDate(d.StartDate, d.HasStartDate)
			end := nullDate(d.EndDate, d.HasEndDate)
			var days sql.NullInt64
			if d.Days.Known {
				days = sql.NullInt64{Int64: int64(d.Days.Value), Valid: true}
			}
			items = items.Values(runID, i, d.Identification, start, end, days, string(d.Category), d.Completed)
		}
		if err := add(items); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// LatestRuns lists the most recent runs, newest first.
func (r *PostgresRepository) LatestRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	text, args, err := r.latestRunsQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.RunDate, &rec.Scheme, &rec.Total, &rec.Surviving, &rec.Archived, &rec.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return runs, nil
}

func (r *PostgresRepository) latestRunsQuery(limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = 10
	}
	return psql.Select("id", "run_date", "scheme", "total", "surviving", "archived", "created_at").
		From(r.table("monitor_runs")).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
}

func runUUID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.New(), nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("run id %q: %w", id, err)
	}
	return parsed, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullDate(value time.Time, ok bool) sql.NullTime {
	if !ok {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
