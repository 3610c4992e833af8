package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/facility-watch/detention-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	mode           TEXT NOT NULL,
	enriched       INTEGER NOT NULL DEFAULT 0,
	facility_count INTEGER NOT NULL DEFAULT 0,
	scraped_date   DATETIME NOT NULL,
	scrape_runtime REAL NOT NULL DEFAULT 0,
	enrich_runtime REAL NOT NULL DEFAULT 0,
	snapshot       TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode);
`

const sqliteRunColumns = `id, mode, enriched, facility_count, scraped_date, scrape_runtime, enrich_runtime, created_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot, opts SaveOptions) (*model.Run, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal snapshot")
	}

	run := newRun(uuid.New().String(), snap, opts)
	run.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (`+sqliteRunColumns+`, snapshot) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Mode), run.Enriched, run.FacilityCount, run.ScrapedDate,
		run.ScrapeRuntime, run.EnrichRuntime, run.CreatedAt, string(data),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(filter.Mode))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOf(filter))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, runID string) (*model.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM runs WHERE id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", runID)
	}
	return decodeSnapshot([]byte(data))
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*model.Run, *model.Snapshot, error) {
	runs, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	if err != nil {
		return nil, nil, err
	}
	if len(runs) == 0 {
		return nil, nil, eris.Wrap(ErrNotFound, "no stored runs")
	}
	snap, err := s.GetSnapshot(ctx, runs[0].ID)
	if err != nil {
		return nil, nil, err
	}
	return &runs[0], snap, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var mode string

	err := row.Scan(&r.ID, &mode, &r.Enriched, &r.FacilityCount, &r.ScrapedDate,
		&r.ScrapeRuntime, &r.EnrichRuntime, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Mode = model.RunMode(mode)
	return &r, nil
}

func decodeSnapshot(data []byte) (*model.Snapshot, error) {
	snap := model.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal snapshot")
	}
	if snap.Facilities == nil {
		snap.Facilities = make(map[string]*model.Facility)
	}
	return snap, nil
}
