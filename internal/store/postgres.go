package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/db"
	"github.com/facility-watch/detention-cli/internal/geo"
	"github.com/facility-watch/detention-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. Besides the run history it
// keeps one row per facility per run and a "facilities" table holding the
// latest record for every identity key.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	postgresRunColumns = `id, mode, enriched, facility_count, scraped_date, scrape_runtime, enrich_runtime, created_at`

	insertRunSQL   = `INSERT INTO runs (` + postgresRunColumns + `, snapshot) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	getRunSQL      = `SELECT ` + postgresRunColumns + ` FROM runs WHERE id = $1`
	getSnapshotSQL = `SELECT snapshot FROM runs WHERE id = $1`
	latestRunSQL   = `SELECT ` + postgresRunColumns + `, snapshot FROM runs ORDER BY created_at DESC LIMIT 1`
)

// facilityColumns are the columns COPY'd into run_facilities and upserted
// into facilities, in row order.
var facilityColumns = []string{"key", "name", "state", "field_office", "geom", "data", "run_id"}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	mode           TEXT NOT NULL,
	enriched       BOOLEAN NOT NULL DEFAULT false,
	facility_count INTEGER NOT NULL DEFAULT 0,
	scraped_date   TIMESTAMPTZ NOT NULL,
	scrape_runtime DOUBLE PRECISION NOT NULL DEFAULT 0,
	enrich_runtime DOUBLE PRECISION NOT NULL DEFAULT 0,
	snapshot       JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode);

CREATE TABLE IF NOT EXISTS run_facilities (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	key          TEXT NOT NULL,
	name         TEXT NOT NULL,
	state        TEXT,
	field_office TEXT,
	geom         geometry(Point, 4326),
	data         JSONB NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE INDEX IF NOT EXISTS idx_run_facilities_state ON run_facilities(state);
CREATE INDEX IF NOT EXISTS idx_run_facilities_geom ON run_facilities USING GIST (geom);

CREATE TABLE IF NOT EXISTS facilities (
	key          TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	state        TEXT,
	field_office TEXT,
	geom         geometry(Point, 4326),
	data         JSONB NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_facilities_geom ON facilities USING GIST (geom);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveSnapshot inserts the run and COPYs its facilities in one transaction,
// then refreshes the latest-record table.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot, opts SaveOptions) (*model.Run, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal snapshot")
	}

	run := newRun(uuid.New().String(), snap, opts)
	run.CreatedAt = time.Now().UTC()

	rows, err := facilityRows(run.ID, snap)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, insertRunSQL,
		run.ID, string(run.Mode), run.Enriched, run.FacilityCount, run.ScrapedDate,
		run.ScrapeRuntime, run.EnrichRuntime, run.CreatedAt, data,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	if _, err := db.CopyFrom(ctx, tx, "run_facilities", facilityColumns, rows, 0); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit run")
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "facilities",
		Columns:      facilityColumns,
		ConflictKeys: []string{"key"},
	}, rows)
	if err != nil {
		return nil, err
	}
	zap.L().Info("postgres: saved run",
		zap.String("run_id", run.ID),
		zap.Int("facilities", run.FacilityCount),
		zap.Int64("latest_upserted", n),
	)
	return run, nil
}

// facilityRows builds one COPY row per facility in facilityColumns order.
func facilityRows(runID string, snap *model.Snapshot) ([][]any, error) {
	rows := make([][]any, 0, len(snap.Facilities))
	for _, key := range snap.Keys() {
		f := snap.Facilities[key]
		data, err := json.Marshal(f)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: marshal facility %q", key)
		}
		wkb, err := geo.EncodeWKB(f)
		if err != nil {
			return nil, err
		}
		var geom any
		if wkb != nil {
			geom = wkb
		}
		rows = append(rows, []any{
			key,
			f.Name,
			nullable(f.Address.AdministrativeArea),
			nullable(f.FieldOffice.FieldOffice),
			geom,
			data,
			runID,
		})
	}
	return rows, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, getRunSQL, runID))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + postgresRunColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Mode != "" {
		query += fmt.Sprintf(` AND mode = $%d`, argIdx)
		args = append(args, string(filter.Mode))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limitOf(filter))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, runID string) (*model.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, getSnapshotSQL, runID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", runID)
	}
	return decodeSnapshot(data)
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*model.Run, *model.Snapshot, error) {
	var r model.Run
	var mode string
	var data []byte
	err := s.pool.QueryRow(ctx, latestRunSQL).Scan(&r.ID, &mode, &r.Enriched, &r.FacilityCount,
		&r.ScrapedDate, &r.ScrapeRuntime, &r.EnrichRuntime, &r.CreatedAt, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, eris.Wrap(ErrNotFound, "no stored runs")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: latest run")
	}
	r.Mode = model.RunMode(mode)
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, nil, err
	}
	return &r, snap, nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var mode string
	err := row.Scan(&r.ID, &mode, &r.Enriched, &r.FacilityCount, &r.ScrapedDate,
		&r.ScrapeRuntime, &r.EnrichRuntime, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, err
	}
	r.Mode = model.RunMode(mode)
	return &r, nil
}
