package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facility-watch/detention-cli/internal/geo"
	"github.com/facility-watch/detention-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var runColumnNames = []string{"id", "mode", "enriched", "facility_count", "scraped_date", "scrape_runtime", "enrich_runtime", "created_at"}

func TestPostgresStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	snap := testSnapshot("Stewart", "Irwin")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "scrape", true, 2, pgxmock.AnyArg(), 3.25, 0.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"run_facilities"}, facilityColumns).WillReturnResult(2)
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_facilities"}, facilityColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "facilities"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	run, err := s.SaveSnapshot(context.Background(), snap, SaveOptions{Mode: model.RunModeScrape, Enriched: true})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 2, run.FacilityCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSnapshot_InsertFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("boom"))
	mock.ExpectRollback()

	_, err := s.SaveSnapshot(context.Background(), testSnapshot("Stewart"), SaveOptions{Mode: model.RunModeScrape})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert run")
	assert.Contains(t, err.Error(), "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacilityRows(t *testing.T) {
	snap := testSnapshot("Stewart")
	snap.Facilities["nowhere"] = &model.Facility{Name: "Nowhere"}

	rows, err := facilityRows("run-1", snap)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// keys sort "Stewart,..." before "nowhere"
	located := rows[0]
	require.Len(t, located, len(facilityColumns))
	assert.Equal(t, "Stewart,ALBANY,GA,31701", located[0])
	assert.Equal(t, "GA", located[2])
	assert.Nil(t, located[3])
	wkb, ok := located[4].([]byte)
	require.True(t, ok)
	lat, lon, err := geo.DecodeWKB(wkb)
	require.NoError(t, err)
	assert.InDelta(t, 31.57, lat, 1e-9)
	assert.InDelta(t, -84.15, lon, 1e-9)
	assert.Equal(t, "run-1", located[6])

	assert.Nil(t, rows[1][4], "unlocated facilities have no geometry")
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(getRunSQL)).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(runColumnNames).
			AddRow("run-1", "scrape", false, 120, now, 42.0, 0.0, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunModeScrape, run.Mode)
	assert.Equal(t, 120, run.FacilityCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(getRunSQL)).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM runs WHERE true AND mode = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("load_existing", 10, 5).
		WillReturnRows(pgxmock.NewRows(runColumnNames).
			AddRow("run-2", "load_existing", true, 3, now, 0.0, 8.5, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Mode: model.RunModeLoadExisting, Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Enriched)
	assert.Equal(t, 8.5, runs[0].EnrichRuntime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`LIMIT \$1$`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(runColumnNames))

	runs, err := s.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	data := []byte(`{"scraped_date":"2026-01-02T00:00:00Z","facilities":{"K":{"name":"Stewart"}}}`)

	mock.ExpectQuery(regexp.QuoteMeta(latestRunSQL)).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, runColumnNames...), "snapshot")).
			AddRow("run-9", "scrape", false, 1, now, 1.0, 0.0, now, data))

	run, snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-9", run.ID)
	require.Contains(t, snap.Facilities, "K")
	assert.Equal(t, "Stewart", snap.Facilities["K"].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshot_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(latestRunSQL)).WillReturnError(pgx.ErrNoRows)

	_, _, err := s.LatestSnapshot(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresStore_GetSnapshot_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(getSnapshotSQL)).WithArgs("gone").WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSnapshot(context.Background(), "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE EXTENSION IF NOT EXISTS postgis`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
