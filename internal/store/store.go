// Package store persists run history and facility snapshots.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/facility-watch/detention-cli/internal/model"
)

// Drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

var (
	// ErrNotFound is returned when a run does not exist or no run has been
	// stored yet.
	ErrNotFound = eris.New("store: not found")
	// ErrDisabled is returned by Open for the "none" driver.
	ErrDisabled = eris.New("store: disabled")
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Mode   model.RunMode `json:"mode,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// SaveOptions describes the run that produced a snapshot.
type SaveOptions struct {
	Mode     model.RunMode
	Enriched bool
}

// Store defines the persistence interface for pipeline runs.
type Store interface {
	// SaveSnapshot records a run and its snapshot and returns the new run.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot, opts SaveOptions) (*model.Run, error)
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	GetSnapshot(ctx context.Context, runID string) (*model.Snapshot, error)
	// LatestSnapshot returns the most recent run and its snapshot.
	LatestSnapshot(ctx context.Context) (*model.Run, *model.Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver string      `yaml:"driver" mapstructure:"driver"`
	DSN    string      `yaml:"dsn" mapstructure:"dsn"`
	Pool   *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open connects to the configured store and migrates it.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		s, err = NewSQLite(cfg.DSN)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DSN, cfg.Pool)
	case DriverNone:
		return nil, ErrDisabled
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newRun(id string, snap *model.Snapshot, opts SaveOptions) *model.Run {
	return &model.Run{
		ID:            id,
		Mode:          opts.Mode,
		Enriched:      opts.Enriched,
		FacilityCount: len(snap.Facilities),
		ScrapedDate:   snap.ScrapedDate.UTC(),
		ScrapeRuntime: snap.ScrapeRuntime,
		EnrichRuntime: snap.EnrichRuntime,
	}
}

func limitOf(filter RunFilter) int {
	if filter.Limit <= 0 {
		return 100
	}
	return filter.Limit
}
