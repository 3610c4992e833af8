package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/facility-watch/detention-cli/internal/store"
)

const defaultDBName = "facilities.db"

// initStore opens the configured run store. It returns store.ErrDisabled
// when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	sc := store.Config{
		Driver: cfg.Store.Driver,
		DSN:    cfg.Store.DSN,
	}
	switch strings.ToLower(sc.Driver) {
	case "", store.DriverSQLite:
		if sc.DSN == "" {
			dir := cfg.Output.Dir
			if dir == "" {
				dir = "."
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "create %s", dir)
			}
			sc.DSN = filepath.Join(dir, defaultDBName)
		}
	case store.DriverPostgres:
		sc.Pool = &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		}
	}
	return store.Open(ctx, sc)
}
