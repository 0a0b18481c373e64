// Package store persists extraction results: a Postgres repository for
// run summaries and holdings rows, and a DuckDB loader for ad-hoc
// analysis over the emitted CSVs.
package store

import (
	"context"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"holdings_pipeline/pkg/core/errs"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the shared connection pool from the DATABASE_URL
// environment variable. Safe to call more than once; only the first
// call connects.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = errs.NewConfigf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = errs.Wrap(parseErr, "parse database config")
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the shared connection pool, nil before InitDB.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
