// Package sqlsource loads grid records with database/sql.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnemet/reactgrid"
)

// PoolOptions tunes the underlying connection pool.
type PoolOptions struct {
	MaxConns    int
	IdleTimeout time.Duration
	MaxLifetime time.Duration
}

// Open opens and pings a database, tuning its pool.
func Open(driver, connStr string, opts PoolOptions) (*sql.DB, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
		db.SetMaxIdleConns(max(opts.MaxConns/2, 1))
	}
	if opts.MaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.MaxLifetime)
	}
	if opts.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(opts.IdleTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Source runs one query and turns its rows into records.
type Source struct {
	db    *sql.DB
	query string
	args  []interface{}
}

func New(db *sql.DB, query string, args ...interface{}) *Source {
	return &Source{db: db, query: query, args: args}
}

// Fetch runs the query and scans every row.
func (s *Source) Fetch(ctx context.Context) ([]reactgrid.Record, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched grid records", "records", len(records), "duration", time.Since(start))
	return records, nil
}

// Loader returns a grid loader running Fetch in the background.
func (s *Source) Loader(ctx context.Context) reactgrid.Loader {
	return reactgrid.AsyncLoader(ctx, "sql", s.Fetch)
}

func scanRows(rows *sql.Rows) ([]reactgrid.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []reactgrid.Record{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(reactgrid.Record, len(cols))
		for i, col := range cols {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
