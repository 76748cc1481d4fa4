// Package sqlite implements a SQLite-backed geo sink using database/sql.
// SQLite has no spatial type, so WKT text is stored verbatim in the geo and
// polygon columns. The backend exists for local development and for tests
// that need a real transactional round trip without a database server; it
// is not the production target.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// cgo-free SQLite driver.
	_ "modernc.org/sqlite"

	"geoload/internal/record"
)

// Config holds SQLite repository configuration.
type Config struct {
	DSN   string // e.g. "file:geo.db?cache=shared" or ":memory:"
	Table string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and
// returns a Repository plus a close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// InsertWindow writes the window inside a single transaction using a
// prepared per-row INSERT; geometry columns receive the WKT text as-is.
func (r *Repository) InsertWindow(ctx context.Context, recs []*record.GeoRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(record.Columns)), ",")
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.cfg.Table,
		strings.Join(record.Columns, ", "),
		placeholders,
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Values()...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert id=%d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return int64(len(recs)), nil
}

// Exec executes an arbitrary SQL statement (typically DDL in tests).
func (r *Repository) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}
