// Package mysql implements the primary geo sink on MySQL using
// database/sql and multi-row INSERTs inside one transaction per window.
// WKT text is converted to native geometry server-side with
// ST_GeomFromText at SRID 4326, so the spatial index on the destination
// table works directly against what this loader writes.
//
// MySQL 5.7+ is assumed; large windows may additionally require raising
// max_allowed_packet on the server.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"geoload/internal/record"
	"geoload/internal/storage"
)

// maxRowsPerStmt bounds placeholders per statement well below MySQL's
// 65535 limit (7 placeholders per row). Statements beyond the first stay
// inside the same transaction, so window atomicity is preserved.
const maxRowsPerStmt = 5000

// Config holds MySQL repository configuration.
type Config struct {
	DSN   string // go-sql-driver DSN, e.g. "root:root@tcp(127.0.0.1:3307)/area_city_geo?charset=utf8mb4"
	Table string // destination table, e.g. "geo"
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a connection pool and verifies it with a short ping.
// The returned close function releases the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("mysql: table must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// InsertWindow writes the window in one transaction. Each row binds seven
// values; the two geometry values are WKT strings (or nil) passed through
// ST_GeomFromText, which yields NULL for a NULL argument, so absent
// geometry lands as SQL NULL without special casing.
func (r *Repository) InsertWindow(ctx context.Context, recs []*record.GeoRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	for start := 0; start < len(recs); start += maxRowsPerStmt {
		end := start + maxRowsPerStmt
		if end > len(recs) {
			end = len(recs)
		}
		chunk := recs[start:end]

		query := insertSQL(r.cfg.Table, len(chunk))
		args := make([]any, 0, len(chunk)*len(record.Columns))
		for _, rec := range chunk {
			args = append(args, rec.Values()...)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("mysql: insert %d rows into %s: %w", len(chunk), r.cfg.Table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return int64(len(recs)), nil
}

// insertSQL builds a multi-row INSERT for n rows.
func insertSQL(table string, n int) string {
	row := fmt.Sprintf(
		"(?,?,?,?,?,ST_GeomFromText(?,%d),ST_GeomFromText(?,%d))",
		storage.SRID, storage.SRID,
	)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(ident(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(identAll(record.Columns), ","))
	b.WriteString(") VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(row)
	}
	return b.String()
}

// ident quotes a single identifier segment with backticks.
func ident(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func identAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = ident(id)
	}
	return out
}
