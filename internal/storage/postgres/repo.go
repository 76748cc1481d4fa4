// Package postgres implements the geo sink on Postgres/PostGIS using pgx
// v5. Windows are written with multi-row INSERTs inside one transaction;
// WKT text is converted server-side by ST_GeomFromText at SRID 4326.
//
// COPY is deliberately not used here: it cannot route values through
// ST_GeomFromText, and this pipeline never constructs binary geometry
// client-side.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoload/internal/record"
	"geoload/internal/storage"
)

// maxRowsPerStmt keeps statements comfortably under Postgres's 65535 bind
// parameter limit (7 parameters per row). Chunked statements share one
// transaction, preserving window atomicity.
const maxRowsPerStmt = 5000

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // pgxpool connection string, e.g. "postgresql://..."
	Table string // possibly schema-qualified destination, e.g. "public.geo"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// InsertWindow writes the window in one transaction. Absent geometry binds
// as NULL; ST_GeomFromText(NULL, 4326) yields NULL, so the column stays
// NULL without special casing.
func (r *Repository) InsertWindow(ctx context.Context, recs []*record.GeoRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after Commit

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
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Detail != "" {
				return 0, fmt.Errorf("postgres: insert into %s: %s (%s)", r.cfg.Table, pgErr.Detail, pgErr.SQLState())
			}
			return 0, fmt.Errorf("postgres: insert into %s: %w", r.cfg.Table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return int64(len(recs)), nil
}

// insertSQL builds a multi-row INSERT for n rows using $n placeholders.
func insertSQL(table string, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgFQN(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(mapIdent(record.Columns), ","))
	b.WriteString(") VALUES ")

	arg := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,ST_GeomFromText($%d,%d),ST_GeomFromText($%d,%d))",
			arg, arg+1, arg+2, arg+3, arg+4, arg+5, storage.SRID, arg+6, storage.SRID)
		arg += len(record.Columns)
	}
	return b.String()
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.geo" to
// "public"."geo". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
