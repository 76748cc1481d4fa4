// Package storage contains the storage-agnostic sink contract and the
// backend factory. Concrete backends (MySQL, Postgres, SQLite) live in
// subpackages and register themselves via Register; callers select one by
// kind without importing driver code directly.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"geoload/internal/record"
)

// SRID is the spatial reference identifier used for every geometry column:
// 4326, the standard longitude/latitude reference system. Backends bake it
// into their WKT-to-geometry conversion.
const SRID = 4326

// Repository is the minimal sink capability the loader needs: one atomic
// batch write per window. All rows of a window succeed or none do, from the
// store's perspective. Geometry fields arrive as WKT text and are converted
// to the native representation by the backend; this pipeline never builds
// binary geometry itself.
type Repository interface {
	// InsertWindow writes recs in a single transaction and returns the
	// number of rows inserted. An error means the whole window was rolled
	// back.
	InsertWindow(ctx context.Context, recs []*record.GeoRecord) (int64, error)

	// Close releases the underlying connection pool.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string // registered backend name, e.g. "mysql"
	DSN   string // driver connection string
	Table string // destination table name
}

// Factory constructs a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs a backend factory under kind. Backends call this from
// init(); duplicate registration is a programming error and panics.
func Register(kind string, fn Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("storage: backend %q registered twice", kind))
	}
	registry[kind] = fn
}

// New constructs the Repository selected by cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	registryMu.RLock()
	fn, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered backend names, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
