// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local data source bound to the provided path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path reports the configured path, for startup logging.
func (l *Local) Path() string { return l.path }

// Size reports the file size in bytes, or -1 when the file cannot be
// stat'ed. Informational only; Open reports the real error.
func (l *Local) Size() int64 {
	fi, err := os.Stat(l.path)
	if err != nil {
		return -1
	}
	return fi.Size()
}

// Open opens the configured path for reading. A context that is already
// canceled short-circuits without touching the filesystem. Filesystem
// errors are wrapped with the path but stay visible to errors.Is, so
// callers can still test for os.ErrNotExist.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
