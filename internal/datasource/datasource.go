// Package datasource defines where raw CSV bytes come from. The loader only
// ever sees an io.ReadCloser, so sources can be files today and object
// storage later without touching the pipeline.
package datasource

import (
	"context"
	"io"
)

// Source opens a raw byte stream for one load run.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
