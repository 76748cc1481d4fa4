// Package loader drives a bulk load: it pulls row windows from a source,
// prepares each row into a GeoRecord, and hands full windows to a storage
// repository. Each window is one transaction. A window that fails to write
// is counted and skipped; the run keeps going. A source that fails to read
// ends the run, keeping whatever windows already committed.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"geoload/internal/metrics"
	"geoload/internal/record"
	"geoload/internal/storage"
)

// DefaultChunkSize is the window size used when the config does not set one.
const DefaultChunkSize = 50000

// WindowReader yields successive windows of raw rows. It returns io.EOF
// once the source is exhausted; any other error is a stream fault.
type WindowReader interface {
	NextWindow(ctx context.Context, size int) ([]record.RawRow, int, error)
}

// RejectSink receives records whose polygon failed normalization.
type RejectSink interface {
	Append(record.Rejection)
	Flush()
}

// Config carries everything Run needs.
type Config struct {
	Job       string
	ChunkSize int
	Source    WindowReader
	Repo      storage.Repository
	Rejects   RejectSink
}

// RunStats summarizes one load run.
type RunStats struct {
	TotalRows   int64 // rows pulled from the source, including skipped ones
	SuccessRows int64 // rows committed to storage
	FailedRows  int64 // rows lost to coercion errors, skips, or window faults
	Rejected    int64 // polygons written to the rejection log
	Windows     int64 // windows attempted
	Start       time.Time
	Elapsed     time.Duration
}

// Throughput returns committed rows per second over the whole run.
func (s RunStats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.SuccessRows) / s.Elapsed.Seconds()
}

// Run executes the load until the source is exhausted or faults. The stats
// summary is always logged, even on abnormal termination, so partial loads
// remain accountable.
func Run(ctx context.Context, cfg Config) (RunStats, error) {
	if cfg.Source == nil || cfg.Repo == nil {
		return RunStats{}, errors.New("loader: source and repository are required")
	}
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	stats := RunStats{Start: time.Now()}
	defer func() {
		stats.Elapsed = time.Since(stats.Start)
		log.Printf("summary job=%s windows=%d total=%d ok=%d failed=%d rejected=%d elapsed=%s rps=%.0f",
			cfg.Job, stats.Windows, stats.TotalRows, stats.SuccessRows, stats.FailedRows,
			stats.Rejected, stats.Elapsed.Round(time.Millisecond), stats.Throughput())
		metrics.RecordRows(cfg.Job, "loaded", stats.SuccessRows)
		metrics.RecordRows(cfg.Job, "failed", stats.FailedRows)
		metrics.RecordRows(cfg.Job, "rejected_polygons", stats.Rejected)
	}()

	prep := record.Preparer{
		OnDiscard: func(line, dropped int) {
			log.Printf("prepare: line=%d dropped %d malformed polygon coordinate(s)", line, dropped)
		},
	}

	for {
		rows, skipped, err := cfg.Source.NextWindow(ctx, size)
		stats.TotalRows += int64(len(rows)) + int64(skipped)
		stats.FailedRows += int64(skipped)
		metrics.RecordRows(cfg.Job, "skipped_rows", int64(skipped))

		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			return stats, fmt.Errorf("loader: read window: %w", err)
		}

		if len(rows) > 0 {
			stats.Windows++
			ok, failed, rejected := loadWindow(ctx, cfg, prep, rows, stats.Windows)
			stats.SuccessRows += ok
			stats.FailedRows += failed
			stats.Rejected += rejected
		}

		if atEOF {
			return stats, nil
		}
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("loader: %w", err)
		}
	}
}

// loadWindow prepares one window and writes it in a single transaction.
// A write fault fails every candidate row of the window but not the run.
func loadWindow(ctx context.Context, cfg Config, prep record.Preparer, rows []record.RawRow, n int64) (ok, failed, rejected int64) {
	start := time.Now()

	recs := make([]*record.GeoRecord, 0, len(rows))
	var pending []record.Rejection
	for _, row := range rows {
		rec, rej, err := prep.Prepare(row)
		if err != nil {
			log.Printf("prepare: line=%d: %v", row.Line, err)
			failed++
			continue
		}
		if rej != nil {
			pending = append(pending, *rej)
		}
		recs = append(recs, rec)
	}

	status := "committed"
	if len(recs) > 0 {
		if _, err := cfg.Repo.InsertWindow(ctx, recs); err != nil {
			log.Printf("window=%d write failed, skipping %d rows: %v", n, len(recs), err)
			failed += int64(len(recs))
			recs = recs[:0]
			status = "failed"
		}
	}
	ok = int64(len(recs))

	// Rejections describe source data, not storage state, so they are kept
	// even when the window's write failed.
	if cfg.Rejects != nil {
		for _, rej := range pending {
			cfg.Rejects.Append(rej)
		}
		cfg.Rejects.Flush()
	}
	rejected = int64(len(pending))

	elapsed := time.Since(start)
	rps := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rps = float64(ok) / secs
	}
	log.Printf("window=%d ok=%d failed=%d rejected=%d elapsed=%s rps=%.0f",
		n, ok, failed, rejected, elapsed.Round(time.Millisecond), rps)
	metrics.RecordWindow(cfg.Job, status, elapsed)

	return ok, failed, rejected
}
