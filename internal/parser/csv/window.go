// Package csv implements a streaming, windowed reader for the delimited
// geo export format. It never buffers the whole file: rows are pulled in
// bounded windows sized by the caller, which also bounds peak memory and
// the blast radius of a single failed batch downstream.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"geoload/internal/record"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Options configures the reader. All fields are optional; sensible defaults
// are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical column names. Useful
	// when an export localizes or re-cases its headers.
	HeaderMap map[string]string

	// OnRowErr receives recoverable row errors (soft-drop): unparseable
	// lines and width mismatches. Such rows are skipped and counted, never
	// fatal.
	OnRowErr func(line int, err error)
}

// Reader streams a delimited source as bounded windows of raw rows. It is
// not safe for concurrent use; windows are meant to be consumed one at a
// time by a single loader.
type Reader struct {
	cr          *csv.Reader
	opt         Options
	columns     []string
	colIx       []int // colIx[target] = source index
	headerWidth int
	line        int
	done        bool
}

// NewReader wraps src and consumes its header line. columns names the
// canonical columns the pipeline needs; each must resolve through the
// (mapped, normalized) header or NewReader fails, since a missing required
// column makes every row uncoercible.
func NewReader(src io.Reader, columns []string, opt Options) (*Reader, error) {
	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1 // width enforced after read, as a soft failure

	r := &Reader{cr: cr, opt: opt, columns: columns}

	hdr, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	srcToIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if mapped, ok := opt.HeaderMap[h]; ok {
			h = mapped
		} else {
			h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		srcToIdx[h] = i
	}

	r.colIx = make([]int, len(columns))
	for t, target := range columns {
		si, ok := srcToIdx[target]
		if !ok {
			return nil, fmt.Errorf("source is missing required column %q", target)
		}
		r.colIx[t] = si
	}
	r.headerWidth = len(hdr)

	return r, nil
}

// NextWindow reads up to size rows and returns them along with the number
// of rows skipped due to recoverable parse failures. It returns io.EOF once
// the stream is exhausted and no rows remain. Any other error is an
// unrecoverable stream fault; rows read before the fault are discarded,
// matching the all-or-nothing read semantics of a window.
func (r *Reader) NextWindow(ctx context.Context, size int) ([]record.RawRow, int, error) {
	if size <= 0 {
		return nil, 0, fmt.Errorf("window size must be > 0")
	}
	if r.done {
		return nil, 0, io.EOF
	}

	rows := make([]record.RawRow, 0, size)
	skipped := 0

	for len(rows) < size {
		select {
		case <-ctx.Done():
			return nil, skipped, ctx.Err()
		default:
		}

		rec, err := r.read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// Malformed line: soft-drop and keep streaming.
				if r.opt.OnRowErr != nil {
					r.opt.OnRowErr(r.line, err)
				}
				skipped++
				continue
			}
			// Underlying reader fault: the stream cannot be trusted further.
			return nil, skipped, fmt.Errorf("line %d: read: %w", r.line, err)
		}

		if len(rec) != r.headerWidth {
			if r.opt.OnRowErr != nil {
				r.opt.OnRowErr(r.line, fmt.Errorf("expected %d fields, got %d", r.headerWidth, len(rec)))
			}
			skipped++
			continue
		}

		fields := make(map[string]string, len(r.columns))
		for t, col := range r.columns {
			v := rec[r.colIx[t]]
			if r.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			fields[col] = v
		}
		rows = append(rows, record.RawRow{Line: r.line, Fields: fields})
	}

	if len(rows) == 0 && skipped == 0 && r.done {
		return nil, 0, io.EOF
	}
	return rows, skipped, nil
}

// read wraps csv.Reader.Read with line accounting.
func (r *Reader) read() ([]string, error) {
	r.line++
	return r.cr.Read()
}
