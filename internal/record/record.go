// Package record defines the pipeline's unit of work and the preparer that
// maps raw delimited rows onto it.
package record

import "geoload/internal/geometry"

// Columns enumerates the destination table columns, in the order every sink
// expects window values.
var Columns = []string{"id", "pid", "deep", "name", "ext_path", "geo", "polygon"}

// RawRow is one unparsed source line: column name to raw text, plus the
// 1-based line number in the source file for diagnostics. RawRows are
// transient; one is produced per input line and discarded after preparation.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// GeoRecord is the normalized unit of work. It is constructed from one
// RawRow, consumed exactly once by the loader, then discarded; no identity
// is retained beyond the window it belongs to.
type GeoRecord struct {
	ID      int64
	PID     int64 // parent reference; referential integrity is not checked here
	Deep    int64
	Name    string
	ExtPath string
	Geo     *string // WKT POINT, nil when absent or invalid
	Polygon *string // WKT POLYGON, nil when absent or invalid
}

// Values returns the record fields aligned to Columns. Geometry fields are
// WKT text (or nil); converting them to native geometry is the sink's job.
func (r *GeoRecord) Values() []any {
	return []any{r.ID, r.PID, r.Deep, r.Name, r.ExtPath, r.Geo, r.Polygon}
}

// Rejection captures a row whose polygon field was present but failed
// normalization. Rejections are appended to the rejection sink and never
// block the load.
type Rejection struct {
	ID     int64
	Reason geometry.RejectReason
	Raw    string
}
