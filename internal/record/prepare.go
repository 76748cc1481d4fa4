package record

import (
	"fmt"
	"strconv"
	"strings"

	"geoload/internal/geometry"
)

// Preparer maps one RawRow to a GeoRecord.
//
// Scalar coercion (id, pid, deep) is fatal for the row: on failure the row
// yields no record and the caller counts it failed. Geometry normalization
// is soft: an invalid point leaves Geo nil, and an invalid polygon leaves
// Polygon nil while emitting a Rejection, because the point and metadata may
// still be worth storing.
type Preparer struct {
	// OnDiscard, when set, receives the source line and the number of
	// polygon tokens silently dropped during normalization. Diagnostics
	// only; it never changes pass/fail outcomes.
	OnDiscard func(line, dropped int)
}

// Prepare converts row into a GeoRecord. The returned Rejection is non-nil
// when the polygon field was present but failed normalization. A non-nil
// error means the row is dropped entirely.
func (p Preparer) Prepare(row RawRow) (*GeoRecord, *Rejection, error) {
	id, err := coerceInt(row, "id")
	if err != nil {
		return nil, nil, err
	}
	pid, err := coerceInt(row, "pid")
	if err != nil {
		return nil, nil, err
	}
	deep, err := coerceInt(row, "deep")
	if err != nil {
		return nil, nil, err
	}

	rec := &GeoRecord{
		ID:      id,
		PID:     pid,
		Deep:    deep,
		Name:    row.Fields["name"],
		ExtPath: row.Fields["ext_path"],
	}

	if raw := strings.TrimSpace(row.Fields["geo"]); raw != "" {
		// Point failure is not rejection-worthy; the field just stays nil.
		if wkt, ok := geometry.NormalizePoint(raw); ok {
			rec.Geo = &wkt
		}
	}

	var rej *Rejection
	if raw := strings.TrimSpace(row.Fields["polygon"]); raw != "" {
		res := geometry.NormalizePolygon(raw)
		if res.Discarded > 0 && p.OnDiscard != nil {
			p.OnDiscard(row.Line, res.Discarded)
		}
		if res.OK {
			rec.Polygon = &res.WKT
		} else {
			rej = &Rejection{ID: id, Reason: res.Reason, Raw: raw}
		}
	}

	return rec, rej, nil
}

// coerceInt parses a required integer column. Missing and malformed values
// are reported identically; either way the row cannot be keyed.
func coerceInt(row RawRow, col string) (int64, error) {
	s := strings.TrimSpace(row.Fields[col])
	if s == "" {
		return 0, fmt.Errorf("line %d: column %s: empty value", row.Line, col)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %q is not an integer", row.Line, col, s)
	}
	return n, nil
}
