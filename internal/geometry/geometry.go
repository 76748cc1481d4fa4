// Package geometry builds well-known-text (WKT) POINT and POLYGON values
// from the raw coordinate text found in administrative-area exports. The
// cleanup rules are deliberately tolerant (bracket stripping, ring
// auto-closure) so that messy upstream data is salvaged where possible,
// while vertex-count floors guarantee the output is always a syntactically
// valid ring. No topological checks (self-intersection, winding order) are
// performed here; the database decides what it will accept.
package geometry

import (
	"math"
	"strconv"
	"strings"
)

// RejectReason classifies why a polygon failed normalization. Values are
// stable identifiers written to the rejection log.
type RejectReason string

const (
	// ReasonMissingVertices: fewer than 3 coordinates survived validation.
	ReasonMissingVertices RejectReason = "missing-vertices"
	// ReasonUnclosedRing: fewer than 4 coordinates remain after auto-closing
	// the ring (a duplicated start/end pair does not add a vertex).
	ReasonUnclosedRing RejectReason = "unclosed-after-padding"
	// ReasonMalformedCoordinate: every candidate token failed coordinate
	// validation, leaving nothing to build a ring from.
	ReasonMalformedCoordinate RejectReason = "malformed-coordinate"
)

// ValidCoordinate reports whether token holds exactly two
// whitespace-separated components that both parse as finite floating-point
// numbers. Any other shape (extra tokens, non-numeric text, empty string,
// NaN/Inf) is false. Parse failure is a boolean outcome, never a panic.
func ValidCoordinate(token string) bool {
	parts := strings.Fields(token)
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// NormalizePoint converts a raw "<x> <y>" string into a WKT POINT. It
// returns ("", false) when the input is empty or fails coordinate
// validation. The coordinate text is kept as-is (trimmed); numeric
// precision is never reformatted.
func NormalizePoint(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !ValidCoordinate(s) {
		return "", false
	}
	return "POINT(" + s + ")", true
}

// PolygonResult is the outcome of NormalizePolygon.
type PolygonResult struct {
	// WKT is the normalized POLYGON string; empty unless OK.
	WKT string
	// OK reports whether a valid ring was produced.
	OK bool
	// Reason is set when OK is false and the input was non-empty.
	Reason RejectReason
	// Discarded counts candidate tokens dropped by coordinate validation.
	// Discards never fail the operation on their own; the count is exposed
	// for diagnostics only.
	Discarded int
}

// bracket grouping in raw polygon text carries no semantic meaning for
// this format and is stripped wholesale before tokenizing.
var bracketStripper = strings.NewReplacer("(", "", ")", "", "[", "", "]", "")

// NormalizePolygon converts raw comma-separated "x y" coordinate text,
// optionally wrapped in bracket characters, into a WKT POLYGON ring.
//
// Processing order: strip all ()[] characters, split on comma, trim each
// token, keep only tokens passing ValidCoordinate, auto-close the ring when
// the first and last surviving tokens are not character-identical, then
// enforce the vertex floors (>= 3 before closing, >= 4 after). Surviving
// coordinates are joined back verbatim; numeric text is never reformatted.
//
// Known sharp edge: because brackets are stripped indiscriminately, feeding
// an already-normalized WKT polygon back through this function consumes the
// WKT's own parentheses and leaves the "POLYGON" keyword glued to the first
// vertex, which then fails validation and is discarded. The result is a
// ring built from the remaining vertices, not a faithful round-trip. This
// mirrors the upstream export tooling and is kept intentionally; callers
// must not re-normalize WKT output.
func NormalizePolygon(raw string) PolygonResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return PolygonResult{}
	}
	s = bracketStripper.Replace(s)

	var coords []string
	discarded := 0
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if !ValidCoordinate(tok) {
			discarded++
			continue
		}
		coords = append(coords, tok)
	}

	if len(coords) < 3 {
		reason := ReasonMissingVertices
		if len(coords) == 0 && discarded > 0 {
			reason = ReasonMalformedCoordinate
		}
		return PolygonResult{Reason: reason, Discarded: discarded}
	}

	// A polygon is a closed ring; open input is a common and recoverable
	// operator error, so the first vertex is re-appended when needed.
	if coords[0] != coords[len(coords)-1] {
		coords = append(coords, coords[0])
	}
	if len(coords) < 4 {
		return PolygonResult{Reason: ReasonUnclosedRing, Discarded: discarded}
	}

	return PolygonResult{
		WKT:       "POLYGON((" + strings.Join(coords, ",") + "))",
		OK:        true,
		Discarded: discarded,
	}
}
