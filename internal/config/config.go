// Package config defines the canonical, JSON-serializable configuration model
// for a geo load job. It is intentionally small, explicit, and dependency-free
// so job files can be loaded from disk and passed through the program without
// additional glue code.
//
// Example (trimmed):
//
//	{
//	  "name":    "regions-2024",
//	  "source":  { "kind": "file", "file": { "path": "regions.csv" } },
//	  "parser":  { "options": { "comma": ",", "trim_space": true } },
//	  "storage": { "kind": "mysql", "db": { "dsn": "...", "table": "geo" } },
//	  "runtime": { "chunk_size": 50000 },
//	  "reject_log": "bad_polygons.csv"
//	}
package config

import "encoding/json"

// DefaultRejectLog is where failed polygons land when the job does not name
// its own rejection file.
const DefaultRejectLog = "bad_polygons.csv"

// Job describes one full load run in JSON. It is the top-level object
// decoded from a job file.
type Job struct {
	// Name identifies the run in logs and metrics labels.
	Name string `json:"name"`

	// Source describes where the CSV bytes come from.
	Source Source `json:"source"`

	// Parser configures how raw bytes are split into rows.
	Parser Parser `json:"parser"`

	// Storage describes where prepared records are written.
	Storage Storage `json:"storage"`

	// Runtime controls windowing.
	Runtime RuntimeConfig `json:"runtime"`

	// RejectLog is the path of the polygon rejection log. Empty means
	// DefaultRejectLog.
	RejectLog string `json:"reject_log"`
}

// RuntimeConfig controls window sizing.
type RuntimeConfig struct {
	// ChunkSize is the number of source rows per transaction window.
	// Zero selects the loader default.
	ChunkSize int `json:"chunk_size"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser configures the CSV reader. Options keys:
//
//	comma (string), trim_space (bool), header_map (object)
type Parser struct {
	Options Options `json:"options"`
}

// Storage selects the sink used to persist prepared records.
type Storage struct {
	// Kind selects the storage backend: "mysql", "postgres", or "sqlite".
	Kind string `json:"kind"`

	// DB configures the selected backend.
	DB DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// Table is the destination table name (schema-qualified for postgres,
	// e.g. "public.geo").
	Table string `json:"table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It performs only
// minimal type coercion and returns provided defaults when a key is absent
// or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
