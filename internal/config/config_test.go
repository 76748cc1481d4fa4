package config

import (
	"encoding/json"
	"testing"
)

func TestDecodeJob(t *testing.T) {
	t.Parallel()

	raw := `{
		"name": "regions-2024",
		"source": { "kind": "file", "file": { "path": "regions.csv" } },
		"parser": { "options": { "comma": ";", "trim_space": true, "header_map": { "location": "geo" } } },
		"storage": { "kind": "mysql", "db": { "dsn": "user:pw@tcp(db:3306)/geo", "table": "geo" } },
		"runtime": { "chunk_size": 10000 },
		"reject_log": "rejects.csv"
	}`

	var j Job
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if j.Name != "regions-2024" || j.Source.File.Path != "regions.csv" {
		t.Fatalf("decoded job = %+v", j)
	}
	if got := j.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q, want ';'", got)
	}
	if !j.Parser.Options.Bool("trim_space", false) {
		t.Fatal("trim_space not decoded")
	}
	if got := j.Parser.Options.StringMap("header_map"); got["location"] != "geo" {
		t.Fatalf("header_map = %v", got)
	}
	if j.Runtime.ChunkSize != 10000 || j.RejectLog != "rejects.csv" {
		t.Fatalf("runtime/reject_log = %+v / %q", j.Runtime, j.RejectLog)
	}
}

func TestOptionsDefaults(t *testing.T) {
	t.Parallel()

	o := Options{"n": float64(3), "s": "x", "b": true, "wrong": 12}
	if got := o.Int("n", 0); got != 3 {
		t.Errorf("Int(n) = %d, want 3", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %d, want default 7", got)
	}
	if got := o.String("s", ""); got != "x" {
		t.Errorf("String(s) = %q", got)
	}
	if got := o.String("wrong", "d"); got != "d" {
		t.Errorf("String(wrong) = %q, want default", got)
	}
	if !o.Bool("b", false) {
		t.Error("Bool(b) = false")
	}
	if got := o.Rune("missing", '\t'); got != '\t' {
		t.Errorf("Rune(missing) = %q, want tab default", got)
	}
}

func TestOptionsNullDecodesEmpty(t *testing.T) {
	t.Parallel()

	var p Parser
	if err := json.Unmarshal([]byte(`{"options": null}`), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Options == nil {
		t.Fatal("Options is nil; want empty map")
	}
	// Accessors must be safe on the empty map.
	if got := p.Options.Rune("comma", ','); got != ',' {
		t.Fatalf("Rune on empty options = %q", got)
	}
}
