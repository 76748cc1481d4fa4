package postgres

import (
	"strings"
	"testing"
)

func TestInsertSQLShape(t *testing.T) {
	t.Parallel()

	got := insertSQL("public.geo", 2)
	want := `INSERT INTO "public"."geo" ("id","pid","deep","name","ext_path","geo","polygon") VALUES ` +
		"($1,$2,$3,$4,$5,ST_GeomFromText($6,4326),ST_GeomFromText($7,4326))," +
		"($8,$9,$10,$11,$12,ST_GeomFromText($13,4326),ST_GeomFromText($14,4326))"
	if got != want {
		t.Fatalf("insertSQL:\n got %s\nwant %s", got, want)
	}
}

func TestInsertSQLParameterNumbering(t *testing.T) {
	t.Parallel()

	// The last placeholder of an n-row statement must be $7n.
	got := insertSQL("geo", 3)
	if !strings.Contains(got, "$21,4326))") {
		t.Fatalf("expected final parameter $21, got: %s", got)
	}
}

func TestPgFQN(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"geo":        `"geo"`,
		"public.geo": `"public"."geo"`,
		`we"ird`:     `"we""ird"`,
	}
	for in, want := range cases {
		if got := pgFQN(in); got != want {
			t.Errorf("pgFQN(%q) = %s, want %s", in, got, want)
		}
	}
}
