package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		prepare     func(t *testing.T) string // returns path to open
		makeCtx     func() context.Context
		wantErrIs   error
		wantContent string
	}{
		{
			name: "success_reads_content",
			prepare: func(t *testing.T) string {
				t.Helper()
				p := filepath.Join(t.TempDir(), "data.csv")
				if err := os.WriteFile(p, []byte("id,name\n1,a\n"), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
				return p
			},
			makeCtx:     context.Background,
			wantContent: "id,name\n1,a\n",
		},
		{
			name: "missing_file_errors_with_wrapping",
			prepare: func(t *testing.T) string {
				t.Helper()
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			makeCtx:   context.Background,
			wantErrIs: os.ErrNotExist,
		},
		{
			name: "pre_canceled_context_short_circuits",
			prepare: func(t *testing.T) string {
				t.Helper()
				p := filepath.Join(t.TempDir(), "data.csv")
				if err := os.WriteFile(p, []byte("ignored"), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
				return p
			},
			makeCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			path := c.prepare(t)
			rc, err := NewLocal(path).Open(c.makeCtx())

			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if rc != nil {
					rc.Close()
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("reading: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
		})
	}
}

func TestLocalSize(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("12345"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	if got := NewLocal(p).Size(); got != 5 {
		t.Fatalf("Size = %d, want 5", got)
	}
	if got := NewLocal(p + ".gone").Size(); got != -1 {
		t.Fatalf("Size of missing file = %d, want -1", got)
	}
}
