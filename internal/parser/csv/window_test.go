package csv

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"geoload/internal/record"
)

var testColumns = record.Columns

const sampleHeader = "id,pid,deep,name,ext_path,geo,polygon\n"

func newTestReader(t *testing.T, body string, opt Options) *Reader {
	t.Helper()
	r, err := NewReader(strings.NewReader(sampleHeader+body), testColumns, opt)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

func TestNextWindowBoundsWindows(t *testing.T) {
	t.Parallel()

	body := "1,0,1,a,pa,1 2,\n" +
		"2,0,1,b,pb,,\n" +
		"3,0,1,c,pc,,\n"
	r := newTestReader(t, body, Options{TrimSpace: true})
	ctx := context.Background()

	w1, skipped, err := r.NextWindow(ctx, 2)
	if err != nil || skipped != 0 || len(w1) != 2 {
		t.Fatalf("window 1 = (%d rows, %d skipped, %v)", len(w1), skipped, err)
	}
	if w1[0].Fields["id"] != "1" || w1[0].Line != 2 {
		t.Errorf("first row = %+v", w1[0])
	}

	w2, skipped, err := r.NextWindow(ctx, 2)
	if err != nil || skipped != 0 || len(w2) != 1 {
		t.Fatalf("window 2 = (%d rows, %d skipped, %v)", len(w2), skipped, err)
	}

	if _, _, err := r.NextWindow(ctx, 2); err != io.EOF {
		t.Fatalf("want io.EOF after exhaustion, got %v", err)
	}
}

func TestNextWindowSkipsBadRows(t *testing.T) {
	t.Parallel()

	// Row 3 has the wrong width and must be soft-dropped.
	body := "1,0,1,a,pa,,\n" +
		"2,0,1\n" +
		"3,0,1,c,pc,,\n"

	var reported []int
	r := newTestReader(t, body, Options{
		OnRowErr: func(line int, err error) { reported = append(reported, line) },
	})

	rows, skipped, err := r.NextWindow(context.Background(), 10)
	if err != nil {
		t.Fatalf("NextWindow: %v", err)
	}
	if len(rows) != 2 || skipped != 1 {
		t.Fatalf("got %d rows, %d skipped", len(rows), skipped)
	}
	if len(reported) != 1 || reported[0] != 3 {
		t.Errorf("OnRowErr lines = %v, want [3]", reported)
	}
}

func TestNewReaderHeaderMapping(t *testing.T) {
	t.Parallel()

	// BOM on the first cell, re-cased headers, and one renamed column.
	src := "\uFEFFID,Pid,DEEP,Name,Ext Path,location,polygon\n" +
		"5,1,2,x,a b,9 9,\n"
	r, err := NewReader(strings.NewReader(src), testColumns, Options{
		HeaderMap: map[string]string{"location": "geo"},
	})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	rows, _, err := r.NextWindow(context.Background(), 1)
	if err != nil || len(rows) != 1 {
		t.Fatalf("NextWindow = (%d rows, %v)", len(rows), err)
	}
	if rows[0].Fields["geo"] != "9 9" || rows[0].Fields["ext_path"] != "a b" {
		t.Errorf("fields = %v", rows[0].Fields)
	}
}

func TestNewReaderMissingColumn(t *testing.T) {
	t.Parallel()

	src := "id,pid,deep,name,ext_path,geo\nrow\n"
	if _, err := NewReader(strings.NewReader(src), testColumns, Options{}); err == nil {
		t.Fatal("expected error for missing polygon column")
	}
}

// failingReader returns a few good bytes then a permanent read fault, which
// must surface as a stream fault rather than a soft row skip.
type failingReader struct {
	data io.Reader
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.data.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func TestNextWindowStreamFault(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("disk gone")
	src := &failingReader{
		data: strings.NewReader(sampleHeader + "1,0,1,a,pa,,\n"),
		err:  wantErr,
	}
	r, err := NewReader(src, testColumns, Options{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	_, _, err = r.NextWindow(context.Background(), 10)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want stream fault %v, got %v", wantErr, err)
	}
}

func TestNextWindowContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestReader(t, "1,0,1,a,pa,,\n", Options{})
	if _, _, err := r.NextWindow(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
