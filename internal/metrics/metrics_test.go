package metrics

import (
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordRows(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("jobX", "loaded", 3)
	RecordRows("jobX", "loaded", 0) // should be ignored
	RecordRows("jobY", "failed", 5)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "geoload_records_total" || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=geoload_records_total, delta=3", c0)
	}
	if c0.labels["job"] != "jobX" || c0.labels["kind"] != "loaded" {
		t.Fatalf("counter[0] labels = %v; want job=jobX, kind=loaded", c0.labels)
	}

	c1 := fb.callsCounters[1]
	if c1.delta != 5 || c1.labels["kind"] != "failed" {
		t.Fatalf("counter[1] = %#v; want delta=5, kind=failed", c1)
	}
}

func TestRecordWindow(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordWindow("jobA", "committed", 2*time.Second)
	RecordWindow("jobA", "failed", 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 counter and 2 histogram calls, got %d/%d",
			len(fb.callsCounters), len(fb.callsHistograms))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "geoload_windows_total" || c0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=geoload_windows_total, delta=1", c0)
	}
	if c0.labels["status"] != "committed" {
		t.Fatalf("counter[0].labels[status]=%q; want committed", c0.labels["status"])
	}

	h0 := fb.callsHistograms[0]
	if h0.name != "geoload_window_duration_seconds" {
		t.Fatalf("hist[0].name=%q; want geoload_window_duration_seconds", h0.name)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	h1 := fb.callsHistograms[1]
	if h1.labels["status"] != "failed" {
		t.Fatalf("hist[1].labels[status]=%q; want failed", h1.labels["status"])
	}
	if h1.value < 1.5-0.001 || h1.value > 1.5+0.001 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
