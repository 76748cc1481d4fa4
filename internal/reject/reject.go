// Package reject persists records whose polygon geometry failed
// normalization. The sink is an append-only CSV-ish log so a later run can
// repair the source data; re-running a load against the same log must not
// duplicate lines, so every line carries a fingerprint checked on Append.
package reject

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/zeebo/xxh3"

	"geoload/internal/record"
)

// Sink appends rejected records to a log file, deduplicating by line
// fingerprint so repeated runs do not grow the file with identical entries.
type Sink struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	seen map[uint64]struct{}
	path string
}

// Open opens (or creates) the rejection log at path and loads fingerprints
// of existing lines. A log that cannot be scanned is not fatal; dedupe
// simply starts empty and the run proceeds.
func Open(path string) (*Sink, error) {
	seen := make(map[uint64]struct{})
	if prev, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(prev)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			seen[xxh3.HashString(sc.Text())] = struct{}{}
		}
		if err := sc.Err(); err != nil {
			log.Printf("reject: scan existing log %s: %v", path, err)
		}
		prev.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("reject: open %s: %w", path, err)
	}
	return &Sink{
		f:    f,
		w:    bufio.NewWriter(f),
		seen: seen,
		path: path,
	}, nil
}

// Append writes one rejection line unless an identical line is already in
// the log. Write failures are logged, never propagated; losing a rejection
// line must not abort the load.
func (s *Sink) Append(r record.Rejection) {
	line := fmt.Sprintf("%d,%s,%q", r.ID, r.Reason, r.Raw)
	key := xxh3.HashString(line)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}

	if _, err := fmt.Fprintln(s.w, line); err != nil {
		log.Printf("reject: append to %s: %v", s.path, err)
	}
}

// Flush forces buffered lines to disk. Called at window boundaries so a
// crash loses at most the current window's rejections.
func (s *Sink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		log.Printf("reject: flush %s: %v", s.path, err)
	}
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		log.Printf("reject: flush %s: %v", s.path, err)
	}
	return s.f.Close()
}
