// Package config provides configuration models and helpers for load jobs.
//
// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "parser.options.comma"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is severity error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers decide whether to treat warnings as fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "name",
			Message:  "name must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateParser(j.Parser)...)
	issues = append(issues, validateStorage(j.Storage)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings, for forward compatibility.
	known := map[string]struct{}{
		"file": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	}

	return issues
}

// validateParser validates parser options.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if comma := p.Options.String("comma", ","); len([]rune(comma)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}

	return issues
}

// validateStorage validates storage configuration and DB settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"mysql":    {},
		"postgres": {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ChunkSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.chunk_size",
			Message:  "chunk_size must not be negative",
		})
	}
	if r.ChunkSize > 0 && r.ChunkSize < 100 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.chunk_size",
			Message:  fmt.Sprintf("chunk_size=%d; very small windows trade throughput for little gain", r.ChunkSize),
		})
	}

	return issues
}
