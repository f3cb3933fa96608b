// Package store keeps a manifest of generation results.
package store

import (
	"context"
	"time"
)

// Record is one generation outcome as written to the manifest.
type Record struct {
	ID       string
	RunID    string
	Kind     string
	Job      string
	Success  bool
	Message  string
	Filename string
	Units    string
	Fields   map[string]string
	Warnings int
	Duration time.Duration

	// CreatedAt is set by the store.
	CreatedAt time.Time
}

// ListParams filters manifest rows. Zero fields match everything.
type ListParams struct {
	RunID      string
	Kind       string
	FailedOnly bool
	Limit      int
}

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Warnings  int
	StartedAt time.Time
}

// Store defines the manifest interface.
type Store interface {
	// Put appends a record, assigning its ID and CreatedAt.
	Put(ctx context.Context, r Record) (*Record, error)

	// Get returns the record with the given ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records newest first.
	List(ctx context.Context, p ListParams) ([]Record, error)

	// Runs summarizes the most recent runs.
	Runs(ctx context.Context, limit int) ([]RunSummary, error)

	// NewRunID returns a fresh, time-ordered run identifier.
	NewRunID() string

	Close() error
}
