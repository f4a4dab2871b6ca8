package store

import (
	"context"
	"errors"
	"time"
)

// Run is one completed solver run, kept for comparing parameter settings
// across batches of the same instance.
type Run struct {
	ID          string
	Instance    string
	Seed        int64
	Cost        float64
	Distance    float64
	AvgLoadRate float64
	Vehicles    int
	Iterations  int
	DurationSec float64
	Metrics     map[string]any
	CreatedAt   time.Time
}

// Store is the persistence interface used by the solver CLI.
type Store interface {
	SaveRun(ctx context.Context, run Run) (string, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, instance string, limit int) ([]Run, error)
	BestRun(ctx context.Context, instance string) (Run, error)
}

var ErrNotFound = errors.New("not found")
