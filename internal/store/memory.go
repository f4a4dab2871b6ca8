package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the in-process Store used when no DATABASE_URL is configured.
type Memory struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemory() *Memory {
	return &Memory{runs: make(map[string]Run)}
}

func (m *Memory) SaveRun(_ context.Context, run Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.runs[run.ID] = run
	return run.ID, nil
}

func (m *Memory) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (m *Memory) ListRuns(_ context.Context, instance string, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Run, 0, len(m.runs))
	for _, run := range m.runs {
		if instance == "" || run.Instance == instance {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) BestRun(_ context.Context, instance string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best Run
	found := false
	for _, run := range m.runs {
		if run.Instance != instance {
			continue
		}
		if !found || run.Cost < best.Cost {
			best = run
			found = true
		}
	}
	if !found {
		return Run{}, ErrNotFound
	}
	return best, nil
}
