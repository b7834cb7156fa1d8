package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lei/status-tracker/internal/models"
)

// Memory is a process-local Store
type Memory struct {
	mu          sync.RWMutex
	builds      map[int64]models.Build
	jobs        map[int64][]models.TestResult
	lastUpdated time.Time
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		builds: make(map[int64]models.Build),
		jobs:   make(map[int64][]models.TestResult),
	}
}

func (m *Memory) SaveBuild(_ context.Context, b models.Build) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b.JobIDs = slices.Clone(b.JobIDs)
	m.builds[b.ID] = b
	return nil
}

func (m *Memory) BuildIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.builds))
	for id := range m.builds {
		ids = append(ids, id)
	}
	return sortNewestFirst(ids), nil
}

func (m *Memory) Build(_ context.Context, id int64) (models.Build, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.builds[id]
	if !ok {
		return models.Build{}, ErrNotFound
	}
	b.JobIDs = slices.Clone(b.JobIDs)
	return b, nil
}

func (m *Memory) SaveJobResults(_ context.Context, jobID int64, results []models.TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if results == nil {
		results = []models.TestResult{}
	}
	m.jobs[jobID] = slices.Clone(results)
	return nil
}

func (m *Memory) JobResults(_ context.Context, jobID int64) ([]models.TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(results), nil
}

func (m *Memory) SetLastUpdated(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUpdated = t
	return nil
}

func (m *Memory) LastUpdated(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastUpdated.IsZero() {
		return time.Time{}, ErrNotFound
	}
	return m.lastUpdated, nil
}

func (m *Memory) Close() error {
	return nil
}
