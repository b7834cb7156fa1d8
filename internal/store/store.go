// Package store persists collected builds and per-job test results.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lei/status-tracker/internal/models"
)

// ErrNotFound is returned when a build, job or timestamp has not been recorded
var ErrNotFound = errors.New("not found in store")

// Store is the persistence layer shared by the collector and the payload assembler
type Store interface {
	// SaveBuild records a build and adds its id to the known set
	SaveBuild(ctx context.Context, b models.Build) error

	// BuildIDs returns every known build id, newest (highest) first
	BuildIDs(ctx context.Context) ([]int64, error)

	// Build returns a recorded build or ErrNotFound
	Build(ctx context.Context, id int64) (models.Build, error)

	// SaveJobResults replaces the results recorded for a job
	SaveJobResults(ctx context.Context, jobID int64, results []models.TestResult) error

	// JobResults returns the results of a job or ErrNotFound
	JobResults(ctx context.Context, jobID int64) ([]models.TestResult, error)

	SetLastUpdated(ctx context.Context, t time.Time) error

	// LastUpdated returns the time of the last completed collection or ErrNotFound
	LastUpdated(ctx context.Context) (time.Time, error)

	Close() error
}

// Options selects and configures a driver
type Options struct {
	Driver    string
	RedisURL  string
	KeyPrefix string
}

// Open creates the store for the configured driver
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(opts.RedisURL, opts.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

func sortNewestFirst(ids []int64) []int64 {
	slices.SortFunc(ids, func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	})
	return ids
}
