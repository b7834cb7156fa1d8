package provider

import (
	"context"

	"github.com/lei/status-tracker/internal/models"
)

// Provider abstracts the CI backend the collector reads from
type Provider interface {
	// ListBuilds returns the most recent builds of the tracked branch,
	// newest first, at most limit of them
	ListBuilds(ctx context.Context, limit int) ([]models.Build, error)

	// JobResults returns the test results recorded in one job's log.
	// A job without a usable log yields no results and no error.
	JobResults(ctx context.Context, jobID int64) ([]models.TestResult, error)

	// Kind names the provider ("travis", ...)
	Kind() string
}
