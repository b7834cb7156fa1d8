package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/lei/status-tracker/internal/collector"
	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/pkg/logger"
)

// ErrCollectorDisabled is returned by Collect when the service reads from a remote tracker
var ErrCollectorDisabled = errors.New("collector not configured")

// Source supplies payload snapshots and the time they were last refreshed
type Source interface {
	Payload(ctx context.Context) (*models.Payload, error)
	LastUpdated(ctx context.Context) (time.Time, error)
}

// Collector runs a collection pass
type Collector interface {
	Collect(ctx context.Context) (*collector.Summary, error)
}

// HealthChecker is implemented by components that can report reachability
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Service coordinates the payload source, the matrix renderer and the collector
type Service struct {
	source    Source
	collector Collector
	checks    []HealthChecker
	render    matrix.Options
	logger    *logger.Logger
}

// NewService creates a new service instance. coll may be nil.
func NewService(source Source, coll Collector, render matrix.Options, log *logger.Logger, checks ...HealthChecker) *Service {
	return &Service{
		source:    source,
		collector: coll,
		checks:    checks,
		render:    render,
		logger:    log,
	}
}

// Payload returns the raw payload of the source
func (s *Service) Payload(ctx context.Context) (*models.Payload, error) {
	log := logger.FromContext(ctx, s.logger)

	p, err := s.source.Payload(ctx)
	if err != nil {
		log.Warn("service: failed to fetch payload", "error", err)
		return nil, fmt.Errorf("fetch payload: %w", err)
	}
	return p, nil
}

// LastUpdated returns when the source data was last refreshed
func (s *Service) LastUpdated(ctx context.Context) (time.Time, error) {
	t, err := s.source.LastUpdated(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch last updated: %w", err)
	}
	return t, nil
}

// Table renders the current payload into the ranked table.
// A missing last-updated stamp only leaves Table.LastUpdated empty.
func (s *Service) Table(ctx context.Context) (*models.Table, error) {
	log := logger.FromContext(ctx, s.logger)

	p, err := s.Payload(ctx)
	if err != nil {
		return nil, err
	}

	table, err := matrix.Render(p, s.render)
	if err != nil {
		log.Error("service: payload violates contract",
			"encoding", s.render.Version.String(),
			"rows", len(p.Index),
			"error", err)
		return nil, fmt.Errorf("render table: %w", err)
	}

	if t, err := s.source.LastUpdated(ctx); err != nil {
		log.Info("service: last updated unavailable", "error", err)
	} else {
		table.LastUpdated = &t
	}

	log.Debug("service: table rendered",
		"columns", len(table.Columns),
		"rows", len(table.Rows))

	return table, nil
}

// Collect runs one collection pass
func (s *Service) Collect(ctx context.Context) (*collector.Summary, error) {
	if s.collector == nil {
		return nil, ErrCollectorDisabled
	}

	log := logger.FromContext(ctx, s.logger)
	log.Info("service: collection requested")

	summary, err := s.collector.Collect(ctx)
	if err != nil {
		log.Error("service: collection failed", "error", err)
		return nil, fmt.Errorf("collect: %w", err)
	}
	return summary, nil
}

// HealthCheck runs every registered check and joins their failures
func (s *Service) HealthCheck(ctx context.Context) error {
	var err error
	for _, c := range s.checks {
		err = multierr.Append(err, c.HealthCheck(ctx))
	}
	return err
}
