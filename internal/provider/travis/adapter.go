package travis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/pkg/logger"
)

// Kind is the provider kind implemented by this package
const Kind = "travis"

// Adapter implements the Provider interface for Travis CI
type Adapter struct {
	client *Client
	parser *LogParser
	config *Config
	logger *logger.Logger
}

// Config contains Travis connection settings
type Config struct {
	URL               string        `mapstructure:"url"`
	Repo              string        `mapstructure:"repo"`
	Branch            string        `mapstructure:"branch"`
	Token             string        `mapstructure:"token"`
	JobSlots          int           `mapstructure:"job_slots"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	TestPattern       string        `mapstructure:"test_pattern"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// DecodeConfig builds a Config from free-form provider options, e.g. the
// options block of the YAML configuration
func DecodeConfig(options map[string]interface{}) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("create options decoder: %w", err)
	}

	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("decode travis options: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the collector and payload cannot agree on
func (c *Config) Validate() error {
	if c.JobSlots < 0 {
		return fmt.Errorf("travis job_slots must not be negative, got %d", c.JobSlots)
	}
	return nil
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = "https://api.travis-ci.com"
	}
	if c.Repo == "" {
		c.Repo = "ray-project/ray"
	}
	if c.Branch == "" {
		c.Branch = "master"
	}
	if c.JobSlots == 0 {
		c.JobSlots = 4
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
	if c.TestPattern == "" {
		c.TestPattern = DefaultTestPattern
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// NewAdapter creates a new Travis adapter
func NewAdapter(cfg *Config, log *logger.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New("travis config cannot be nil")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	parser, err := NewLogParser(cfg.TestPattern)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		client: NewClient(cfg.URL, cfg.Token, cfg.RequestsPerSecond, cfg.Timeout, log),
		parser: parser,
		config: cfg,
		logger: log,
	}, nil
}

// Kind implements Provider.Kind
func (a *Adapter) Kind() string {
	return Kind
}

// ListBuilds implements Provider.ListBuilds
func (a *Adapter) ListBuilds(ctx context.Context, limit int) ([]models.Build, error) {
	log := logger.FromContext(ctx, a.logger)

	log.Debug("provider: listing builds",
		"repo", a.config.Repo,
		"branch", a.config.Branch,
		"limit", limit)

	builds, err := a.client.ListBuilds(ctx, a.config.Repo, a.config.Branch, limit)
	if err != nil {
		log.Error("provider: failed to list builds",
			"repo", a.config.Repo,
			"error", err)
		return nil, fmt.Errorf("list builds: %w", err)
	}

	out := make([]models.Build, 0, len(builds))
	for _, b := range builds {
		out = append(out, mapBuild(b, a.config.JobSlots))
	}

	log.Info("provider: builds listed",
		"repo", a.config.Repo,
		"count", len(out))

	return out, nil
}

// JobResults implements Provider.JobResults
func (a *Adapter) JobResults(ctx context.Context, jobID int64) ([]models.TestResult, error) {
	log := logger.FromContext(ctx, a.logger)

	text, err := a.client.JobLog(ctx, jobID)
	if err != nil {
		log.Error("provider: failed to fetch job log",
			"job_id", jobID,
			"error", err)
		return nil, fmt.Errorf("fetch job log %d: %w", jobID, err)
	}

	results := a.parser.Parse(text)

	log.Debug("provider: job log parsed",
		"job_id", jobID,
		"log_bytes", len(text),
		"tests", len(results))

	return results, nil
}

// HealthCheck verifies the configured repository is reachable
func (a *Adapter) HealthCheck(ctx context.Context) error {
	if _, err := a.client.GetRepository(ctx, a.config.Repo); err != nil {
		return fmt.Errorf("get repository %s: %w", a.config.Repo, err)
	}
	return nil
}
