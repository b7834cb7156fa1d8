package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lei/status-tracker/internal/api"
	"github.com/lei/status-tracker/internal/collector"
	"github.com/lei/status-tracker/internal/config"
	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/payload"
	"github.com/lei/status-tracker/internal/provider/travis"
	"github.com/lei/status-tracker/internal/service"
	"github.com/lei/status-tracker/internal/store"
	"github.com/lei/status-tracker/internal/upstream"
	"github.com/lei/status-tracker/pkg/logger"
)

// Configuration types, re-exported so embedding applications can build a
// Config without importing internal packages
type (
	Config          = config.Config
	ServerConfig    = config.ServerConfig
	SourceConfig    = config.SourceConfig
	MatrixConfig    = config.MatrixConfig
	ProviderConfig  = config.ProviderConfig
	StoreConfig     = config.StoreConfig
	CollectorConfig = config.CollectorConfig
	LoggingConfig   = config.LoggingConfig
)

// Tracker is a status tracker instance that can be embedded in applications
type Tracker struct {
	config    *Config
	store     store.Store
	collector *collector.Collector
	service   *service.Service
	router    http.Handler
	server    *http.Server
	logger    *logger.Logger
}

// New creates a tracker from cfg. Unset fields take their defaults.
func New(cfg *Config) (*Tracker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	return newTracker(cfg, logger.New(cfg.Logging.Level, cfg.Logging.Format))
}

// NewFromFile loads a YAML configuration file and creates a tracker from it
func NewFromFile(path string) (*Tracker, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return New(cfg)
}

func newTracker(cfg *Config, appLogger *logger.Logger) (*Tracker, error) {
	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	version, err := c.EncodingVersion()
	if err != nil {
		return nil, err
	}

	t := &Tracker{config: &c, logger: appLogger}

	var (
		source service.Source
		coll   service.Collector
		checks []service.HealthChecker
	)

	switch c.Source.Mode {
	case config.ModeRemote:
		source = upstream.NewClient(c.Source.UpstreamURL, c.Source.Timeout, appLogger)
		appLogger.Info("reading payload from upstream tracker", "url", c.Source.UpstreamURL)

	default:
		st, err := store.Open(store.Options{
			Driver:    c.Store.Driver,
			RedisURL:  c.Store.RedisURL,
			KeyPrefix: c.Store.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		t.store = st
		appLogger.Info("initialized store", "driver", c.Store.Driver)

		providerCfg, err := travis.DecodeConfig(c.Provider.Options)
		if err != nil {
			st.Close()
			return nil, err
		}
		prov, err := travis.NewAdapter(providerCfg, appLogger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("initialize travis provider: %w", err)
		}
		appLogger.Info("initialized travis provider",
			"url", providerCfg.URL,
			"repo", providerCfg.Repo,
			"branch", providerCfg.Branch)

		t.collector = collector.New(prov, st, collector.Options{
			BuildLimit:  c.Collector.BuildLimit,
			Concurrency: c.Collector.Concurrency,
			RunOnStart:  c.Collector.OnStart,
		}, appLogger)

		source = payload.New(st, payload.Options{
			Version: version,
			Window:  c.Matrix.Window,
			Slots:   providerCfg.JobSlots,
		}, appLogger)
		coll = t.collector
		checks = append(checks, prov)
	}

	t.service = service.NewService(source, coll, matrix.Options{
		Version:      version,
		LinkTemplate: c.Matrix.LinkTemplate,
		Variants:     c.Matrix.Variants,
	}, appLogger, checks...)

	handlers := api.NewHandlers(t.service)
	loggingMiddleware := api.NewLoggingMiddleware(appLogger)
	t.router = api.NewRouter(handlers, loggingMiddleware)

	t.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Server.Port),
		Handler:      t.router,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
	}

	return t, nil
}

// Start serves HTTP, and collects periodically when an interval is
// configured, until ctx is cancelled or the server fails
func (t *Tracker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if t.collector != nil && t.config.Collector.Interval > 0 {
		go t.collector.Run(ctx, t.config.Collector.Interval)
	}

	serverErrors := make(chan error, 1)

	go func() {
		t.logger.Info("starting http server", "port", t.config.Server.Port)
		serverErrors <- t.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		t.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := t.server.Shutdown(shutdownCtx); err != nil {
			t.server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		t.logger.Info("server stopped gracefully")
		return nil
	}
}

// Handler returns the http.Handler of the tracker, for mounting into an
// existing HTTP server
func (t *Tracker) Handler() http.Handler {
	return t.router
}

// Service returns the underlying service layer
func (t *Tracker) Service() *service.Service {
	return t.service
}

// Close releases the store connection
func (t *Tracker) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}
