package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/store"
	"github.com/lei/status-tracker/pkg/logger"
)

// Source modes
const (
	ModeLocal  = "local"  // payload assembled from the snapshot store
	ModeRemote = "remote" // payload fetched from an upstream tracker
)

// ProviderTravis is the only provider kind currently wired
const ProviderTravis = "travis"

// DefaultVariants labels the four job slots of a build, in slot order
var DefaultVariants = []string{"linux-py2", "linux-py3", "mac-py2", "mac-py3"}

// Config represents the tracker configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Source    SourceConfig    `yaml:"source"`
	Matrix    MatrixConfig    `yaml:"matrix"`
	Provider  ProviderConfig  `yaml:"provider"`
	Store     StoreConfig     `yaml:"store"`
	Collector CollectorConfig `yaml:"collector"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SourceConfig selects where the raw payload comes from
type SourceConfig struct {
	Mode        string        `yaml:"mode"`
	UpstreamURL string        `yaml:"upstream_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// MatrixConfig contains status matrix settings
type MatrixConfig struct {
	Encoding     string   `yaml:"encoding"` // v1 or v2
	LinkTemplate string   `yaml:"link_template"`
	Window       int      `yaml:"window"` // number of most recent builds shown
	Variants     []string `yaml:"variants"`
}

// ProviderConfig names the CI provider; Options are decoded by the provider
type ProviderConfig struct {
	Kind    string                 `yaml:"kind"`
	Options map[string]interface{} `yaml:"options"`
}

// StoreConfig contains snapshot store settings
type StoreConfig struct {
	Driver    string `yaml:"driver"`
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CollectorConfig contains collection settings
type CollectorConfig struct {
	Interval    time.Duration `yaml:"interval"` // 0 disables periodic collection
	Concurrency int           `yaml:"concurrency"`
	BuildLimit  int           `yaml:"build_limit"`
	OnStart     bool          `yaml:"on_start"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration bytes, expanding environment variables first
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Source.Mode == "" {
		c.Source.Mode = ModeLocal
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Matrix.Encoding == "" {
		c.Matrix.Encoding = matrix.V2.String()
	}
	if c.Matrix.LinkTemplate == "" {
		c.Matrix.LinkTemplate = matrix.DefaultLinkTemplate
	}
	if c.Matrix.Window == 0 {
		c.Matrix.Window = 10
	}
	if len(c.Matrix.Variants) == 0 {
		c.Matrix.Variants = append([]string(nil), DefaultVariants...)
	}
	if c.Provider.Kind == "" {
		c.Provider.Kind = ProviderTravis
	}
	if c.Store.Driver == "" {
		c.Store.Driver = store.DriverMemory
	}
	if c.Collector.Concurrency == 0 {
		c.Collector.Concurrency = 4
	}
	if c.Collector.BuildLimit == 0 {
		c.Collector.BuildLimit = 25
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// EncodingVersion returns the configured encoding version
func (c *Config) EncodingVersion() (matrix.EncodingVersion, error) {
	return matrix.ParseEncodingVersion(c.Matrix.Encoding)
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var err error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Source.Mode {
	case ModeLocal:
		if c.Provider.Kind != ProviderTravis {
			err = multierr.Append(err, fmt.Errorf("unsupported provider kind: %s", c.Provider.Kind))
		}
	case ModeRemote:
		if c.Source.UpstreamURL == "" {
			err = multierr.Append(err, errors.New("source.upstream_url is required in remote mode"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown source.mode %q", c.Source.Mode))
	}

	if _, encErr := c.EncodingVersion(); encErr != nil {
		err = multierr.Append(err, fmt.Errorf("matrix.encoding: %w", encErr))
	}
	if c.Matrix.Window < 0 {
		err = multierr.Append(err, fmt.Errorf("matrix.window must be positive, got %d", c.Matrix.Window))
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverRedis:
		if c.Store.RedisURL == "" {
			err = multierr.Append(err, errors.New("store.redis_url is required for the redis driver"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Collector.Interval < 0 {
		err = multierr.Append(err, errors.New("collector.interval cannot be negative"))
	}
	if c.Collector.Concurrency < 0 {
		err = multierr.Append(err, errors.New("collector.concurrency cannot be negative"))
	}

	if !logger.ValidLevel(c.Logging.Level) {
		err = multierr.Append(err, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		err = multierr.Append(err, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return err
}
