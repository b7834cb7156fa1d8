package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/store"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ModeLocal, cfg.Source.Mode)
	assert.Equal(t, "v2", cfg.Matrix.Encoding)
	assert.Equal(t, 10, cfg.Matrix.Window)
	assert.Equal(t, DefaultVariants, cfg.Matrix.Variants)
	assert.Equal(t, matrix.DefaultLinkTemplate, cfg.Matrix.LinkTemplate)
	assert.Equal(t, ProviderTravis, cfg.Provider.Kind)
	assert.Equal(t, store.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Collector.Concurrency)
	assert.Equal(t, 25, cfg.Collector.BuildLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TRACKER_TEST_REDIS", "redis://localhost:6379/2")
	t.Setenv("TRACKER_TEST_TOKEN", "secret")

	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  read_timeout: 5s
matrix:
  encoding: v1
  window: 5
provider:
  kind: travis
  options:
    repo: ray-project/ray
    token: ${TRACKER_TEST_TOKEN}
store:
  driver: redis
  redis_url: ${TRACKER_TEST_REDIS}
collector:
  interval: 10m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Store.RedisURL)
	assert.Equal(t, "secret", cfg.Provider.Options["token"])
	assert.Equal(t, 10*time.Minute, cfg.Collector.Interval)

	v, err := cfg.EncodingVersion()
	require.NoError(t, err)
	assert.Equal(t, matrix.V1, v)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Source.Mode = ModeRemote
	cfg.Matrix.Encoding = "v9"
	cfg.Store.Driver = store.DriverRedis
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "upstream_url")
	assert.Contains(t, err.Error(), "matrix.encoding")
	assert.Contains(t, err.Error(), "redis_url")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_UnknownModeAndProvider(t *testing.T) {
	cfg := Default()
	cfg.Provider.Kind = "jenkins"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Source.Mode = "hybrid"
	require.Error(t, cfg.Validate())
}

func TestValidate_StoreDriversOpen(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	// every driver the config accepts is one store.Open knows
	s, err := store.Open(store.Options{Driver: cfg.Store.Driver})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	cfg.Store.Driver = store.DriverRedis
	cfg.Store.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())

	cfg.Store.Driver = "etcd"
	assert.Error(t, cfg.Validate())
}
