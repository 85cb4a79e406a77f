package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
name: "commerce-test"
version: "0.0.1"
server:
  http:
    port: 8080
cache:
  default_ttl: 10m
`)

	cfg, err := NewLoader().LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "commerce-test", cfg.Name)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL.Std())

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.HTTP.Host)
	assert.Equal(t, 8, cfg.Catalog.ProductsPerPage)
	assert.Equal(t, 6, cfg.Catalog.LatestLimit)
	assert.Equal(t, "memory", cfg.Cache.Type)
}

// Entries written without a TTL stay until an invalidation evicts them; only
// an operator opting in to default_ttl changes that.
func TestDefaultTTLOffByDefault(t *testing.T) {
	assert.Zero(t, NewLoader().Defaults().Cache.DefaultTTL.Std())
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	path := writeConfig(t, `
name: "commerce-test"
version: "0.0.1"
server:
  http:
    port: 99999
`)

	_, err := NewLoader().LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingName(t *testing.T) {
	path := writeConfig(t, `
version: "0.0.1"
`)

	_, err := NewLoader().LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnparseableYAML(t *testing.T) {
	path := writeConfig(t, "name: [unclosed")

	_, err := NewLoader().LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().LoadFromFile(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestManagerFallsBackToDefaults(t *testing.T) {
	m := NewManager("")

	cfg := m.GetConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 5000, cfg.Server.HTTP.Port)
}
