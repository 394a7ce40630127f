package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Cache.Path)
	assert.Equal(t, 10000, cfg.Cache.PostCapacity)
	assert.Equal(t, 5000, cfg.Cache.UserCapacity)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.SweepMaxAge())
	assert.Equal(t, 2, cfg.Drafts.UploadWorkers)
	assert.Equal(t, 14*24*time.Hour, cfg.Drafts.FailedRetention())
}

func TestLoad_WritesDefaultFileWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// The commented default now exists and parses back.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cache.PostCapacity, again.Cache.PostCapacity)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `cache:
  path: "/tmp/test-cache.db"
  post_capacity: 500
remote:
  base_url: "http://localhost:9000"
drafts:
  upload_workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-cache.db", cfg.Cache.Path)
	assert.Equal(t, 500, cfg.Cache.PostCapacity)
	assert.Equal(t, "http://localhost:9000", cfg.Remote.BaseURL)
	assert.Equal(t, 4, cfg.Drafts.UploadWorkers)
	// Unset keys keep their defaults.
	assert.Equal(t, 5000, cfg.Cache.UserCapacity)
}

func TestLoad_ClampsNonsenseValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `cache:
  post_capacity: -5
drafts:
  upload_workers: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Cache.PostCapacity)
	assert.Equal(t, 2, cfg.Drafts.UploadWorkers)
}
