package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Contains(t, cfg.Repository.Endpoint, "verb=GetRecord")
	assert.Equal(t, 30*time.Second, cfg.Repository.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Labels.Timeout)
	assert.Equal(t, "call", cfg.Labels.CacheScope)
	assert.Empty(t, cfg.Language)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing repository endpoint",
			mutate:  func(c *Config) { c.Repository.Endpoint = "" },
			wantErr: true,
		},
		{
			name:    "non-positive repository timeout",
			mutate:  func(c *Config) { c.Repository.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing labels endpoint",
			mutate:  func(c *Config) { c.Labels.Endpoint = "" },
			wantErr: true,
		},
		{
			name:    "unknown cache scope",
			mutate:  func(c *Config) { c.Labels.CacheScope = "forever" },
			wantErr: true,
		},
		{
			name:   "instance cache scope accepted",
			mutate: func(c *Config) { c.Labels.CacheScope = "instance" },
		},
		{
			name:   "two-letter language accepted",
			mutate: func(c *Config) { c.Language = "en" },
		},
		{
			name:    "three-letter language rejected",
			mutate:  func(c *Config) { c.Language = "eng" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Repository: RepositoryConfig{
			Endpoint: "https://repo.example.org/oai?identifier=",
		},
		Labels: LabelsConfig{
			CacheScope: "instance",
		},
		Language: "de",
	})

	assert.Equal(t, "https://repo.example.org/oai?identifier=", base.Repository.Endpoint)
	assert.Equal(t, "instance", base.Labels.CacheScope)
	assert.Equal(t, "de", base.Language)

	// Unset fields keep their defaults.
	assert.Equal(t, 30*time.Second, base.Repository.Timeout)
	assert.Contains(t, base.Labels.Endpoint, "skg-if-openapi")
}

func TestMerge_Nil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elsstcheck.yaml")
	content := `
repository:
  endpoint: https://repo.example.org/oai?identifier=
  timeout: 10s
labels:
  cache_scope: instance
language: sv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://repo.example.org/oai?identifier=", cfg.Repository.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Repository.Timeout)
	assert.Equal(t, "instance", cfg.Labels.CacheScope)
	assert.Equal(t, "sv", cfg.Language)

	// Unset fields fall back to defaults.
	assert.Contains(t, cfg.Labels.Endpoint, "skg-if-openapi")
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repository: ["), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Language = "no"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "no", loaded.Language)
}
