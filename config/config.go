// Package config provides configuration loading and management for the
// ELSST keyword checker.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete checker configuration
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Labels     LabelsConfig     `yaml:"labels"`
	Language   string           `yaml:"language"`
}

// RepositoryConfig configures the OAI-PMH metadata repository
type RepositoryConfig struct {
	// Endpoint is the GetRecord URL template the record identifier is appended to
	Endpoint string `yaml:"endpoint"`
	// Timeout is the hard ceiling for one record fetch
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent identifies the tool to the repository
	UserAgent string `yaml:"user_agent"`
}

// LabelsConfig configures the ELSST label lookup service
type LabelsConfig struct {
	// Endpoint is the topics API base URL
	Endpoint string `yaml:"endpoint"`
	// Timeout is the hard ceiling for one label lookup
	Timeout time.Duration `yaml:"timeout"`
	// CacheScope is "call" (rebuild per classification) or "instance"
	// (populate once and reuse for the life of the process)
	CacheScope string `yaml:"cache_scope"`
}

var languagePattern = regexp.MustCompile(`^[a-zA-Z]{2}$`)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Endpoint:  "https://datacatalogue.cessda.eu/oai-pmh/v0/oai?verb=GetRecord&metadataPrefix=oai_ddi25&identifier=",
			Timeout:   30 * time.Second,
			UserAgent: "elsstcheck",
		},
		Labels: LabelsConfig{
			Endpoint:   "https://skg-if-openapi.cessda.eu/api/topics",
			Timeout:    30 * time.Second,
			CacheScope: "call",
		},
		Language: "", // Derive from the catalogue URL
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Repository.Endpoint == "" {
		return fmt.Errorf("repository.endpoint is required")
	}
	if c.Repository.Timeout <= 0 {
		return fmt.Errorf("repository.timeout must be positive")
	}
	if c.Labels.Endpoint == "" {
		return fmt.Errorf("labels.endpoint is required")
	}
	if c.Labels.Timeout <= 0 {
		return fmt.Errorf("labels.timeout must be positive")
	}
	if c.Labels.CacheScope != "call" && c.Labels.CacheScope != "instance" {
		return fmt.Errorf("labels.cache_scope must be \"call\" or \"instance\"")
	}
	if c.Language != "" && !languagePattern.MatchString(c.Language) {
		return fmt.Errorf("language must be a two-letter code")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Repository
	if other.Repository.Endpoint != "" {
		c.Repository.Endpoint = other.Repository.Endpoint
	}
	if other.Repository.Timeout != 0 {
		c.Repository.Timeout = other.Repository.Timeout
	}
	if other.Repository.UserAgent != "" {
		c.Repository.UserAgent = other.Repository.UserAgent
	}

	// Labels
	if other.Labels.Endpoint != "" {
		c.Labels.Endpoint = other.Labels.Endpoint
	}
	if other.Labels.Timeout != 0 {
		c.Labels.Timeout = other.Labels.Timeout
	}
	if other.Labels.CacheScope != "" {
		c.Labels.CacheScope = other.Labels.CacheScope
	}

	// Language
	if other.Language != "" {
		c.Language = other.Language
	}
}
