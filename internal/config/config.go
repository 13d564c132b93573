package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a claimscope run.
type Config struct {
	DSN        string // Supabase/Postgres DSN for saved markets and tags
	BaseURL    string // claims backend base URL
	SamplePath string // offline mode: Parquet fixture instead of BaseURL
	LogFormat  string // "text" or "json"
	TeamID     string
	Limit      int
	CacheTTL   time.Duration
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	BaseURL         string `yaml:"base_url"`
	TeamID          string `yaml:"team_id"`
	DefaultLimit    int    `yaml:"default_limit"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Flag-provided values win over file values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if c.BaseURL == "" {
		c.BaseURL = yc.BaseURL
	}
	if c.TeamID == "" {
		c.TeamID = yc.TeamID
	}
	if c.Limit == 0 {
		c.Limit = yc.DefaultLimit
	}
	if c.CacheTTL == 0 && yc.CacheTTLMinutes > 0 {
		c.CacheTTL = time.Duration(yc.CacheTTLMinutes) * time.Minute
	}
	return c.validate()
}

func (c *Config) validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.Limit)
	}
	return nil
}

// Validate checks that a query backend is configured.
func (c *Config) Validate() error {
	if c.BaseURL == "" && c.SamplePath == "" {
		return fmt.Errorf("--base-url or --sample is required")
	}
	if c.SamplePath != "" {
		if _, err := os.Stat(c.SamplePath); err != nil {
			return fmt.Errorf("sample file not accessible: %w", err)
		}
	}
	return nil
}

// ValidateWithDSN additionally requires the configuration database, needed
// for market and tag scopes.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or SUPABASE_DB_URL is required")
	}
	return nil
}
