package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gyeh/mrfscan/internal/model"

	"gopkg.in/yaml.v3"
)

// CityState identifies one discovery target.
type CityState struct {
	City  string `yaml:"city"`
	State string `yaml:"state"`
}

// Config holds all runtime configuration for a mrfscan run. Loaded
// once before the pipeline starts and treated as immutable.
type Config struct {
	// Flag-backed fields.
	DSN         string
	ParquetPath string
	LogFormat   string // "text" or "json"
	DryRun      bool
	Workers     int

	// YAML-backed fields.
	Cities         []CityState       `yaml:"cities"`
	LocationAPIURL string            `yaml:"location_api_url"`
	ProviderAPIURL string            `yaml:"provider_api_url"`
	PageSize       int               `yaml:"page_size"`

	RequestDelaySeconds float64 `yaml:"request_delay_seconds"`
	MaxAttempts         int     `yaml:"max_attempts"`
	HTTPTimeoutSeconds  float64 `yaml:"http_timeout_seconds"`
	StallTimeoutSeconds float64 `yaml:"stall_timeout_seconds"`

	CodeTypes             []string          `yaml:"code_types"` // subset of AllCodeTypes to emit
	CodeTypeNormalization map[string]string `yaml:"code_type_normalization"`
	Modifiers             map[string]string `yaml:"modifiers"`
}

// LoadFromFile reads a YAML config file and merges its values into
// Config. A load or validation failure here is fatal to the run: with
// no tables no record can ever be classified.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return c.applyDefaults()
}

// LoadOptional is LoadFromFile for commands that can run without a
// config file. A missing file falls back to built-in defaults; any
// other read or parse failure is still an error.
func (c *Config) LoadOptional(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.applyDefaults()
	}
	return c.LoadFromFile(path)
}

func (c *Config) applyDefaults() error {
	if c.PageSize <= 0 {
		c.PageSize = 100
	}
	if c.RequestDelaySeconds <= 0 {
		c.RequestDelaySeconds = 1.0
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = 120
	}
	if c.StallTimeoutSeconds <= 0 {
		c.StallTimeoutSeconds = 120
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c.validateCodeTypes()
}

// validateCodeTypes checks that every entry in CodeTypes is a known
// canonical name. Empty defaults to all of them.
func (c *Config) validateCodeTypes() error {
	if len(c.CodeTypes) == 0 {
		c.CodeTypes = model.CodeTypeNames()
		return nil
	}
	for _, name := range c.CodeTypes {
		if _, ok := model.CodeTypeByName(name); !ok {
			return fmt.Errorf("unknown code type %q in config", name)
		}
	}
	return nil
}

// RequestDelay returns the minimum delay between request starts.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds * float64(time.Second))
}

// HTTPTimeout returns the per-call HTTP timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds * float64(time.Second))
}

// StallTimeout returns the per-chunk stall timeout for MRF streams.
func (c *Config) StallTimeout() time.Duration {
	return time.Duration(c.StallTimeoutSeconds * float64(time.Second))
}

// ValidateDiscovery checks the fields the discovery service needs.
func (c *Config) ValidateDiscovery() error {
	if len(c.Cities) == 0 {
		return fmt.Errorf("no cities configured")
	}
	for _, cs := range c.Cities {
		if cs.City == "" || cs.State == "" {
			return fmt.Errorf("city entry missing city or state: %+v", cs)
		}
	}
	if c.LocationAPIURL == "" {
		return fmt.Errorf("location_api_url is required")
	}
	if c.ProviderAPIURL == "" {
		return fmt.Errorf("provider_api_url is required")
	}
	return nil
}

// ValidateSink checks that exactly the configured sink is usable.
func (c *Config) ValidateSink() error {
	if c.DryRun {
		return nil
	}
	if c.DSN == "" && c.ParquetPath == "" {
		return fmt.Errorf("--dsn or --parquet is required (or --dry-run)")
	}
	return nil
}
