package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFields is the field set exported when none is configured.
var DefaultFields = []string{"U", "k", "nut", "omega", "p", "phi"}

// DefaultVectorFields lists the fields treated as 3-component vectors.
// Everything not listed is parsed as a scalar field.
var DefaultVectorFields = []string{"U"}

// HistoryConfig represents run-history store configuration
type HistoryConfig struct {
	// Enabled turns run-history recording on or off
	Enabled bool `yaml:"enabled"`

	// DBPath is the path of the history database; empty means
	// history.db inside the export output root
	DBPath string `yaml:"db_path"`
}

// Config represents foamcsv configuration options
type Config struct {
	// Fields are the field names to export from each time directory
	Fields []string `yaml:"fields"`

	// VectorFields are the fields parsed with vector arity
	VectorFields []string `yaml:"vector_fields"`

	// OutDir is the output root for CSVs; empty means a sibling
	// directory named <case>_csv
	OutDir string `yaml:"out_dir"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// MaxConcurrency is the maximum number of parallel field conversions
	// (0 or 1 = serial)
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout is the maximum run time (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// History contains run-history store configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Fields:         append([]string(nil), DefaultFields...),
		VectorFields:   append([]string(nil), DefaultVectorFields...),
		OutDir:         "",
		LogLevel:       "info",
		MaxConcurrency: 0,
		Timeout:        0,
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Temporary struct so the timeout can be given as a duration string.
	type yamlConfig struct {
		Fields         []string      `yaml:"fields"`
		VectorFields   []string      `yaml:"vector_fields"`
		OutDir         string        `yaml:"out_dir"`
		LogLevel       string        `yaml:"log_level"`
		MaxConcurrency int           `yaml:"max_concurrency"`
		Timeout        string        `yaml:"timeout"`
		History        HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if len(yamlCfg.Fields) > 0 {
		cfg.Fields = yamlCfg.Fields
	}
	if len(yamlCfg.VectorFields) > 0 {
		cfg.VectorFields = yamlCfg.VectorFields
	}
	if yamlCfg.OutDir != "" {
		cfg.OutDir = yamlCfg.OutDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.MaxConcurrency != 0 {
		cfg.MaxConcurrency = yamlCfg.MaxConcurrency
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}

	// Merge history config; presence detection via a raw map so an
	// explicit "enabled: false" is not confused with an omitted section.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})
			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .foamcsv/config.yaml in the
// specified directory. If the directory or file doesn't exist, returns
// default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".foamcsv", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values, so CLI flags take
// precedence over config file settings.
func (c *Config) MergeWithFlags(fields []string, outDir *string, logLevel *string, maxConcurrency *int, timeout *time.Duration, history *bool) {
	if len(fields) > 0 {
		c.Fields = fields
	}
	if outDir != nil {
		c.OutDir = *outDir
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if history != nil {
		c.History.Enabled = *history
	}
}

// IsVectorField reports whether the named field is parsed with vector arity.
func (c *Config) IsVectorField(field string) bool {
	for _, v := range c.VectorFields {
		if v == field {
			return true
		}
	}
	return false
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	for _, f := range c.Fields {
		if f == "" {
			return fmt.Errorf("field names cannot be empty")
		}
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	return nil
}
