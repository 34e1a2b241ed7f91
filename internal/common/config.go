package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultEndpoint is the PHASTER API endpoint used when no override is given.
	DefaultEndpoint = "http://phaster.ca/phaster_api"

	// DefaultLedgerPath is the default tab-separated job ledger file.
	DefaultLedgerPath = "phaster_jobs.tsv"

	// DefaultWaitSeconds is the fixed wait between consecutive remote calls.
	DefaultWaitSeconds = 10
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `toml:"api"`
	Ledger  LedgerConfig  `toml:"ledger"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig configures the PHASTER API client
type APIConfig struct {
	URL     string `toml:"url" validate:"required,url"` // API endpoint URL
	Wait    int    `toml:"wait" validate:"min=0"`       // Seconds between consecutive remote calls
	Timeout int    `toml:"timeout" validate:"gte=1"`    // HTTP request timeout in seconds
}

// LedgerConfig configures the persisted job ledger
type LedgerConfig struct {
	Path string `toml:"path" validate:"required"` // Tab-separated ledger file path
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug" or "info"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Defaults match the published PHASTER API contract; only user-facing
// settings are exposed in phaster.toml.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:     DefaultEndpoint,
			Wait:    DefaultWaitSeconds,
			Timeout: 30,
		},
		Ledger: LedgerConfig{
			Path: DefaultLedgerPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// CLI flags are applied afterwards via ApplyFlagOverrides (highest priority).
// An empty path skips the file layer.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if endpoint := os.Getenv("PHASTER_URL"); endpoint != "" {
		config.API.URL = endpoint
	}
	if wait := os.Getenv("PHASTER_WAIT"); wait != "" {
		if w, err := strconv.Atoi(wait); err == nil {
			config.API.Wait = w
		}
	}
	if timeout := os.Getenv("PHASTER_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.API.Timeout = t
		}
	}
	if path := os.Getenv("PHASTER_DATABASE"); path != "" {
		config.Ledger.Path = path
	}
	if level := os.Getenv("PHASTER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PHASTER_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Empty strings and a negative wait mean "flag not set" and are ignored.
func ApplyFlagOverrides(config *Config, endpoint, ledgerPath string, wait int, logLevel string) {
	if endpoint != "" {
		config.API.URL = endpoint
	}
	if ledgerPath != "" {
		config.Ledger.Path = ledgerPath
	}
	if wait >= 0 {
		config.API.Wait = wait
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate validates the resolved configuration using go-playground/validator.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// WaitInterval returns the configured wait between remote calls as a duration.
func (c *Config) WaitInterval() time.Duration {
	return time.Duration(c.API.Wait) * time.Second
}

// RequestTimeout returns the configured HTTP timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}
