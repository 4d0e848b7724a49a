// ABOUTME: Configuration loading and parsing for leadgate
// ABOUTME: YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete leadgate configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Completion CompletionConfig `yaml:"completion"`
	Memory     MemoryConfig     `yaml:"memory"`
	Estimation EstimationConfig `yaml:"estimation"`
	Company    CompanyConfig    `yaml:"company"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the operator API address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds operator API authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// CompletionConfig holds the text-completion service configuration.
// Models maps a capability name to the model it should use; unset
// capabilities fall back to DefaultModel.
type CompletionConfig struct {
	BaseURL      string            `yaml:"base_url"`
	APIKey       string            `yaml:"api_key"`
	DefaultModel string            `yaml:"default_model"`
	Models       map[string]string `yaml:"models"`
	Temperature  float64           `yaml:"temperature"`
	MaxTokens    int               `yaml:"max_tokens"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// MemoryConfig holds conversation memory limits
type MemoryConfig struct {
	MaxTurns     int `yaml:"max_turns"`
	ContextTurns int `yaml:"context_turns"`

	Retention     time.Duration `yaml:"-"`
	SweepInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RetentionRaw     string `yaml:"retention"`
	SweepIntervalRaw string `yaml:"sweep_interval"`
}

// EstimationConfig holds estimation engine configuration
type EstimationConfig struct {
	Currency string `yaml:"currency"`
}

// CompanyConfig holds the identity used by the identidad capability
type CompanyConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in the values the rest of the system expects
// when the config file leaves them out.
func (c *Config) applyDefaults() {
	if c.Completion.Timeout <= 0 {
		c.Completion.Timeout = 8 * time.Second
	}
	if c.Completion.Temperature == 0 {
		c.Completion.Temperature = 0.7
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = 1000
	}
	if c.Memory.MaxTurns <= 0 {
		c.Memory.MaxTurns = 100
	}
	if c.Memory.ContextTurns <= 0 {
		c.Memory.ContextTurns = 10
	}
	if c.Memory.Retention <= 0 {
		c.Memory.Retention = 24 * time.Hour
	}
	if c.Memory.SweepInterval <= 0 {
		c.Memory.SweepInterval = time.Hour
	}
	if c.Estimation.Currency == "" {
		c.Estimation.Currency = "USD"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("completion.base_url is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Completion.TimeoutRaw != "" {
		cfg.Completion.Timeout, err = time.ParseDuration(cfg.Completion.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing completion.timeout %q: %w", cfg.Completion.TimeoutRaw, err)
		}
	}

	if cfg.Memory.RetentionRaw != "" {
		cfg.Memory.Retention, err = time.ParseDuration(cfg.Memory.RetentionRaw)
		if err != nil {
			return fmt.Errorf("parsing memory.retention %q: %w", cfg.Memory.RetentionRaw, err)
		}
	}

	if cfg.Memory.SweepIntervalRaw != "" {
		cfg.Memory.SweepInterval, err = time.ParseDuration(cfg.Memory.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing memory.sweep_interval %q: %w", cfg.Memory.SweepIntervalRaw, err)
		}
	}

	return nil
}
