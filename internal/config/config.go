// Package config loads topicd configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kimhsiao/topicflow/backend/internal/logging"
)

// Environment variables that override file values.
const (
	EnvDatabaseDSN = "TOPICS_DB_DSN"
	EnvHTTPAddr    = "TOPICS_HTTP_ADDR"
	EnvLogLevel    = "TOPICS_LOG_LEVEL"
)

// MaxPageSize is the hard upper bound on listing page sizes.
const MaxPageSize = 100

const defaultConfigYAML = `# topicd configuration
database:
  dsn: "sqlite:./data/topics.db"

http:
  addr: ":8090"

log:
  level: "INFO"

listing:
  default_page_size: 20
  max_page_size: 100

content:
  default_language: "en"
`

// DatabaseConfig configures the backing store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig configures the HTTP boundary.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ListingConfig bounds listTopics pagination.
type ListingConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// ContentConfig holds defaults applied to new topics.
type ContentConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

// Config models topicd.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Listing  ListingConfig  `yaml:"listing"`
	Content  ContentConfig  `yaml:"content"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return &cfg
}

// DefaultYAML returns the built-in configuration as a commented YAML file.
func DefaultYAML() string {
	return defaultConfigYAML
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		c.Database.DSN = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Database.DSN) == "" {
		problems = append(problems, "database.dsn is required")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		problems = append(problems, "http.addr is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}
	if c.Listing.MaxPageSize < 1 || c.Listing.MaxPageSize > MaxPageSize {
		problems = append(problems, fmt.Sprintf("listing.max_page_size must be between 1 and %d", MaxPageSize))
	}
	if c.Listing.DefaultPageSize < 1 || c.Listing.DefaultPageSize > c.Listing.MaxPageSize {
		problems = append(problems, "listing.default_page_size must be between 1 and listing.max_page_size")
	}
	if strings.TrimSpace(c.Content.DefaultLanguage) == "" {
		problems = append(problems, "content.default_language is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel returns the validated log level.
func (c *Config) LogLevel() logging.LogLevel {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}
