package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stjordanis/lager/core"
)

// Config is the on-disk description of a coordinator: which handlers to
// install, in what order, and how the error bridge and metrics endpoint
// behave.
type Config struct {
	Level       string          `yaml:"level"`
	Handlers    []HandlerConfig `yaml:"handlers"`
	ErrorBridge BridgeConfig    `yaml:"error_bridge"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// HandlerConfig describes one handler to install. Options is passed to
// the handler's Init untouched; only the handler knows its own keys.
type HandlerConfig struct {
	Type          string         `yaml:"type"`
	Discriminator string         `yaml:"discriminator"`
	Optional      bool           `yaml:"optional"`
	Level         string         `yaml:"level"`
	Options       map[string]any `yaml:"options"`
}

// BridgeConfig controls the runtime error bridge.
type BridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

// MetricsConfig defines observability exposure options.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ValidationError aggregates multiple configuration validation failures.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other)
}

// Load reads, parses, and validates a configuration from disk.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a configuration from a reader. Unknown
// top-level fields are rejected; handler options are deliberately open.
func Decode(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = core.LevelInfo.String()
	}
	if c.ErrorBridge.Level == "" {
		c.ErrorBridge.Level = core.LevelError.String()
	}
	for i := range c.Handlers {
		if c.Handlers[i].Level == "" {
			c.Handlers[i].Level = c.Level
		}
	}
}

// Validate checks for semantic correctness in the configuration.
func (c *Config) Validate() error {
	problems := make([]string, 0)

	if _, err := core.ParseLevel(c.Level); err != nil {
		problems = append(problems, fmt.Sprintf("level: %v", err))
	}
	if len(c.Handlers) == 0 {
		problems = append(problems, "at least one handler must be configured")
	}

	seen := make(map[string]int)
	for i := range c.Handlers {
		h := &c.Handlers[i]
		if strings.TrimSpace(h.Type) == "" {
			problems = append(problems, fmt.Sprintf("handler[%d]: type is required", i))
			continue
		}
		if _, err := core.ParseLevel(h.Level); err != nil {
			problems = append(problems, fmt.Sprintf("handler[%d]: level: %v", i, err))
		}
		key := h.Type
		if h.Discriminator != "" {
			key += "/" + h.Discriminator
		}
		if prev, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("handler[%d]: duplicates handler[%d] (%s); use a discriminator", i, prev, key))
		} else {
			seen[key] = i
		}
	}

	if _, err := core.ParseLevel(c.ErrorBridge.Level); err != nil {
		problems = append(problems, fmt.Sprintf("error_bridge.level: %v", err))
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		problems = append(problems, "metrics.listen is required when metrics are enabled")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
