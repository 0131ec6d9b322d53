// Package config defines the gateway configuration, loaded from YAML with
// environment variable expansion, defaults, and validation.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the HR agent gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Agent         AgentConfig         `yaml:"agent" json:"agent"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the listen address. Defaults to "0.0.0.0".
	Host string `yaml:"host" json:"host"`

	// Port is the listen port. Defaults to 8000.
	Port int `yaml:"port" json:"port"`

	// CORSOrigins lists allowed origins for cross-origin requests.
	// A single "*" allows any origin.
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// AgentConfig configures the agent runtime binding.
type AgentConfig struct {
	// Model is the model identifier passed to the runtime.
	Model string `yaml:"model" json:"model"`

	// MaxTokens caps the tokens generated per response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// SystemPrompt overrides the built-in HR system prompt when set.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// AllowedTools restricts which registered tools the runtime may call.
	// Empty means all registered tools are allowed.
	AllowedTools []string `yaml:"allowed_tools" json:"allowed_tools"`

	// User is the caller identity attached to exchanges when the request
	// carries none. Defaults to "anonymous".
	User string `yaml:"user" json:"user"`

	// MaxToolRounds caps tool-use iterations within a single exchange.
	MaxToolRounds int `yaml:"max_tool_rounds" json:"max_tool_rounds"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" json:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format" json:"format"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	// Endpoint is the OTLP collector address. Empty disables tracing.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// SamplingRate is the fraction of traces recorded (0.0 to 1.0).
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`

	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure" json:"insecure"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled exposes GET /metrics when true. Defaults to true.
	Enabled *bool `yaml:"enabled" json:"enabled"`
}

// MetricsEnabled reports whether the /metrics endpoint should be served.
func (c MetricsConfig) MetricsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, expands, and validates a YAML configuration file.
// Environment variables in the file are expanded with os.ExpandEnv
// before parsing, so values like ${OTEL_ENDPOINT} work.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.KnownFields(true)

	cfg := &Config{}
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Agent.Model == "" {
		c.Agent.Model = "claude-sonnet-4-20250514"
	}
	if c.Agent.MaxTokens == 0 {
		c.Agent.MaxTokens = 4096
	}
	if c.Agent.User == "" {
		c.Agent.User = "anonymous"
	}
	if c.Agent.MaxToolRounds == 0 {
		c.Agent.MaxToolRounds = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Observability.Tracing.SamplingRate == 0 {
		c.Observability.Tracing.SamplingRate = 1.0
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Agent.MaxTokens < 1 {
		return fmt.Errorf("agent.max_tokens must be positive, got %d", c.Agent.MaxTokens)
	}
	if c.Agent.MaxToolRounds < 1 {
		return fmt.Errorf("agent.max_tool_rounds must be positive, got %d", c.Agent.MaxToolRounds)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	if r := c.Observability.Tracing.SamplingRate; r < 0 || r > 1 {
		return fmt.Errorf("observability.tracing.sampling_rate must be between 0 and 1, got %v", r)
	}
	return nil
}

// ListenAddr returns the host:port pair for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
