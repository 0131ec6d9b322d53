package config

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8000 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Agent.Model == "" {
		t.Error("agent.model default missing")
	}
	if cfg.Agent.MaxTokens != 4096 {
		t.Errorf("agent.max_tokens = %d, want 4096", cfg.Agent.MaxTokens)
	}
	if cfg.Agent.User != "anonymous" {
		t.Errorf("agent.user = %q, want anonymous", cfg.Agent.User)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if !cfg.Observability.Metrics.MetricsEnabled() {
		t.Error("metrics should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
server:
  host: 127.0.0.1
  port: 9000
agent:
  model: claude-test
  max_tokens: 512
  allowed_tools:
    - get_assignment_id
logging:
  level: debug
  format: text
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.ListenAddr() != "127.0.0.1:9000" {
		t.Errorf("ListenAddr() = %s", cfg.ListenAddr())
	}
	if cfg.Agent.Model != "claude-test" || cfg.Agent.MaxTokens != 512 {
		t.Errorf("agent = %+v", cfg.Agent)
	}
	if len(cfg.Agent.AllowedTools) != 1 || cfg.Agent.AllowedTools[0] != "get_assignment_id" {
		t.Errorf("allowed_tools = %v", cfg.Agent.AllowedTools)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("TEST_TRACE_ENDPOINT", "collector:4317")

	cfg, err := Parse([]byte(`
observability:
  tracing:
    endpoint: ${TEST_TRACE_ENDPOINT}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Observability.Tracing.Endpoint != "collector:4317" {
		t.Errorf("endpoint = %q", cfg.Observability.Tracing.Endpoint)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("bogus_section:\n  key: value\n"))
	if err == nil {
		t.Fatal("Parse() accepted unknown field")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad max tokens", func(c *Config) { c.Agent.MaxTokens = -1 }, "max_tokens"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad sampling", func(c *Config) { c.Observability.Tracing.SamplingRate = 2 }, "sampling_rate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() accepted invalid config")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	schema, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(schema, &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if !strings.Contains(string(schema), "allowed_tools") {
		t.Error("schema missing agent fields")
	}
}
