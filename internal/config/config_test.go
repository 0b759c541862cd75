package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.Mode != "parallel" {
		t.Errorf("default mode = %q, want parallel", cfg.Defaults.Mode)
	}
	if cfg.Defaults.ConsensusThreshold != 0.8 {
		t.Errorf("default threshold = %v, want 0.8", cfg.Defaults.ConsensusThreshold)
	}
	if len(cfg.Instances) != 2 {
		t.Errorf("default instances = %d, want 2 mock instances", len(cfg.Instances))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `defaults:
  mode: debated
  rounds: 2
instances:
  - id: claude-main
    model: claude/sonnet
    label: The Analyst
  - id: gemini-main
    model: gemini/pro
server:
  port: 9999
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Defaults.Mode != "debated" || cfg.Defaults.Rounds != 2 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if len(cfg.Instances) != 2 || cfg.Instances[0].ID != "claude-main" {
		t.Errorf("instances = %+v", cfg.Instances)
	}

	// Providers the file does not mention still get defaults merged in.
	if _, ok := cfg.Providers["mock"]; !ok {
		t.Error("default providers should be merged in")
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("a missing config file is not an error: %v", err)
	}
	if cfg.Defaults.Mode != "parallel" {
		t.Errorf("mode = %q, want default", cfg.Defaults.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty_id", func(c *Config) { c.Instances[0].ID = "" }, true},
		{"duplicate_id", func(c *Config) { c.Instances[1].ID = c.Instances[0].ID }, true},
		{"missing_model", func(c *Config) { c.Instances[0].Model = "" }, true},
		{"threshold_too_high", func(c *Config) { c.Defaults.ConsensusThreshold = 1.5 }, true},
		{"threshold_negative", func(c *Config) { c.Defaults.ConsensusThreshold = -0.1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := `# comment line
SERVER_PORT=9000
DEFAULT_MODE="council"
QUOTED='single quoted'
INLINE=value # trailing comment

MALFORMED LINE WITHOUT EQUALS
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := LoadEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if env["SERVER_PORT"] != "9000" {
		t.Errorf("SERVER_PORT = %q", env["SERVER_PORT"])
	}
	if env["DEFAULT_MODE"] != "council" {
		t.Errorf("quotes should be stripped, got %q", env["DEFAULT_MODE"])
	}
	if env["QUOTED"] != "single quoted" {
		t.Errorf("QUOTED = %q", env["QUOTED"])
	}
	if env["INLINE"] != "value" {
		t.Errorf("inline comment should be stripped, got %q", env["INLINE"])
	}
	if _, ok := env["MALFORMED LINE WITHOUT EQUALS"]; ok {
		t.Error("malformed lines should be skipped")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{
		"SERVER_PORT":           "7777",
		"DEFAULT_MODE":          "tournament",
		"DEFAULT_PRIMARY":       "claude-main",
		"DEFAULT_ROUNDS":        "4",
		"CONSENSUS_THRESHOLD":   "0.95",
		"PROVIDER_MOCK_ENABLED": "false",
		"PROVIDER_TIMEOUT":      "90",
	})

	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Defaults.Mode != "tournament" || cfg.Defaults.Primary != "claude-main" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Defaults.Rounds != 4 || cfg.Defaults.ConsensusThreshold != 0.95 {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Providers["mock"].Enabled {
		t.Error("mock should be disabled")
	}
	if cfg.Providers["claude"].Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Providers["claude"].Timeout)
	}
}

func TestApplyEnvOverridesIgnoresGarbage(t *testing.T) {
	cfg := Default()
	ApplyEnvOverrides(cfg, map[string]string{
		"SERVER_PORT":         "not-a-number",
		"CONSENSUS_THRESHOLD": "often",
	})
	if cfg.Server.Port != 8184 || cfg.Defaults.ConsensusThreshold != 0.8 {
		t.Errorf("unparseable overrides must leave defaults intact: %+v", cfg)
	}
}

func TestCoreInstances(t *testing.T) {
	temp := 0.3
	tokens := 2048
	cfg := Default()
	cfg.Instances = []InstanceConfig{
		{ID: "a", Model: "claude/sonnet", Label: "Lead", Temperature: &temp, MaxTokens: &tokens},
		{ID: "b", Model: "gemini/pro"},
	}

	instances := cfg.CoreInstances()
	if len(instances) != 2 {
		t.Fatalf("instances = %d", len(instances))
	}
	if instances[0].ID != "a" || instances[0].Label != "Lead" {
		t.Errorf("instance 0 = %+v", instances[0])
	}
	if instances[0].Params == nil || *instances[0].Params.Temperature != 0.3 || *instances[0].Params.MaxTokens != 2048 {
		t.Errorf("params = %+v", instances[0].Params)
	}
	if instances[1].Params != nil {
		t.Errorf("instance without overrides should have nil params, got %+v", instances[1].Params)
	}
}

func TestCreateRegistry(t *testing.T) {
	cfg := Default()
	registry := cfg.CreateRegistry()

	for _, name := range []string{"claude", "codex", "gemini", "mock"} {
		if !registry.Has(name) {
			t.Errorf("registry missing provider %s", name)
		}
	}

	cfg.Providers["claude"] = ProviderConfig{Command: "claude", Enabled: false}
	registry = cfg.CreateRegistry()
	if registry.Has("claude") {
		t.Error("disabled providers must not be registered")
	}
}
