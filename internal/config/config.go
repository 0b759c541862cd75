// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/provider"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Instances []InstanceConfig          `yaml:"instances,omitempty"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Server    ServerConfig              `yaml:"server,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DefaultsConfig holds default run settings.
type DefaultsConfig struct {
	Mode               string  `yaml:"mode"`
	Rounds             int     `yaml:"rounds"`
	MaxRounds          int     `yaml:"max_rounds"`
	ConsensusThreshold float64 `yaml:"consensus_threshold"`
	Primary            string  `yaml:"primary,omitempty"`
	AutoAssignRoles    bool    `yaml:"auto_assign_roles"`
}

// InstanceConfig describes one model instance participating in runs.
type InstanceConfig struct {
	ID          string   `yaml:"id"`
	Model       string   `yaml:"model"` // "provider/model"
	Label       string   `yaml:"label,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Models       []string      `yaml:"models,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	Enabled      bool          `yaml:"enabled"`
}

// defaultProviders lists the provider CLIs known out of the box.
var defaultProviders = map[string]ProviderConfig{
	"claude": {
		Command: "claude",
		Args:    []string{"--print"},
		Models:  []string{"opus", "sonnet", "haiku"},
		Timeout: 5 * time.Minute,
		Enabled: true,
	},
	"codex": {
		Command: "codex",
		Models:  []string{"gpt-4o", "gpt-4.1", "o3"},
		Timeout: 5 * time.Minute,
		Enabled: true,
	},
	"gemini": {
		Command: "gemini",
		Models:  []string{"pro", "flash"},
		Timeout: 5 * time.Minute,
		Enabled: true,
	},
	"mock": {
		Command: "mock",
		Models:  []string{"mock-v1", "mock-v2"},
		Timeout: 1 * time.Minute,
		Enabled: true,
	},
}

// Default returns the default configuration.
func Default() *Config {
	providers := make(map[string]ProviderConfig, len(defaultProviders))
	for name, p := range defaultProviders {
		providers[name] = p
	}

	return &Config{
		Defaults: DefaultsConfig{
			Mode:               string(core.ModeParallel),
			Rounds:             1,
			MaxRounds:          3,
			ConsensusThreshold: 0.8,
			AutoAssignRoles:    false,
		},
		Instances: []InstanceConfig{
			{ID: "mock-1", Model: "mock/mock-v1"},
			{ID: "mock-2", Model: "mock/mock-v2"},
		},
		Server: ServerConfig{
			Port: 8184,
		},
		Providers: providers,
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge in defaults for any providers the file doesn't mention
	for name, p := range defaultProviders {
		if _, exists := cfg.Providers[name]; !exists {
			cfg.Providers[name] = p
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Instances))
	for _, inst := range c.Instances {
		if inst.ID == "" {
			return fmt.Errorf("instance with empty id")
		}
		if seen[inst.ID] {
			return fmt.Errorf("duplicate instance id: %s", inst.ID)
		}
		seen[inst.ID] = true
		if inst.Model == "" {
			return fmt.Errorf("instance %s has no model", inst.ID)
		}
	}
	if c.Defaults.ConsensusThreshold < 0 || c.Defaults.ConsensusThreshold > 1 {
		return fmt.Errorf("consensus_threshold must be within [0, 1], got %v", c.Defaults.ConsensusThreshold)
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// CoreInstances converts the configured instances into the orchestrator's
// instance records, in file order.
func (c *Config) CoreInstances() []core.Instance {
	instances := make([]core.Instance, 0, len(c.Instances))
	for _, ic := range c.Instances {
		inst := core.Instance{
			ID:    ic.ID,
			Model: ic.Model,
			Label: ic.Label,
		}
		if ic.Temperature != nil || ic.MaxTokens != nil {
			inst.Params = &core.CallParams{
				Temperature: ic.Temperature,
				MaxTokens:   ic.MaxTokens,
			}
		}
		instances = append(instances, inst)
	}
	return instances
}

// toProviderConfig converts a ProviderConfig to the provider package's Config.
func (p ProviderConfig) toProviderConfig(name string) provider.Config {
	return provider.Config{
		Name:         name,
		Command:      p.Command,
		Args:         p.Args,
		DefaultModel: p.DefaultModel,
		Models:       p.Models,
		Timeout:      p.Timeout,
		MaxRetries:   p.MaxRetries,
	}
}

// createProviderFromName creates a provider instance based on the name.
func createProviderFromName(name string, cfg provider.Config) provider.Provider {
	switch name {
	case "claude":
		return provider.NewClaudeProvider(cfg)
	case "gemini":
		return provider.NewGeminiProvider(cfg)
	case "codex", "openai":
		return provider.NewCodexProvider(cfg)
	case "mock":
		return provider.NewMockProvider(cfg)
	default:
		// Unknown providers fall back to generic
		return provider.NewGenericProvider(cfg)
	}
}

// CreateProvider creates a provider instance from this configuration.
func (c *Config) CreateProvider(name string) (provider.Provider, error) {
	provCfg, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in config", name)
	}
	if !provCfg.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}
	return createProviderFromName(name, provCfg.toProviderConfig(name)), nil
}

// CreateRegistry creates a provider registry from this configuration.
func (c *Config) CreateRegistry() *provider.Registry {
	registry := provider.NewRegistry()
	for name, provCfg := range c.Providers {
		if !provCfg.Enabled {
			continue
		}
		registry.Register(createProviderFromName(name, provCfg.toProviderConfig(name)))
	}
	return registry
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "symposium.yaml"
	}
	return filepath.Join(home, ".symposium", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	return `# symposium configuration file
# Place this file at ~/.symposium/config.yaml

defaults:
  mode: parallel              # Default collaboration mode
  rounds: 1                   # Debate/council discussion rounds
  max_rounds: 3               # Consensus revision round cap
  consensus_threshold: 0.8    # Agreement score that stops consensus early
  primary: ""                 # Instance id for synthesizer/router/judge duty
  auto_assign_roles: false    # Let a model assign council roles

instances:
  - id: claude-1
    model: claude/sonnet
  - id: codex-1
    model: codex/gpt-4o
  - id: gemini-1
    model: gemini/flash
    label: Flash

providers:
  claude:
    command: claude
    args: ["--print"]
    default_model: ""         # e.g., "sonnet", "opus", "haiku"
    models: ["opus", "sonnet", "haiku"]
    timeout: 5m
    max_retries: 2            # Retry failed commands (default: 2, total 3 attempts)
    enabled: true

  codex:
    command: codex
    models: ["gpt-4o", "gpt-4.1", "o3"]
    timeout: 5m
    enabled: true

  gemini:
    command: gemini
    models: ["pro", "flash"]
    timeout: 5m
    enabled: true

server:
  port: 8184
`
}
