package provider

import (
	"context"
	"time"
)

// ClaudeProvider drives the Claude CLI. It requests JSON output so token
// usage and cost can be reported back to the orchestrator.
type ClaudeProvider struct {
	BaseProvider
}

// NewClaudeProvider creates a Claude provider from config.
func NewClaudeProvider(cfg Config) *ClaudeProvider {
	if cfg.Name == "" {
		cfg.Name = "claude"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Claude"
	}
	return &ClaudeProvider{BaseProvider: NewBaseProvider(cfg)}
}

// Execute sends a prompt to the Claude CLI and returns the parsed response.
func (p *ClaudeProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	args := []string{"--output-format", "json"}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, req.Args...)
	args = append(args, req.Prompt)

	start := time.Now()
	raw, err := p.ExecuteCommand(ctx, &Request{Prompt: req.Prompt, Model: model, Args: args})
	if err != nil {
		return nil, err
	}

	resp := parseClaudeJSON(raw)
	resp.Provider = p.Name()
	if resp.Model == "" {
		resp.Model = model
	}
	if resp.Metadata == nil {
		resp.Metadata = &Metadata{}
	}
	resp.Metadata.Duration = time.Since(start)
	return resp, nil
}

// HealthCheck performs a quick health check using the provider execution path.
func (p *ClaudeProvider) HealthCheck(ctx context.Context) HealthStatus {
	return RunHealthCheck(ctx, p)
}
