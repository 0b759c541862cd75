package provider

import (
	"context"
	"time"
)

// CodexProvider drives the Codex CLI (OpenAI models).
type CodexProvider struct {
	BaseProvider
}

// NewCodexProvider creates a Codex provider from config.
func NewCodexProvider(cfg Config) *CodexProvider {
	if cfg.Name == "" {
		cfg.Name = "codex"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Codex"
	}
	return &CodexProvider{BaseProvider: NewBaseProvider(cfg)}
}

// Execute sends a prompt to the Codex CLI and returns the parsed response.
func (p *CodexProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	args := []string{"exec", "--json"}

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

	resp := parseCodexJSON(raw)
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
func (p *CodexProvider) HealthCheck(ctx context.Context) HealthStatus {
	return RunHealthCheck(ctx, p)
}
