package provider

import (
	"context"
	"time"
)

// GeminiProvider drives the Gemini CLI.
type GeminiProvider struct {
	BaseProvider
}

// NewGeminiProvider creates a Gemini provider from config.
func NewGeminiProvider(cfg Config) *GeminiProvider {
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Gemini"
	}
	return &GeminiProvider{BaseProvider: NewBaseProvider(cfg)}
}

// Execute sends a prompt to the Gemini CLI and returns the parsed response.
func (p *GeminiProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	args := []string{"--output-format", "json"}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, req.Args...)
	args = append(args, "--prompt", req.Prompt)

	start := time.Now()
	raw, err := p.ExecuteCommand(ctx, &Request{Prompt: req.Prompt, Model: model, Args: args})
	if err != nil {
		return nil, err
	}

	resp := parseGeminiJSON(raw)
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
func (p *GeminiProvider) HealthCheck(ctx context.Context) HealthStatus {
	return RunHealthCheck(ctx, p)
}
