package provider

import (
	"context"
	"time"
)

// GenericProvider is a configurable provider for custom CLI tools without a
// specialized implementation. Output is passed through unparsed.
type GenericProvider struct {
	BaseProvider
}

// NewGenericProvider creates a generic provider from configuration.
func NewGenericProvider(cfg Config) *GenericProvider {
	return &GenericProvider{BaseProvider: NewBaseProvider(cfg)}
}

// Execute sends a request and returns the raw response.
func (p *GenericProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	args := []string{}

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
	content, err := p.ExecuteCommand(ctx, &Request{Prompt: req.Prompt, Model: model, Args: args})
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:  content,
		Model:    model,
		Provider: p.Name(),
		Metadata: &Metadata{Duration: time.Since(start)},
		Raw:      content,
	}, nil
}

// HealthCheck performs a quick health check using the provider execution path.
func (p *GenericProvider) HealthCheck(ctx context.Context) HealthStatus {
	return RunHealthCheck(ctx, p)
}
