package provider

import (
	"context"
	"fmt"
	"time"
)

// MockProvider generates simulated responses for demos and testing without
// requiring any CLI to be installed.
type MockProvider struct {
	BaseProvider

	// Delay simulates processing time before each response.
	Delay time.Duration
}

// NewMockProvider creates a new mock provider.
func NewMockProvider(cfg Config) *MockProvider {
	if cfg.Name == "" {
		cfg.Name = "mock"
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Mock (Simulated)"
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"mock-v1", "mock-v2"}
	}
	return &MockProvider{
		BaseProvider: NewBaseProvider(cfg),
		Delay:        200 * time.Millisecond,
	}
}

// Execute generates a simulated response.
func (p *MockProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	if req.Prompt == HealthCheckPrompt {
		return &Response{Content: "2", Provider: p.Name()}, nil
	}

	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}

	return &Response{
		Content:  fmt.Sprintf("Mock response to: %s... [Simulated content]", truncate(req.Prompt, 50)),
		Model:    model,
		Provider: p.Name(),
		Metadata: &Metadata{
			InputTokens:  len(req.Prompt) / 4,
			OutputTokens: 16,
			TotalTokens:  len(req.Prompt)/4 + 16,
		},
	}, nil
}

// Available always returns true for the mock provider.
func (p *MockProvider) Available() bool {
	return true
}

// HealthCheck always succeeds immediately.
func (p *MockProvider) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Available: true, CheckedAt: time.Now()}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
