// Package provider wraps command-line AI tools (Claude, Gemini, Codex and
// generic CLIs) behind a unified interface, so the orchestration core can
// invoke any of them without knowing how each one is driven.
package provider

import (
	"context"
	"time"
)

// Provider defines the interface for AI CLI providers.
type Provider interface {
	// Name returns the provider's unique identifier (e.g., "claude", "gemini").
	Name() string

	// DisplayName returns a human-friendly name.
	DisplayName() string

	// Models lists the models this provider can serve.
	Models() []string

	// DefaultModel returns the model used when none is specified.
	DefaultModel() string

	// Available checks if the provider's CLI tool is installed and accessible.
	Available() bool

	// Execute sends a request to the provider and returns a structured response.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// HealthCheck sends a trivial prompt and verifies the answer.
	HealthCheck(ctx context.Context) HealthStatus
}

// Request represents a generation request to an AI provider.
type Request struct {
	// Prompt is the input text to send to the AI.
	Prompt string

	// Model is the specific model to use (e.g., "sonnet", "gpt-4o").
	// If empty, the provider's default model will be used.
	Model string

	// Args are additional command-line arguments to pass to the provider.
	Args []string
}

// Response represents a provider's response with metadata.
type Response struct {
	// Content is the AI-generated text response.
	Content string `json:"content"`

	// Model is the model that was used for this response.
	Model string `json:"model,omitempty"`

	// Provider is the name of the provider that generated this response.
	Provider string `json:"provider,omitempty"`

	// Metadata contains usage statistics and additional information.
	Metadata *Metadata `json:"metadata,omitempty"`

	// Raw is the unprocessed output from the CLI tool (for debugging).
	Raw string `json:"-"`
}

// Metadata contains usage statistics and additional response information.
type Metadata struct {
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
	Cost         float64       `json:"cost,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	StopReason   string        `json:"stop_reason,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
}

// HealthStatus is the outcome of one provider health check.
type HealthStatus struct {
	Available    bool          `json:"available"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

// Config holds configuration for creating a provider.
type Config struct {
	// Name is the unique identifier for this provider (e.g., "claude").
	Name string

	// DisplayName is a human-friendly name. If empty, Name will be used.
	DisplayName string

	// Command is the CLI executable name (e.g., "claude", "gemini").
	Command string

	// Args are default arguments to pass to the CLI command.
	Args []string

	// DefaultModel is the model to use when Request.Model is empty.
	DefaultModel string

	// Models is a list of available models for this provider.
	Models []string

	// Timeout is the maximum duration for a request. Default: 5 minutes.
	Timeout time.Duration

	// MaxRetries is how many times a transient failure is retried.
	MaxRetries int
}
