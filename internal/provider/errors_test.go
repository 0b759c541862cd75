package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInvokeErrorMessage(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &InvokeError{Provider: "claude", Model: "sonnet", Detail: "command failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("InvokeError should unwrap to its cause")
	}
	if msg := err.Error(); !strings.Contains(msg, "claude/sonnet") {
		t.Errorf("error should name the failing provider/model, got %q", msg)
	}

	// Health checks and executable probes have no model in hand.
	bare := &InvokeError{Provider: "gemini", Detail: "executable 'gemini' not found in PATH"}
	if msg := bare.Error(); !strings.HasPrefix(msg, "gemini:") {
		t.Errorf("model-less error = %q", msg)
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"plain_error", errors.New("boom"), false},
		{"timeout", &InvokeError{Provider: "p", Detail: "request timeout"}, true},
		{"network", &InvokeError{Provider: "p", Detail: "Network unreachable"}, true},
		{"unavailable", &InvokeError{Provider: "p", Detail: "service unavailable"}, true},
		{"fatal", &InvokeError{Provider: "p", Detail: "invalid api key"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetriable(tt.err); got != tt.want {
				t.Errorf("isRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetriableSeesThroughWrapping(t *testing.T) {
	// The retry loop wraps the last failure with attempt context; the
	// classification must still reach the invocation error inside.
	wrapped := fmt.Errorf("failed after 3 attempts: %w",
		&InvokeError{Provider: "p", Detail: "connection reset"})
	if !isRetriable(wrapped) {
		t.Error("wrapped transient errors should classify as retriable")
	}
}
