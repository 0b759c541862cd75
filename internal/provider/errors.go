package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// InvokeError is a failed CLI invocation. The orchestration core treats any
// failure as "this participant produced nothing this round" and never asks
// why, so the error exists for logs and retry classification: it names the
// provider and model that dropped out and keeps the stderr tail.
type InvokeError struct {
	Provider string
	Model    string
	Detail   string
	Err      error
}

func (e *InvokeError) Error() string {
	target := e.Provider
	if e.Model != "" {
		target += "/" + e.Model
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", target, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", target, e.Detail)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// transient reports whether the failure looks like a passing condition:
// network trouble, timeouts, or the CLI's backend being briefly
// unavailable. Auth and usage errors are permanent.
func (e *InvokeError) transient() bool {
	detail := strings.ToLower(e.Detail)
	for _, marker := range []string{"timeout", "connection", "network", "temporary", "unavailable"} {
		if strings.Contains(detail, marker) {
			return true
		}
	}
	return false
}

// isRetriable decides whether ExecuteCommand should attempt a call again,
// including errors wrapped by the retry loop itself.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var invokeErr *InvokeError
	if errors.As(err, &invokeErr) {
		return invokeErr.transient()
	}
	return false
}
