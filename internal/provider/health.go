package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// healthCheckTimeout caps the probe; a healthy CLI answers in seconds.
const healthCheckTimeout = 30 * time.Second

// RunHealthCheck sends the fixed arithmetic probe through a provider's
// execution path against its default model and grades the answer. Every
// concrete provider routes HealthCheck here, so "available" means the same
// thing no matter which CLI is behind it.
func RunHealthCheck(ctx context.Context, p Provider) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.Execute(ctx, &Request{Prompt: HealthCheckPrompt, Model: p.DefaultModel()})

	status := HealthStatus{
		ResponseTime: time.Since(start),
		CheckedAt:    time.Now(),
	}
	switch {
	case err != nil:
		status.Error = err.Error()
	case resp == nil:
		status.Error = "empty response"
	default:
		if err := gradeHealthAnswer(resp.Content); err != nil {
			status.Error = err.Error()
		}
	}
	status.Available = status.Error == ""
	return status
}

// gradeHealthAnswer accepts exactly "2" after trimming. Anything else is
// reported back, truncated so a chatty model cannot flood the status.
func gradeHealthAnswer(content string) error {
	answer := strings.TrimSpace(content)
	if answer == "2" {
		return nil
	}
	if answer == "" {
		return fmt.Errorf("unexpected response: empty")
	}
	if len(answer) > 120 {
		answer = answer[:120] + "..."
	}
	return fmt.Errorf("unexpected response: %q", answer)
}
