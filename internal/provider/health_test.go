package provider

import (
	"context"
	"errors"
	"testing"
)

// probeProvider answers health probes with a scripted response.
type probeProvider struct {
	BaseProvider
	exec func(ctx context.Context, req *Request) (*Response, error)
}

func (p *probeProvider) Execute(ctx context.Context, req *Request) (*Response, error) {
	return p.exec(ctx, req)
}

func (p *probeProvider) HealthCheck(ctx context.Context) HealthStatus {
	return RunHealthCheck(ctx, p)
}

func newProbeProvider(exec func(ctx context.Context, req *Request) (*Response, error)) *probeProvider {
	return &probeProvider{
		BaseProvider: NewBaseProvider(Config{Name: "probe", DefaultModel: "probe-v1"}),
		exec:         exec,
	}
}

func TestRunHealthCheckSuccess(t *testing.T) {
	var probed *Request
	p := newProbeProvider(func(ctx context.Context, req *Request) (*Response, error) {
		probed = req
		return &Response{Content: "2"}, nil
	})
	status := RunHealthCheck(context.Background(), p)

	if probed == nil || probed.Prompt != HealthCheckPrompt {
		t.Fatalf("expected prompt %q, got %+v", HealthCheckPrompt, probed)
	}
	if probed.Model != "probe-v1" {
		t.Errorf("probe should use the default model, got %q", probed.Model)
	}
	if !status.Available {
		t.Fatalf("expected available=true, got false with error %q", status.Error)
	}
	if status.CheckedAt.IsZero() {
		t.Error("CheckedAt should be set")
	}
}

func TestRunHealthCheckWhitespace(t *testing.T) {
	p := newProbeProvider(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Content: "  2\n"}, nil
	})
	status := RunHealthCheck(context.Background(), p)
	if !status.Available {
		t.Fatalf("whitespace around the answer should be tolerated, got error %q", status.Error)
	}
}

func TestRunHealthCheckInvalidResponse(t *testing.T) {
	p := newProbeProvider(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Content: "two"}, nil
	})
	status := RunHealthCheck(context.Background(), p)

	if status.Available {
		t.Fatalf("expected available=false, got true")
	}
	if status.Error == "" {
		t.Fatalf("expected error message for invalid response")
	}
}

func TestRunHealthCheckError(t *testing.T) {
	p := newProbeProvider(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, errors.New("command not found")
	})
	status := RunHealthCheck(context.Background(), p)

	if status.Available {
		t.Fatalf("expected available=false, got true")
	}
	if status.Error != "command not found" {
		t.Fatalf("unexpected error: %q", status.Error)
	}
}
