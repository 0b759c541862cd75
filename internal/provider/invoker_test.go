package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/nhalim/symposium/internal/core"
)

func TestSplitModel(t *testing.T) {
	tests := []struct {
		in           string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"claude/sonnet", "claude", "sonnet", false},
		{"claude", "claude", "", false},
		{"codex/org/custom-model", "codex", "org/custom-model", false},
		{"", "", "", true},
	}

	for _, tt := range tests {
		provider, model, err := SplitModel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("SplitModel(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("SplitModel(%q): unexpected error %v", tt.in, err)
			continue
		}
		if provider != tt.wantProvider || model != tt.wantModel {
			t.Errorf("SplitModel(%q) = (%q, %q), want (%q, %q)",
				tt.in, provider, model, tt.wantProvider, tt.wantModel)
		}
	}
}

func TestFlattenMessages(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: "Be concise."},
		{Role: core.RoleUser, Content: "What is a monad?"},
		{Role: core.RoleAssistant, Content: "A monad is a container.", Model: "mock/m1"},
		{Role: core.RoleUser, Content: "Expand on that."},
	}

	got := FlattenMessages(messages)

	if !strings.HasPrefix(got, "Be concise.") {
		t.Errorf("system message should lead:\n%s", got)
	}
	if !strings.Contains(got, "Your previous response:\nA monad is a container.") {
		t.Errorf("assistant message not framed:\n%s", got)
	}
	if !strings.HasSuffix(got, "Expand on that.") {
		t.Errorf("trailing user message should end the prompt:\n%s", got)
	}
}

func TestFlattenMessagesEmpty(t *testing.T) {
	if got := FlattenMessages(nil); got != "" {
		t.Errorf("empty conversation = %q, want empty prompt", got)
	}
}

func TestInvokerRoutesThroughRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewMockProvider(Config{Name: "mock", DefaultModel: "mock-v1"}))
	inv := NewInvoker(registry)

	res, err := inv.Invoke(context.Background(), core.InvokeRequest{
		Model:    "mock/mock-v1",
		Messages: []core.Message{{Role: core.RoleUser, Content: "hello there"}},
		StreamID: "inst-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "Mock response to: hello there") {
		t.Errorf("content = %q", res.Content)
	}
	if res.Usage == nil || res.Usage.TotalTokens == 0 {
		t.Errorf("usage not mapped: %+v", res.Usage)
	}
}

func TestInvokerUnknownProvider(t *testing.T) {
	inv := NewInvoker(NewRegistry())
	_, err := inv.Invoke(context.Background(), core.InvokeRequest{
		Model:    "nonexistent/model",
		Messages: []core.Message{{Role: core.RoleUser, Content: "q"}},
	})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewMockProvider(Config{Name: "beta"}))
	registry.Register(NewMockProvider(Config{Name: "alpha"}))

	if !registry.Has("alpha") || registry.Has("gamma") {
		t.Error("Has returned wrong membership")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("names = %v, want sorted [alpha beta]", names)
	}

	if _, err := registry.Get("gamma"); err == nil {
		t.Error("expected error for missing provider")
	}
}

func TestMockProviderHealthPrompt(t *testing.T) {
	p := NewMockProvider(Config{})
	p.Delay = 0

	resp, err := p.Execute(context.Background(), &Request{Prompt: HealthCheckPrompt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "2" {
		t.Errorf("health answer = %q, want 2", resp.Content)
	}

	status := p.HealthCheck(context.Background())
	if !status.Available {
		t.Error("mock provider must always report healthy")
	}
}
