package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
)

// Invoker adapts a provider registry to the orchestration core's Invoker
// interface. It splits the instance's "provider/model" identifier, flattens
// the message history into a single prompt (CLI tools take one input), and
// maps provider metadata onto usage accounting.
type Invoker struct {
	registry *Registry
}

// NewInvoker creates an invoker backed by the given registry.
func NewInvoker(registry *Registry) *Invoker {
	return &Invoker{registry: registry}
}

// Invoke implements core.Invoker.
func (iv *Invoker) Invoke(ctx context.Context, req core.InvokeRequest) (*core.InvokeResult, error) {
	providerName, model, err := SplitModel(req.Model)
	if err != nil {
		return nil, err
	}

	p, err := iv.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	resp, err := p.Execute(ctx, &Request{
		Prompt: FlattenMessages(req.Messages),
		Model:  model,
	})
	if err != nil {
		return nil, err
	}

	result := &core.InvokeResult{Content: resp.Content}
	if m := resp.Metadata; m != nil {
		result.Usage = &core.Usage{
			InputTokens:  m.InputTokens,
			OutputTokens: m.OutputTokens,
			TotalTokens:  m.TotalTokens,
			Cost:         m.Cost,
		}
	}
	return result, nil
}

// SplitModel splits a "provider/model" identifier. The model part may itself
// contain slashes; only the first segment names the provider. A bare name
// with no slash selects the provider's default model.
func SplitModel(id string) (providerName, model string, err error) {
	if id == "" {
		return "", "", fmt.Errorf("empty model identifier")
	}
	parts := strings.SplitN(id, "/", 2)
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// FlattenMessages renders a role-tagged conversation as one prompt suitable
// for a single-shot CLI invocation. System messages lead, then the dialogue
// in order, ending with the trailing user request.
func FlattenMessages(messages []core.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			sb.WriteString(m.Content)
			sb.WriteString("\n\n")
		case core.RoleAssistant:
			fmt.Fprintf(&sb, "Your previous response:\n%s\n\n", m.Content)
		default:
			sb.WriteString(m.Content)
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(sb.String())
}
