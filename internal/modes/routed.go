package modes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Routed asks a designated router instance to pick the best-suited target
// for the query, then forwards the query to that target alone. A routing
// miss of any kind falls back to the first available target; the fallback
// flag and the chosen target are always published together.
func Routed(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeRouted, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.RoutedState{Phase: core.PhaseRouting},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			router := designate(h)
			targets := othersOf(h.Instances(), router.ID)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.RoutedState)
				st.RouterID = router.ID
				return st
			})

			res := h.CallOne(ctx, router, h.Conversation(router.Model, routingPrompt(userContent, targets)))

			var target core.Instance
			isFallback := false
			reasoning := ""
			if res == nil {
				target = targets[0]
				isFallback = true
				reasoning = FallbackRoutingText
				slog.Warn("routing call failed, using first target", "target", target.ID)
			} else {
				reasoning = routingReasoning(res.Content)
				matched, ok := matchTarget(res.Content, targets)
				if ok {
					target = matched
				} else {
					target = targets[0]
					isFallback = true
					slog.Warn("router answer matched no target, using first target",
						"answer", res.Content, "target", target.ID)
				}
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.RoutedState)
				st.SelectedID = target.ID
				st.SelectedModel = target.Model
				st.IsFallback = isFallback
				st.Reasoning = reasoning
				st.Phase = core.PhaseAnswering
				return st
			})

			answer := h.CallOne(ctx, target, h.Conversation(target.Model, userContent))

			var results []*core.Result
			if answer != nil {
				turn := newTurn(target, "", 0, answer)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.RoutedState)
					st.Turns = append(st.Turns, turn)
					return st
				})
				results = append(results, resultOf(turn))
			}

			setPhase(h, core.PhaseDone)
			return results, nil
		},
		Parallel)
}

// matchTarget resolves the router's free-text choice against the target
// list: exact id/label/model matches first, then substring containment,
// first match in list order winning. Matching is case-insensitive.
func matchTarget(answer string, targets []core.Instance) (core.Instance, bool) {
	normalized := strings.ToLower(strings.TrimSpace(answer))

	for _, t := range targets {
		if normalized == strings.ToLower(t.ID) ||
			normalized == strings.ToLower(t.Label) && t.Label != "" ||
			normalized == strings.ToLower(t.Model) {
			return t, true
		}
	}
	for _, t := range targets {
		if strings.Contains(normalized, strings.ToLower(t.ID)) ||
			(t.Label != "" && strings.Contains(normalized, strings.ToLower(t.Label))) ||
			strings.Contains(normalized, strings.ToLower(core.ShortModelName(t.Model))) {
			return t, true
		}
	}
	return core.Instance{}, false
}

// routingReasoning pulls the reasoning section out of the router's answer
// if it used one, otherwise returns the raw answer.
func routingReasoning(answer string) string {
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "REASONING:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(answer)
}

func routingPrompt(question string, targets []core.Instance) string {
	var sb strings.Builder
	sb.WriteString("Pick the single best-suited model to answer the user's request. Available models:\n\n")
	for _, t := range targets {
		fmt.Fprintf(&sb, "- %s: %s\n", t.ID, t.DisplayName())
	}
	fmt.Fprintf(&sb, "\nUser request: %s\n\n", question)
	sb.WriteString("Respond with the chosen model's identifier, then an optional line starting with \"REASONING:\" explaining the choice.")
	return sb.String()
}
