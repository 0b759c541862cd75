package modes

import (
	"context"
	"fmt"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Explainer has each instance answer the same question for a different
// audience, cycling through the default audience list by instance position.
// Every explanation is surfaced; there is no merge step.
func Explainer(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeExplainer, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.ExplainerState{Phase: core.PhaseExplaining, Audiences: map[string]string{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			instances := h.Instances()
			audiences := make(map[string]string, len(instances))
			for i, inst := range instances {
				audiences[inst.ID] = DefaultAudiences[i%len(DefaultAudiences)]
			}
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.ExplainerState)
				st.Audiences = audiences
				return st
			})

			g := h.Gather(ctx, instances, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, explainPrompt(userContent, audiences[inst.ID]))
			}, func(inst core.Instance, res *core.InvokeResult) {
				if res == nil {
					return
				}
				// The audience doubles as the turn's role so transcripts
				// and exports label each explanation by who it is for.
				turn := newTurn(inst, audiences[inst.ID], 0, res)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.ExplainerState)
					st.Turns = append(st.Turns, turn)
					return st
				})
			})

			setPhase(h, core.PhaseDone)

			results := make([]*core.Result, 0, len(g.Succeeded))
			for _, r := range g.Succeeded {
				results = append(results, &core.Result{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage})
			}
			return results, nil
		},
		Parallel)
}

func explainPrompt(question, audience string) string {
	return fmt.Sprintf("Explain the answer to the following for %s. Match vocabulary, depth and length to that audience.\n\n%s", audience, question)
}
