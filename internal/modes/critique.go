package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Critiqued has a designated drafter answer first, the remaining instances
// critique the draft concurrently, and the drafter revise in light of the
// critiques. If every critic fails, or the revision fails, the draft itself
// stands as the final answer.
func Critiqued(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeCritiqued, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.CritiqueState{Phase: core.PhaseDrafting},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			drafter := designate(h)
			critics := othersOf(h.Instances(), drafter.ID)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.CritiqueState)
				st.DrafterID = drafter.ID
				return st
			})

			draftRes := h.CallOne(ctx, drafter, h.Conversation(drafter.Model, userContent))
			if draftRes == nil {
				setPhase(h, core.PhaseDone)
				return nil, nil
			}
			draftTurn := newTurn(drafter, "draft", 0, draftRes)
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.CritiqueState)
				st.Turns = append(st.Turns, draftTurn)
				st.Phase = core.PhaseCritiquing
				return st
			})

			g := h.Gather(ctx, critics, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, critiquePrompt(userContent, draftRes.Content))
			}, appendTurnOnResult(h, "critique", 1))

			final := draftRes.Content
			usage := draftRes.Usage

			if len(g.Succeeded) > 0 {
				setPhase(h, core.PhaseRevising)

				revision := h.CallOne(ctx, drafter, h.Conversation(drafter.Model,
					revisePrompt(userContent, draftRes.Content, g.Succeeded)))
				if revision != nil {
					revTurn := newTurn(drafter, "revision", 2, revision)
					h.UpdateState(func(s core.ModeState) core.ModeState {
						st := s.(*core.CritiqueState)
						st.Turns = append(st.Turns, revTurn)
						return st
					})
					final = revision.Content
					usage = revision.Usage
				}
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.CritiqueState)
				st.Final = final
				st.Phase = core.PhaseDone
				return st
			})

			return []*core.Result{{InstanceID: drafter.ID, Content: final, Usage: usage}}, nil
		},
		Parallel)
}

func critiquePrompt(question, draft string) string {
	return fmt.Sprintf(`Another assistant answered the question %q as follows:

%s

Critique this answer: point out factual errors, gaps, weak reasoning and anything misleading. Be specific and constructive. Do not write your own full answer.`, question, draft)
}

func revisePrompt(question, draft string, critiques []runner.InstanceResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You answered the question %q as follows:\n\n%s\n\nReviewers raised these critiques:\n\n", question, draft)
	for _, c := range critiques {
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", c.Instance.DisplayName(), c.Result.Content)
	}
	sb.WriteString("Rewrite your answer, addressing every valid critique. Output only the revised answer.")
	return sb.String()
}
