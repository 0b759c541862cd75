package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/transcript"
)

const defaultCouncilRounds = 1

// Council runs a role-based discussion: members speak from assigned
// perspectives across an opening round and configured follow-up rounds,
// and a designated synthesizer concludes from the full transcript.
func Council(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeCouncil, MinInstances: 2}

	rounds := rc.Options.Rounds
	if rounds <= 0 {
		rounds = defaultCouncilRounds
	}

	return runner.Run(ctx, spec, userContent, rc,
		&core.CouncilState{Phase: core.PhaseAssigning, Roles: map[string]string{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			synthesizer := designate(h)
			members := h.Instances()

			roles := assignRoles(ctx, h, synthesizer, members)
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.CouncilState)
				st.SynthesizerID = synthesizer.ID
				for id, role := range roles {
					st.Roles[id] = role
				}
				st.Phase = core.PhaseResponding
				return st
			})

			g := h.Gather(ctx, members, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, renderPrompt("council_opening", map[string]any{
					"Question": userContent,
					"Role":     roles[inst.ID],
				}))
			}, func(inst core.Instance, res *core.InvokeResult) {
				if res == nil {
					return
				}
				turn := newTurn(inst, roles[inst.ID], 0, res)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.CouncilState)
					st.Turns = append(st.Turns, turn)
					return st
				})
			})

			if len(g.Succeeded) < 2 {
				setPhase(h, core.PhaseDone)
				if len(g.Succeeded) == 1 {
					r := g.Succeeded[0]
					return []*core.Result{{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage}}, nil
				}
				return nil, nil
			}

			for round := 1; round <= rounds; round++ {
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.CouncilState)
					st.Phase = core.PhaseDiscussing
					st.Round = round
					return st
				})

				previous := transcript.FormatRound(h.State().AllTurns(), round-1)
				h.Gather(ctx, members, func(inst core.Instance) []core.Message {
					return h.Conversation(inst.Model, renderPrompt("council_round", map[string]any{
						"Question":   userContent,
						"Role":       roles[inst.ID],
						"Transcript": previous,
					}))
				}, func(inst core.Instance, res *core.InvokeResult) {
					if res == nil {
						return
					}
					turn := newTurn(inst, roles[inst.ID], round, res)
					h.UpdateState(func(s core.ModeState) core.ModeState {
						st := s.(*core.CouncilState)
						st.Turns = append(st.Turns, turn)
						return st
					})
				})
			}

			setPhase(h, core.PhaseSynthesizing)

			full := transcript.Format(h.State().AllTurns())
			synthesis := FallbackSynthesisText
			isSynthesis := false
			var usage *core.Usage
			res := h.CallOne(ctx, synthesizer, h.Conversation(synthesizer.Model,
				renderPrompt("council_synthesis", map[string]any{
					"Question":   userContent,
					"Transcript": full,
				})))
			if res != nil {
				synthesis = res.Content
				isSynthesis = true
				usage = res.Usage
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.CouncilState)
				st.Synthesis = synthesis
				st.IsSynthesis = isSynthesis
				st.Phase = core.PhaseDone
				return st
			})

			return []*core.Result{{InstanceID: synthesizer.ID, Content: synthesis, Usage: usage}}, nil
		},
		Parallel)
}

// assignRoles resolves each member's role: configured roles cycle first;
// with auto-assignment on, the synthesizer is asked for a JSON mapping,
// falling back to the default cyclic list when parsing fails or any member
// is missing from the verdict.
func assignRoles(ctx context.Context, h *runner.Helpers, synthesizer core.Instance, members []core.Instance) map[string]string {
	configured := h.Options().Roles
	if len(configured) > 0 {
		return cycleRoles(members, configured)
	}

	if h.Options().AutoAssignRoles {
		if roles, ok := autoAssignRoles(ctx, h, synthesizer, members); ok {
			return roles
		}
	}

	return cycleRoles(members, DefaultCouncilRoles)
}

func cycleRoles(members []core.Instance, roles []string) map[string]string {
	out := make(map[string]string, len(members))
	for i, m := range members {
		out[m.ID] = roles[i%len(roles)]
	}
	return out
}

// autoAssignRoles asks the synthesizer for a member-to-role JSON object.
// Any parse failure, call failure, or missing member rejects the verdict.
func autoAssignRoles(ctx context.Context, h *runner.Helpers, synthesizer core.Instance, members []core.Instance) (map[string]string, bool) {
	var sb strings.Builder
	sb.WriteString("Assign a distinct discussion role to each council member below, chosen for the question at hand.\n\nMembers:\n")
	for _, m := range members {
		fmt.Fprintf(&sb, "- %s (%s)\n", m.ID, m.DisplayName())
	}
	fmt.Fprintf(&sb, "\nQuestion: %s\n\n", h.UserContent())
	sb.WriteString(`Respond with a JSON object mapping member id to role name, e.g. {"member-1": "Analyst"}.`)

	res := h.CallOne(ctx, synthesizer, h.Conversation(synthesizer.Model, sb.String()))
	if res == nil {
		return nil, false
	}

	var verdict map[string]string
	if err := core.ExtractJSONInto(res.Content, &verdict); err != nil {
		return nil, false
	}
	for _, m := range members {
		if verdict[m.ID] == "" {
			return nil, false
		}
	}
	return verdict, true
}
