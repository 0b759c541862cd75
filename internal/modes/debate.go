package modes

import (
	"context"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/transcript"
)

const defaultDebateRounds = 1

// Debated assigns alternating pro/con positions, runs an opening round plus
// configured rebuttal rounds where each side sees only the previous round,
// then has a designated summarizer read the full transcript and produce the
// conclusive answer.
func Debated(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeDebated, MinInstances: 2}

	rounds := rc.Options.Rounds
	if rounds <= 0 {
		rounds = defaultDebateRounds
	}

	return runner.Run(ctx, spec, userContent, rc,
		&core.DebateState{Phase: core.PhaseResponding, Positions: map[string]string{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			summarizer := designate(h)
			participants := h.Instances()

			positions := make(map[string]string, len(participants))
			for i, p := range participants {
				if i%2 == 0 {
					positions[p.ID] = "pro"
				} else {
					positions[p.ID] = "con"
				}
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.DebateState)
				st.SummarizerID = summarizer.ID
				for id, pos := range positions {
					st.Positions[id] = pos
				}
				return st
			})

			// Opening round: every participant argues from the question alone.
			g := h.Gather(ctx, participants, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, renderPrompt("debate_opening", map[string]any{
					"Question": userContent,
					"Position": positions[inst.ID],
				}))
			}, func(inst core.Instance, res *core.InvokeResult) {
				if res == nil {
					return
				}
				turn := newTurn(inst, positions[inst.ID], 0, res)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.DebateState)
					st.Turns = append(st.Turns, turn)
					return st
				})
			})

			if len(g.Succeeded) < 2 {
				// Too few debaters to argue; surface the lone statement, if
				// any, and skip rebuttals and summarization outright.
				setPhase(h, core.PhaseDone)
				if len(g.Succeeded) == 1 {
					r := g.Succeeded[0]
					return []*core.Result{{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage}}, nil
				}
				return nil, nil
			}

			for round := 1; round <= rounds; round++ {
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.DebateState)
					st.Phase = core.PhaseDebating
					st.Round = round
					return st
				})

				// Rebuttals see only the previous round, not the full history.
				previous := transcript.FormatRound(h.State().AllTurns(), round-1)
				h.Gather(ctx, participants, func(inst core.Instance) []core.Message {
					return h.Conversation(inst.Model, renderPrompt("debate_rebuttal", map[string]any{
						"Question":   userContent,
						"Position":   positions[inst.ID],
						"Transcript": previous,
					}))
				}, func(inst core.Instance, res *core.InvokeResult) {
					if res == nil {
						return
					}
					turn := newTurn(inst, positions[inst.ID], round, res)
					h.UpdateState(func(s core.ModeState) core.ModeState {
						st := s.(*core.DebateState)
						st.Turns = append(st.Turns, turn)
						return st
					})
				})
			}

			setPhase(h, core.PhaseSummarizing)

			full := transcript.Format(h.State().AllTurns())
			summary := FallbackSynthesisText
			isSynthesis := false
			var usage *core.Usage
			res := h.CallOne(ctx, summarizer, h.Conversation(summarizer.Model,
				renderPrompt("debate_summary", map[string]any{
					"Question":   userContent,
					"Transcript": full,
				})))
			if res != nil {
				summary = res.Content
				isSynthesis = true
				usage = res.Usage
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.DebateState)
				st.Summary = summary
				st.IsSynthesis = isSynthesis
				st.Phase = core.PhaseDone
				return st
			})

			return []*core.Result{{InstanceID: summarizer.ID, Content: summary, Usage: usage}}, nil
		},
		Parallel)
}
