package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/similarity"
)

const (
	defaultConsensusRounds    = 3
	defaultConsensusThreshold = 0.8
)

// Consensus runs iterative revision: every instance answers, sees the other
// answers, and revises until the round's mean pairwise Jaccard similarity
// meets the threshold or the round cap is hit. The surfaced answer is the
// most representative response of the final round, not any designated
// model's.
func Consensus(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeConsensus, MinInstances: 2}

	maxRounds := rc.Options.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultConsensusRounds
	}
	threshold := rc.Options.Threshold
	if threshold <= 0 {
		threshold = defaultConsensusThreshold
	}

	return runner.Run(ctx, spec, userContent, rc,
		&core.ConsensusState{Phase: core.PhaseResponding, MaxRounds: maxRounds, Threshold: threshold},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			g := h.Gather(ctx, h.Instances(), func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, userContent)
			}, appendTurnOnResult(h, "", 0))

			// current maps participant -> latest response content.
			participants := make([]core.Instance, 0, len(g.Succeeded))
			current := make(map[string]string, len(g.Succeeded))
			usages := make(map[string]*core.Usage, len(g.Succeeded))
			for _, r := range g.Succeeded {
				participants = append(participants, r.Instance)
				current[r.Instance.ID] = r.Result.Content
				usages[r.Instance.ID] = r.Result.Usage
			}

			if len(participants) < 2 {
				setPhase(h, core.PhaseDone)
				if len(participants) == 1 {
					p := participants[0]
					return []*core.Result{{InstanceID: p.ID, Content: current[p.ID], Usage: usages[p.ID]}}, nil
				}
				return nil, nil
			}

			consensus := false
			for round := 1; round <= maxRounds && !consensus; round++ {
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.ConsensusState)
					st.Phase = core.PhaseRevising
					st.Round = round
					return st
				})

				rg := h.Gather(ctx, participants, func(inst core.Instance) []core.Message {
					return h.Conversation(inst.Model, revisionPrompt(userContent, inst, participants, current))
				}, appendTurnOnResult(h, "", round))

				// A fully failed revision round leaves the previous round's
				// responses as the carry-forward set.
				for _, r := range rg.Succeeded {
					current[r.Instance.ID] = r.Result.Content
					usages[r.Instance.ID] = r.Result.Usage
				}

				texts := make([]string, 0, len(participants))
				for _, p := range participants {
					texts = append(texts, current[p.ID])
				}
				score := similarity.RoundScore(texts)
				consensus = score >= threshold

				reached := consensus
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.ConsensusState)
					st.Scores = append(st.Scores, score)
					st.ConsensusReached = reached
					return st
				})
			}

			texts := make([]string, 0, len(participants))
			for _, p := range participants {
				texts = append(texts, current[p.ID])
			}
			rep := participants[similarity.MostRepresentative(texts)]

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.ConsensusState)
				st.RepresentativeID = rep.ID
				st.Phase = core.PhaseDone
				return st
			})

			return []*core.Result{{InstanceID: rep.ID, Content: current[rep.ID], Usage: usages[rep.ID]}}, nil
		},
		Parallel)
}

func revisionPrompt(question string, inst core.Instance, participants []core.Instance, current map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The question under discussion: %q\n\nYour previous answer:\n%s\n\nThe other participants answered:\n\n", question, current[inst.ID])
	for _, p := range participants {
		if p.ID == inst.ID {
			continue
		}
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", p.DisplayName(), current[p.ID])
	}
	sb.WriteString("Revise your answer, adopting whatever the others got right. Converge on the best shared answer rather than defending your original position.")
	return sb.String()
}
