package modes

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Elected has every instance answer independently, then vote on the best of
// the other answers. The candidate with the most votes wins; ties break to
// the alphabetically-first display name, which keeps the outcome
// reproducible.
func Elected(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeElected, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.ElectedState{Phase: core.PhaseResponding, Votes: map[string]string{}, Tally: map[string]int{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			g := h.Gather(ctx, h.Instances(), func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, userContent)
			}, appendTurnOnResult(h, "", 0))

			if len(g.Succeeded) < 2 {
				setPhase(h, core.PhaseDone)
				if len(g.Succeeded) == 1 {
					r := g.Succeeded[0]
					return []*core.Result{{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage}}, nil
				}
				return nil, nil
			}

			setPhase(h, core.PhaseVoting)

			candidates := g.Succeeded
			voters := make([]core.Instance, 0, len(candidates))
			for _, c := range candidates {
				voters = append(voters, c.Instance)
			}

			h.Gather(ctx, voters, func(voter core.Instance) []core.Message {
				return h.Conversation(voter.Model, ballotPrompt(userContent, voter, candidates))
			}, func(voter core.Instance, res *core.InvokeResult) {
				if res == nil {
					return
				}
				chosen, ok := parseVote(res.Content, voter, candidates)
				if !ok {
					return
				}
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.ElectedState)
					st.Votes[voter.ID] = chosen
					st.Tally[chosen]++
					return st
				})
			})

			tally := h.State().(*core.ElectedState).Tally
			winnerID := electWinner(tally, candidates)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.ElectedState)
				st.WinnerID = winnerID
				st.Phase = core.PhaseDone
				return st
			})

			for _, c := range candidates {
				if c.Instance.ID == winnerID {
					return []*core.Result{{InstanceID: c.Instance.ID, Content: c.Result.Content, Usage: c.Result.Usage}}, nil
				}
			}
			return nil, nil
		},
		Parallel)
}

// parseVote matches the voter's answer against the other candidates'
// identifiers and display names, first match in candidate order. A voter
// cannot vote for itself; an unmatchable ballot is discarded.
func parseVote(answer string, voter core.Instance, candidates []runner.InstanceResult) (string, bool) {
	normalized := strings.ToLower(answer)
	for _, c := range candidates {
		if c.Instance.ID == voter.ID {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(c.Instance.ID)) ||
			strings.Contains(normalized, strings.ToLower(c.Instance.DisplayName())) {
			return c.Instance.ID, true
		}
	}
	return "", false
}

// electWinner picks the candidate with the most votes. Ties break to the
// alphabetically-first display name.
func electWinner(tally map[string]int, candidates []runner.InstanceResult) string {
	best := ""
	bestVotes := -1
	bestName := ""

	ordered := make([]runner.InstanceResult, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Instance.DisplayName() < ordered[j].Instance.DisplayName()
	})

	for _, c := range ordered {
		votes := tally[c.Instance.ID]
		name := c.Instance.DisplayName()
		if votes > bestVotes || (votes == bestVotes && name < bestName) {
			best = c.Instance.ID
			bestVotes = votes
			bestName = name
		}
	}
	return best
}

func ballotPrompt(question string, voter core.Instance, candidates []runner.InstanceResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The question was: %q\n\nThe candidate answers (yours excluded):\n\n", question)
	for _, c := range candidates {
		if c.Instance.ID == voter.ID {
			continue
		}
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", c.Instance.ID, c.Result.Content)
	}
	sb.WriteString("Vote for the single best answer. Respond with that candidate's identifier only.")
	return sb.String()
}
