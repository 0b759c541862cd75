package modes

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/nhalim/symposium/internal/bracket"
	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Tournament runs a single-elimination competition over the instances'
// initial responses. Matches are judged by the configured primary instance
// when present, otherwise by the first competitor of the match; any
// ambiguous or failed verdict defaults to competitor one, never competitor
// two, so outcomes stay deterministic and explainable.
func Tournament(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeTournament, MinInstances: 4}

	return runner.Run(ctx, spec, userContent, rc,
		&core.TournamentState{Phase: core.PhaseResponding, Eliminated: map[int][]string{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			g := h.Gather(ctx, h.Instances(), func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, userContent)
			}, appendTurnOnResult(h, "", 0))

			responses := make(map[string]*core.InvokeResult, len(g.Succeeded))
			var competitors []string
			for _, r := range g.Succeeded {
				competitors = append(competitors, r.Instance.ID)
				responses[r.Instance.ID] = r.Result
			}

			if len(competitors) < 2 {
				// No competition possible; the lone success, if any, is the
				// winner with no matches recorded.
				setPhase(h, core.PhaseDone)
				if len(competitors) == 1 {
					id := competitors[0]
					h.UpdateState(func(s core.ModeState) core.ModeState {
						st := s.(*core.TournamentState)
						st.WinnerID = id
						return st
					})
					return []*core.Result{{InstanceID: id, Content: responses[id].Content, Usage: responses[id].Usage}}, nil
				}
				return nil, nil
			}

			br := bracket.New(competitors)
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.TournamentState)
				st.Bracket = append(st.Bracket, br.Current())
				st.Phase = core.PhaseJudging
				return st
			})

			for br.Winner() == "" {
				round := br.CurrentRound()
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.TournamentState)
					st.Round = round
					return st
				})

				pairs, bye := br.Pairings()
				var winners []string
				if bye != "" {
					winners = append(winners, bye)
				}

				for _, p := range pairs {
					match := judgeMatch(ctx, h, round, p, responses)
					winners = append(winners, match.WinnerID)
					h.UpdateState(func(s core.ModeState) core.ModeState {
						st := s.(*core.TournamentState)
						st.Matches = append(st.Matches, match)
						return st
					})
				}

				br.Advance(winners)
				next := br.Current()
				eliminated := br.Eliminated[round]
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.TournamentState)
					st.Bracket = append(st.Bracket, next)
					st.Eliminated[round] = append(st.Eliminated[round], eliminated...)
					return st
				})
			}

			winnerID := br.Winner()
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.TournamentState)
				st.WinnerID = winnerID
				st.Phase = core.PhaseDone
				return st
			})

			win := responses[winnerID]
			return []*core.Result{{InstanceID: winnerID, Content: win.Content, Usage: win.Usage}}, nil
		},
		Parallel)
}

// judgeMatch selects the judge, asks for a verdict and records the match.
// Judge selection: the configured primary instance when present, else the
// first competitor of the pair.
func judgeMatch(ctx context.Context, h *runner.Helpers, round int, p bracket.Pair, responses map[string]*core.InvokeResult) core.Match {
	judge := designateJudge(h, p)

	match := core.Match{
		ID:          core.GenerateID(),
		Round:       round,
		CompetitorA: p.A,
		CompetitorB: p.B,
		JudgeID:     judge.ID,
	}

	res := h.CallOne(ctx, judge, h.Conversation(judge.Model,
		judgePrompt(h.UserContent(), responses[p.A].Content, responses[p.B].Content)))
	if res == nil {
		match.WinnerID = p.A
		return match
	}

	match.Verdict = res.Content
	match.Usage = res.Usage
	if pickSecond(res.Content) {
		match.WinnerID = p.B
	} else {
		match.WinnerID = p.A
	}
	return match
}

func designateJudge(h *runner.Helpers, p bracket.Pair) core.Instance {
	if id := h.Options().PrimaryID; id != "" {
		if inst, ok := instanceByID(h.Instances(), id); ok {
			return inst
		}
	}
	inst, _ := instanceByID(h.Instances(), p.A)
	return inst
}

// pickSecond reports whether the judge's answer unambiguously names the
// second candidate: the first standalone A/B/1/2 token decides; anything
// else defaults to the first candidate.
func pickSecond(verdict string) bool {
	tokens := strings.FieldsFunc(strings.ToLower(verdict), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		switch tok {
		case "a", "1":
			return false
		case "b", "2":
			return true
		}
	}
	return false
}

func judgePrompt(question, a, b string) string {
	return fmt.Sprintf(`Two candidate answers to the question %q are shown below.

Answer A:
%s

Answer B:
%s

Which answer is better? Reply with the single letter A or B, then optionally one sentence of justification.`, question, a, b)
}
