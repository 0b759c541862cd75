package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Synthesized gathers answers from every instance except a designated
// synthesizer, then asks the synthesizer to merge them into one response.
func Synthesized(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeSynthesized, MinInstances: 2}
	synthesizer := core.Instance{}

	return runner.Run(ctx, spec, userContent, rc,
		&core.SynthesizedState{Phase: core.PhaseResponding},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			synthesizer = designate(h)
			responders := othersOf(h.Instances(), synthesizer.ID)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.SynthesizedState)
				st.SynthesizerID = synthesizer.ID
				return st
			})

			g := h.Gather(ctx, responders, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, userContent)
			}, appendTurnOnResult(h, "", 0))

			results := make([]*core.Result, 0, len(h.Instances()))
			for _, r := range g.Succeeded {
				results = append(results, &core.Result{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage})
			}

			if len(g.Succeeded) < 2 {
				// Nothing to synthesize; surface whatever arrived.
				setPhase(h, core.PhaseDone)
				return results, nil
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.SynthesizedState)
				st.Phase = core.PhaseSynthesizing
				return st
			})

			synthesis := FallbackSynthesisText
			var usage *core.Usage
			res := h.CallOne(ctx, synthesizer, h.Conversation(synthesizer.Model,
				synthesisPrompt(userContent, g.Succeeded)))
			if res != nil {
				synthesis = res.Content
				usage = res.Usage
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.SynthesizedState)
				st.Synthesis = synthesis
				st.Phase = core.PhaseDone
				return st
			})

			return append(results, &core.Result{InstanceID: synthesizer.ID, Content: synthesis, Usage: usage}), nil
		},
		Parallel)
}

// appendTurnOnResult returns an on-result callback that appends successful
// outcomes to the state's turn list.
func appendTurnOnResult(h *runner.Helpers, role string, round int) func(core.Instance, *core.InvokeResult) {
	return func(inst core.Instance, res *core.InvokeResult) {
		if res == nil {
			return
		}
		turn := newTurn(inst, role, round, res)
		h.UpdateState(func(s core.ModeState) core.ModeState {
			switch st := s.(type) {
			case *core.SynthesizedState:
				st.Turns = append(st.Turns, turn)
			case *core.ConfidenceState:
				st.Turns = append(st.Turns, turn)
			case *core.ElectedState:
				st.Turns = append(st.Turns, turn)
			case *core.ConsensusState:
				st.Turns = append(st.Turns, turn)
			case *core.DebateState:
				st.Turns = append(st.Turns, turn)
			case *core.CouncilState:
				st.Turns = append(st.Turns, turn)
			case *core.CritiqueState:
				st.Turns = append(st.Turns, turn)
			case *core.HierarchicalState:
				st.Turns = append(st.Turns, turn)
			case *core.TournamentState:
				st.Turns = append(st.Turns, turn)
			case *core.ExplainerState:
				st.Turns = append(st.Turns, turn)
			}
			return s
		})
	}
}

// setPhase transitions the current state's phase and publishes it.
func setPhase(h *runner.Helpers, phase core.Phase) {
	h.UpdateState(func(s core.ModeState) core.ModeState {
		switch st := s.(type) {
		case *core.ParallelState:
			st.Phase = phase
		case *core.SynthesizedState:
			st.Phase = phase
		case *core.ConfidenceState:
			st.Phase = phase
		case *core.RoutedState:
			st.Phase = phase
		case *core.ElectedState:
			st.Phase = phase
		case *core.ConsensusState:
			st.Phase = phase
		case *core.DebateState:
			st.Phase = phase
		case *core.CouncilState:
			st.Phase = phase
		case *core.CritiqueState:
			st.Phase = phase
		case *core.HierarchicalState:
			st.Phase = phase
		case *core.TournamentState:
			st.Phase = phase
		case *core.ExplainerState:
			st.Phase = phase
		}
		return s
	})
}

func synthesisPrompt(question string, responses []runner.InstanceResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Several assistants answered the question: %q\n\n", question)
	for _, r := range responses {
		fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", r.Instance.DisplayName(), r.Result.Content)
	}
	sb.WriteString("Synthesize these answers into a single response that keeps the strongest points of each and resolves any contradictions. Answer the original question directly.")
	return sb.String()
}
