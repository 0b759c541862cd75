package modes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

var confidenceRe = regexp.MustCompile(`(?i)CONFIDENCE:\s*(\d{1,3})`)

// defaultConfidence is assumed when a responder's self-assessment cannot
// be parsed.
const defaultConfidence = 50

// Confidence gathers answers with self-reported confidence scores, then has
// a designated synthesizer weigh them into one response.
func Confidence(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeConfidence, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.ConfidenceState{Phase: core.PhaseResponding, Confidences: map[string]int{}},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			synthesizer := designate(h)
			responders := othersOf(h.Instances(), synthesizer.ID)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.ConfidenceState)
				st.SynthesizerID = synthesizer.ID
				return st
			})

			prompt := fmt.Sprintf(`%s

After your answer, state how confident you are on a 0-100 scale, on its own final line, in exactly this form:
CONFIDENCE: <number>`, userContent)

			g := h.Gather(ctx, responders, func(inst core.Instance) []core.Message {
				return h.Conversation(inst.Model, prompt)
			}, func(inst core.Instance, res *core.InvokeResult) {
				if res == nil {
					return
				}
				conf := parseConfidence(res.Content)
				turn := newTurn(inst, "", 0, res)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.ConfidenceState)
					st.Turns = append(st.Turns, turn)
					st.Confidences[inst.ID] = conf
					return st
				})
			})

			results := make([]*core.Result, 0, len(h.Instances()))
			for _, r := range g.Succeeded {
				results = append(results, &core.Result{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage})
			}

			if len(g.Succeeded) < 2 {
				setPhase(h, core.PhaseDone)
				return results, nil
			}

			setPhase(h, core.PhaseSynthesizing)

			confidences := h.State().(*core.ConfidenceState).Confidences
			synthesis := FallbackSynthesisText
			var usage *core.Usage
			res := h.CallOne(ctx, synthesizer, h.Conversation(synthesizer.Model,
				confidencePrompt(userContent, g.Succeeded, confidences)))
			if res != nil {
				synthesis = res.Content
				usage = res.Usage
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.ConfidenceState)
				st.Synthesis = synthesis
				st.Phase = core.PhaseDone
				return st
			})

			return append(results, &core.Result{InstanceID: synthesizer.ID, Content: synthesis, Usage: usage}), nil
		},
		Parallel)
}

// parseConfidence extracts a 0-100 self-assessment, clamping out-of-range
// values and defaulting when nothing parseable is present.
func parseConfidence(content string) int {
	m := confidenceRe.FindStringSubmatch(content)
	if m == nil {
		return defaultConfidence
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultConfidence
	}
	if n > 100 {
		return 100
	}
	return n
}

func confidencePrompt(question string, responses []runner.InstanceResult, confidences map[string]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Several assistants answered the question %q with a self-reported confidence:\n\n", question)
	for _, r := range responses {
		conf, ok := confidences[r.Instance.ID]
		if !ok {
			conf = defaultConfidence
		}
		fmt.Fprintf(&sb, "--- %s (confidence %d/100) ---\n%s\n\n", r.Instance.DisplayName(), conf, r.Result.Content)
	}
	sb.WriteString("Write one final answer, weighting each response by its stated confidence. Where high-confidence answers conflict, say so and resolve the conflict on the merits.")
	return sb.String()
}
