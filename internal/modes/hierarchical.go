package modes

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Hierarchical has a coordinator decompose the request into subtasks,
// assigns each subtask to a worker, executes them (sequentially per worker,
// concurrently across workers) and asks the coordinator to synthesize the
// worker outputs into the final answer.
func Hierarchical(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	spec := runner.Spec{Mode: core.ModeHierarchical, MinInstances: 2}

	return runner.Run(ctx, spec, userContent, rc,
		&core.HierarchicalState{Phase: core.PhaseDecomposing},
		func(ctx context.Context, h *runner.Helpers) ([]*core.Result, error) {
			coordinator := designate(h)
			workers := othersOf(h.Instances(), coordinator.ID)

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.HierarchicalState)
				st.CoordinatorID = coordinator.ID
				return st
			})

			subtasks := decompose(ctx, h, coordinator, workers, userContent)
			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.HierarchicalState)
				st.Subtasks = append(st.Subtasks, subtasks...)
				st.Phase = core.PhaseExecuting
				return st
			})

			// Each worker executes its own subtask queue in order; distinct
			// workers run independently, so one worker's long queue never
			// stalls another's.
			byID := make(map[string]core.Instance, len(workers))
			for _, w := range workers {
				byID[w.ID] = w
			}
			calls := make([]runner.QueuedCall, 0, len(subtasks))
			depthOf := make(map[int]int, len(subtasks)) // subtask index -> position in its worker's queue
			next := make(map[string]int, len(workers))
			for i := range subtasks {
				w := byID[subtasks[i].AssignedTo]
				depthOf[i] = next[w.ID]
				next[w.ID]++
				calls = append(calls, runner.QueuedCall{
					Instance: w,
					Messages: h.Conversation(w.Model, subtaskPrompt(userContent, subtasks[i].Description)),
					Tag:      i,
				})
			}

			h.GatherQueued(ctx, calls, func(call runner.QueuedCall, res *core.InvokeResult) {
				if res == nil {
					return
				}
				idx := call.Tag
				subtasks[idx].Result = res.Content
				turn := newTurn(call.Instance, subtasks[idx].ID, depthOf[idx], res)
				h.UpdateState(func(s core.ModeState) core.ModeState {
					st := s.(*core.HierarchicalState)
					st.Turns = append(st.Turns, turn)
					st.Subtasks[idx].Result = res.Content
					return st
				})
			})

			setPhase(h, core.PhaseSynthesizing)

			synthesis := FallbackSynthesisText
			var usage *core.Usage
			res := h.CallOne(ctx, coordinator, h.Conversation(coordinator.Model,
				hierarchicalSynthesisPrompt(userContent, subtasks)))
			if res != nil {
				synthesis = res.Content
				usage = res.Usage
			}

			h.UpdateState(func(s core.ModeState) core.ModeState {
				st := s.(*core.HierarchicalState)
				st.Synthesis = synthesis
				st.Phase = core.PhaseDone
				return st
			})

			return []*core.Result{{InstanceID: coordinator.ID, Content: synthesis, Usage: usage}}, nil
		},
		Parallel)
}

// decompose asks the coordinator for a JSON subtask list and assigns each
// subtask to a worker. When parsing fails entirely the fallback is one
// generic subtask per worker.
func decompose(ctx context.Context, h *runner.Helpers, coordinator core.Instance, workers []core.Instance, userContent string) []core.Subtask {
	res := h.CallOne(ctx, coordinator, h.Conversation(coordinator.Model, decomposePrompt(userContent, workers)))
	if res == nil {
		return genericSubtasks(workers)
	}

	var parsed []core.Subtask
	if err := core.ExtractJSONInto(res.Content, &parsed); err != nil || len(parsed) == 0 {
		return genericSubtasks(workers)
	}

	rr := 0
	for i := range parsed {
		if parsed[i].ID == "" {
			parsed[i].ID = fmt.Sprintf("task-%d", i+1)
		}
		if w, ok := matchWorker(parsed[i].AssignedModel, workers); ok {
			parsed[i].AssignedTo = w.ID
		} else {
			// Round-robin over workers for unrecognized assignments.
			parsed[i].AssignedTo = workers[rr%len(workers)].ID
			rr++
		}
	}
	return parsed
}

// matchWorker resolves an assignedModel value against the workers: exact
// instance id, exact model identifier, then substring match against the
// short model name. First match in list order is authoritative.
func matchWorker(assigned string, workers []core.Instance) (core.Instance, bool) {
	if assigned == "" {
		return core.Instance{}, false
	}
	normalized := strings.ToLower(strings.TrimSpace(assigned))

	for _, w := range workers {
		if normalized == strings.ToLower(w.ID) || normalized == strings.ToLower(w.Model) {
			return w, true
		}
	}
	for _, w := range workers {
		short := strings.ToLower(core.ShortModelName(w.Model))
		if strings.Contains(short, normalized) || strings.Contains(normalized, short) {
			return w, true
		}
	}
	return core.Instance{}, false
}

func genericSubtasks(workers []core.Instance) []core.Subtask {
	out := make([]core.Subtask, len(workers))
	for i, w := range workers {
		out[i] = core.Subtask{
			ID:          fmt.Sprintf("task-%d", i+1),
			Description: "Answer the request from your own perspective.",
			AssignedTo:  w.ID,
		}
	}
	return out
}

func decomposePrompt(question string, workers []core.Instance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Decompose the following request into focused subtasks for the workers listed below.\n\nRequest: %s\n\nWorkers:\n", question)
	for _, w := range workers {
		fmt.Fprintf(&sb, "- id: %s, model: %s\n", w.ID, w.Model)
	}
	sb.WriteString(`
Respond with a JSON array of subtasks: [{"id": "task-1", "description": "...", "assignedModel": "<worker id or model>"}]. Keep subtasks independent of each other.`)
	return sb.String()
}

func subtaskPrompt(question, description string) string {
	return fmt.Sprintf("As part of answering the larger request %q, complete this subtask:\n\n%s", question, description)
}

func hierarchicalSynthesisPrompt(question string, subtasks []core.Subtask) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You decomposed the request %q into subtasks. The workers returned:\n\n", question)
	for _, st := range subtasks {
		result := st.Result
		if result == "" {
			result = "(no result)"
		}
		fmt.Fprintf(&sb, "--- %s: %s ---\n%s\n\n", st.ID, st.Description, result)
	}
	sb.WriteString("Combine the subtask results into one complete answer to the original request.")
	return sb.String()
}
