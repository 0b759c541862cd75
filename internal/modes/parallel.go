package modes

import (
	"context"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Parallel asks every instance to answer independently. It is both a mode
// in its own right and the fallback every other mode defers to when its
// eligibility checks fail.
func Parallel(ctx context.Context, userContent string, rc *runner.Context) ([]*core.Result, error) {
	h := runner.NewHelpers(userContent, rc)

	st := &core.ParallelState{Phase: core.PhaseResponding}
	h.SetState(st)

	g := h.Gather(ctx, h.Instances(), func(inst core.Instance) []core.Message {
		return h.Conversation(inst.Model, userContent)
	}, func(inst core.Instance, res *core.InvokeResult) {
		if res == nil {
			return
		}
		turn := newTurn(inst, "", 0, res)
		h.UpdateState(func(s core.ModeState) core.ModeState {
			ps := s.(*core.ParallelState)
			ps.Turns = append(ps.Turns, turn)
			return ps
		})
	})

	h.UpdateState(func(s core.ModeState) core.ModeState {
		ps := s.(*core.ParallelState)
		ps.Phase = core.PhaseDone
		return ps
	})

	results := make([]*core.Result, len(h.Instances()))
	for i, r := range g.Results {
		if r.Result != nil {
			results[i] = &core.Result{InstanceID: r.Instance.ID, Content: r.Result.Content, Usage: r.Result.Usage}
		}
	}
	return results, nil
}
