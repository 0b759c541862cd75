// Package runner drives the generic mode lifecycle: eligibility checks,
// state publishing, concurrent fan-out and positional result collection.
package runner

import (
	"context"
	"log/slog"

	"github.com/nhalim/symposium/internal/core"
)

// Options carries per-run tuning shared across modes. Zero values fall back
// to mode defaults.
type Options struct {
	PrimaryID       string   // designated synthesizer/judge/router/coordinator
	Rounds          int      // debate/council discussion rounds after the opener
	MaxRounds       int      // consensus revision cap
	Threshold       float64  // consensus stopping threshold
	Roles           []string // configured council roles
	AutoAssignRoles bool     // ask the synthesizer for a role mapping
}

// Context supplies everything a mode needs for one run. It is owned by the
// run and never shared across concurrent runs.
type Context struct {
	Instances []core.Instance
	History   []core.Message
	Invoker   core.Invoker
	Sink      core.StateSink
	Options   Options
}

// Spec declares a mode's applicability requirements.
type Spec struct {
	Mode         core.Mode
	MinInstances int
	Eligible     func(rc *Context) bool
}

// ExecFunc is a mode's execution routine. It receives the runner's helpers
// and returns the positional result list.
type ExecFunc func(ctx context.Context, h *Helpers) ([]*core.Result, error)

// Fallback is the every-instance-answers-independently strategy a mode
// defers to when its own eligibility checks fail.
type Fallback func(ctx context.Context, userContent string, rc *Context) ([]*core.Result, error)

// Run validates applicability, publishes the initial state, delegates to the
// mode's execution routine and normalizes the result list to one slot per
// instance. If the instance count is below the minimum or the eligibility
// predicate rejects the run, control passes to fallback before any state is
// published and its result is returned unchanged.
func Run(ctx context.Context, spec Spec, userContent string, rc *Context, initial core.ModeState, exec ExecFunc, fallback Fallback) ([]*core.Result, error) {
	if len(rc.Instances) < spec.MinInstances || (spec.Eligible != nil && !spec.Eligible(rc)) {
		slog.Debug("mode not eligible, delegating to fallback",
			"mode", spec.Mode,
			"instances", len(rc.Instances),
			"min_instances", spec.MinInstances)
		return fallback(ctx, userContent, rc)
	}

	h := NewHelpers(userContent, rc)
	h.SetState(initial)

	results, err := exec(ctx, h)
	// On success every call has settled and this only releases the last
	// round's child contexts; on a mode-logic error it also interrupts
	// whatever that round still has in flight before propagating.
	h.CancelRound()
	if err != nil {
		return nil, err
	}

	return normalize(results, rc.Instances), nil
}

// normalize pads or reorders results into one slot per instance, nil where
// an instance produced no user-visible output.
func normalize(results []*core.Result, instances []core.Instance) []*core.Result {
	byID := make(map[string]*core.Result, len(results))
	for _, r := range results {
		if r != nil {
			byID[r.InstanceID] = r
		}
	}
	out := make([]*core.Result, len(instances))
	for i, inst := range instances {
		out[i] = byID[inst.ID]
	}
	return out
}
