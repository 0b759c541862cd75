// Package modes implements the collaboration strategies that run on top of
// the generic runner: parallel voting, debate, council discussion,
// hierarchical decomposition, tournament judging, iterative consensus,
// confidence-weighted synthesis, routing, critique-and-revise and
// multi-audience explanation.
package modes

import (
	"context"
	"fmt"
	"time"

	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/runner"
)

// Run executes the named mode against the run context.
func Run(ctx context.Context, mode core.Mode, userContent string, rc *runner.Context) ([]*core.Result, error) {
	switch mode {
	case core.ModeParallel:
		return Parallel(ctx, userContent, rc)
	case core.ModeSynthesized:
		return Synthesized(ctx, userContent, rc)
	case core.ModeConfidence:
		return Confidence(ctx, userContent, rc)
	case core.ModeRouted:
		return Routed(ctx, userContent, rc)
	case core.ModeElected:
		return Elected(ctx, userContent, rc)
	case core.ModeConsensus:
		return Consensus(ctx, userContent, rc)
	case core.ModeDebated:
		return Debated(ctx, userContent, rc)
	case core.ModeCouncil:
		return Council(ctx, userContent, rc)
	case core.ModeCritiqued:
		return Critiqued(ctx, userContent, rc)
	case core.ModeHierarchical:
		return Hierarchical(ctx, userContent, rc)
	case core.ModeTournament:
		return Tournament(ctx, userContent, rc)
	case core.ModeExplainer:
		return Explainer(ctx, userContent, rc)
	default:
		return nil, fmt.Errorf("unknown mode: %s", mode)
	}
}

// designate returns the configured primary instance if present, otherwise
// the first instance. Modes use it to pick their synthesizer, summarizer,
// router, coordinator or judge.
func designate(h *runner.Helpers) core.Instance {
	instances := h.Instances()
	if id := h.Options().PrimaryID; id != "" {
		if inst, ok := instanceByID(instances, id); ok {
			return inst
		}
	}
	return instances[0]
}

func instanceByID(instances []core.Instance, id string) (core.Instance, bool) {
	for _, inst := range instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return core.Instance{}, false
}

// othersOf filters out the instance with the given id, preserving order.
func othersOf(instances []core.Instance, id string) []core.Instance {
	var out []core.Instance
	for _, inst := range instances {
		if inst.ID != id {
			out = append(out, inst)
		}
	}
	return out
}

// newTurn records one instance's output for one round.
func newTurn(inst core.Instance, role string, round int, res *core.InvokeResult) core.Turn {
	return core.Turn{
		ID:         core.GenerateID(),
		InstanceID: inst.ID,
		Model:      inst.Model,
		Role:       role,
		Round:      round,
		Content:    res.Content,
		Usage:      res.Usage,
		CreatedAt:  time.Now(),
	}
}

// resultOf converts a turn into a user-visible result.
func resultOf(t core.Turn) *core.Result {
	return &core.Result{InstanceID: t.InstanceID, Content: t.Content, Usage: t.Usage}
}
