package core

import (
	"context"
)

// InvokeRequest describes one model invocation issued by the runner.
type InvokeRequest struct {
	Model    string      // target model identifier, "provider/model"
	Messages []Message   // role-tagged input items
	StreamID string      // display/stream identifier, usually the instance id
	Label    string      // optional display label
	Params   *CallParams // optional per-call parameter overrides
}

// InvokeResult is the successful outcome of one model invocation.
type InvokeResult struct {
	Content string
	Usage   *Usage
}

// Invoker performs the actual network call to a model. It is supplied by
// the caller. An error return means "this participant produced nothing this
// round"; the core never inspects why the call failed.
type Invoker interface {
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}

// InvokeFunc adapts a plain function to the Invoker interface.
type InvokeFunc func(ctx context.Context, req InvokeRequest) (*InvokeResult, error)

func (f InvokeFunc) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	return f(ctx, req)
}

// StateSink receives mode-state transitions for live display. The core calls
// it synchronously after each logical state transition; implementations may
// be asynchronous internally but the core's correctness never depends on it.
type StateSink interface {
	// InitStreaming announces the identities about to stream in a round.
	InitStreaming(ids []string, models map[string]string)

	// SetModeState replaces the full state record.
	SetModeState(state ModeState)

	// UpdateModeState applies an incremental update to the state record.
	UpdateModeState(fn func(ModeState) ModeState)
}

// NopSink discards all state transitions.
type NopSink struct{}

func (NopSink) InitStreaming([]string, map[string]string) {}
func (NopSink) SetModeState(ModeState)                    {}
func (NopSink) UpdateModeState(func(ModeState) ModeState) {}
