package runner

import (
	"context"
	"log/slog"

	"github.com/nhalim/symposium/internal/core"
)

// InstanceResult pairs an instance with its call outcome. A nil Result
// means the call failed; the core never inspects why.
type InstanceResult struct {
	Instance core.Instance
	Result   *core.InvokeResult
}

// GatherResult is the outcome of one concurrent fan-out. Results is
// positional: its length always equals the instance list passed to Gather,
// with a nil Result at every index whose call failed, ordered by the
// instances argument rather than completion order. Succeeded holds only the
// successful subset, in the same instance order.
type GatherResult struct {
	Results   []InstanceResult
	Succeeded []InstanceResult
}

// Helpers is the capability object handed to mode execution routines. All
// state mutation flows through it, so mode logic stays single-threaded even
// though calls are issued concurrently.
type Helpers struct {
	userContent string
	rc          *Context
	state       core.ModeState
	cancels     []context.CancelFunc
}

// NewHelpers builds the helper set for one run. Exposed so the parallel
// fallback, which bypasses Run's eligibility gate, can share the machinery.
func NewHelpers(userContent string, rc *Context) *Helpers {
	return &Helpers{userContent: userContent, rc: rc}
}

// UserContent returns the user's query for this run.
func (h *Helpers) UserContent() string { return h.userContent }

// Instances returns the full instance list in caller order.
func (h *Helpers) Instances() []core.Instance { return h.rc.Instances }

// Options returns the run options.
func (h *Helpers) Options() Options { return h.rc.Options }

// State returns the latest published mode state.
func (h *Helpers) State() core.ModeState { return h.state }

// SetState replaces the mode state and publishes it immediately.
func (h *Helpers) SetState(s core.ModeState) {
	h.state = s
	h.rc.Sink.SetModeState(s)
}

// UpdateState applies fn to the current state and publishes the result
// immediately. fn must be a pure transformation of its argument.
func (h *Helpers) UpdateState(fn func(core.ModeState) core.ModeState) {
	h.state = fn(h.state)
	h.rc.Sink.UpdateModeState(fn)
}

// newRound cancels the previous round's tokens and starts a fresh group,
// one per upcoming call. The previous round's calls have all settled by the
// time a new round begins, so cancelling only releases their child contexts
// from the parent. No production path cancels mid-round today, but the
// wiring lets a canceled parent interrupt every in-flight call.
func (h *Helpers) newRound(n int) []context.CancelFunc {
	h.CancelRound()
	h.cancels = make([]context.CancelFunc, 0, n)
	return h.cancels
}

// CancelRound cancels every call issued in the current round.
func (h *Helpers) CancelRound() {
	for _, cancel := range h.cancels {
		cancel()
	}
}

// Gather issues one call per instance concurrently and collects positional
// results once every call has settled. onResult, if non-nil, is invoked with
// each outcome as it arrives, in completion order, from the collecting
// goroutine, never concurrently. One instance's failure never blocks or
// cancels its siblings.
func (h *Helpers) Gather(ctx context.Context, instances []core.Instance, build func(inst core.Instance) []core.Message, onResult func(inst core.Instance, res *core.InvokeResult)) *GatherResult {
	h.newRound(len(instances))

	ids := make([]string, len(instances))
	models := make(map[string]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
		models[inst.ID] = inst.DisplayName()
	}
	h.rc.Sink.InitStreaming(ids, models)

	type item struct {
		idx int
		res *core.InvokeResult
	}
	ch := make(chan item, len(instances))

	for i, inst := range instances {
		callCtx, cancel := context.WithCancel(ctx)
		h.cancels = append(h.cancels, cancel)

		go func(idx int, inst core.Instance, callCtx context.Context) {
			res, err := h.rc.Invoker.Invoke(callCtx, core.InvokeRequest{
				Model:    inst.Model,
				Messages: build(inst),
				StreamID: inst.ID,
				Label:    inst.Label,
				Params:   inst.Params,
			})
			if err != nil {
				slog.Debug("instance call failed", "instance", inst.ID, "error", err)
				ch <- item{idx: idx, res: nil}
				return
			}
			ch <- item{idx: idx, res: res}
		}(i, inst, callCtx)
	}

	gr := &GatherResult{Results: make([]InstanceResult, len(instances))}
	for i, inst := range instances {
		gr.Results[i].Instance = inst
	}
	for range instances {
		it := <-ch
		gr.Results[it.idx].Result = it.res
		if onResult != nil {
			onResult(instances[it.idx], it.res)
		}
	}
	for _, r := range gr.Results {
		if r.Result != nil {
			gr.Succeeded = append(gr.Succeeded, r)
		}
	}
	return gr
}

// QueuedCall is one entry in a GatherQueued batch: the instance to call,
// the prebuilt messages for that call, and a caller-chosen tag carried back
// through onResult to correlate the outcome.
type QueuedCall struct {
	Instance core.Instance
	Messages []core.Message
	Tag      int
}

// GatherQueued issues a batch of calls where each instance works through
// its own calls in order while distinct instances run independently of each
// other. One instance's slow or failed call never delays another instance's
// queue. The returned slice is positional over calls, nil at every index
// whose call failed. onResult carries Gather's contract: completion order,
// collecting goroutine only.
func (h *Helpers) GatherQueued(ctx context.Context, calls []QueuedCall, onResult func(call QueuedCall, res *core.InvokeResult)) []*core.InvokeResult {
	h.newRound(len(calls))

	type queued struct {
		idx     int
		callCtx context.Context
	}
	var order []core.Instance
	queues := make(map[string][]queued, len(calls))
	for i, c := range calls {
		callCtx, cancel := context.WithCancel(ctx)
		h.cancels = append(h.cancels, cancel)
		if _, seen := queues[c.Instance.ID]; !seen {
			order = append(order, c.Instance)
		}
		queues[c.Instance.ID] = append(queues[c.Instance.ID], queued{idx: i, callCtx: callCtx})
	}

	ids := make([]string, len(order))
	models := make(map[string]string, len(order))
	for i, inst := range order {
		ids[i] = inst.ID
		models[inst.ID] = inst.DisplayName()
	}
	h.rc.Sink.InitStreaming(ids, models)

	type item struct {
		idx int
		res *core.InvokeResult
	}
	ch := make(chan item, len(calls))

	for _, inst := range order {
		go func(inst core.Instance, queue []queued) {
			for _, q := range queue {
				res, err := h.rc.Invoker.Invoke(q.callCtx, core.InvokeRequest{
					Model:    inst.Model,
					Messages: calls[q.idx].Messages,
					StreamID: inst.ID,
					Label:    inst.Label,
					Params:   inst.Params,
				})
				if err != nil {
					slog.Debug("instance call failed", "instance", inst.ID, "error", err)
					ch <- item{idx: q.idx, res: nil}
					continue
				}
				ch <- item{idx: q.idx, res: res}
			}
		}(inst, queues[inst.ID])
	}

	results := make([]*core.InvokeResult, len(calls))
	for range calls {
		it := <-ch
		results[it.idx] = it.res
		if onResult != nil {
			onResult(calls[it.idx], it.res)
		}
	}
	return results
}

// CallOne issues a single call with the same contract as Gather: a nil
// return means the call failed. The call gets its own fresh cancellation
// group, replacing the previous round's.
func (h *Helpers) CallOne(ctx context.Context, inst core.Instance, messages []core.Message) *core.InvokeResult {
	h.newRound(1)
	h.rc.Sink.InitStreaming([]string{inst.ID}, map[string]string{inst.ID: inst.DisplayName()})

	callCtx, cancel := context.WithCancel(ctx)
	h.cancels = append(h.cancels, cancel)

	res, err := h.rc.Invoker.Invoke(callCtx, core.InvokeRequest{
		Model:    inst.Model,
		Messages: messages,
		StreamID: inst.ID,
		Label:    inst.Label,
		Params:   inst.Params,
	})
	if err != nil {
		slog.Debug("instance call failed", "instance", inst.ID, "error", err)
		return nil
	}
	return res
}

// Conversation filters prior message history down to what is relevant for
// the target model (system and user messages plus assistant messages the
// same model produced) and appends content as the trailing user turn.
func (h *Helpers) Conversation(model string, content string) []core.Message {
	var msgs []core.Message
	for _, m := range h.rc.History {
		if m.Role == core.RoleAssistant && m.Model != model {
			continue
		}
		msgs = append(msgs, m)
	}
	return append(msgs, core.Message{Role: core.RoleUser, Content: content})
}
