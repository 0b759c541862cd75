package session

import (
	"sync"

	"github.com/nhalim/symposium/internal/core"
)

// EventType tags a live session event.
type EventType string

const (
	EventStreamInit    EventType = "stream_init"
	EventState         EventType = "state"
	EventSessionDone   EventType = "session_complete"
	EventSessionFailed EventType = "session_failed"
)

// Event is one live update pushed to session subscribers.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Hub implements core.StateSink for one running session and fans events out
// to any number of subscribers. The orchestration core publishes from a
// single goroutine; subscribers receive on buffered channels and slow
// consumers drop events rather than stall the run.
type Hub struct {
	mu    sync.Mutex
	state core.ModeState
	subs  map[chan Event]struct{}
	done  bool
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// InitStreaming implements core.StateSink.
func (h *Hub) InitStreaming(ids []string, models map[string]string) {
	h.publish(Event{Type: EventStreamInit, Data: map[string]interface{}{
		"ids":    ids,
		"models": models,
	}})
}

// SetModeState implements core.StateSink.
func (h *Hub) SetModeState(state core.ModeState) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
	h.publish(Event{Type: EventState, Data: state})
}

// UpdateModeState implements core.StateSink.
func (h *Hub) UpdateModeState(fn func(core.ModeState) core.ModeState) {
	h.mu.Lock()
	if h.state != nil {
		h.state = fn(h.state)
	}
	state := h.state
	h.mu.Unlock()
	h.publish(Event{Type: EventState, Data: state})
}

// State returns the latest published mode state, or nil before the first
// publication.
func (h *Hub) State() core.ModeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe registers a new subscriber. The returned cancel function must be
// called when the subscriber is done.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Close publishes a final event and closes every subscriber channel.
func (h *Hub) Close(final Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	h.done = true
	for ch := range h.subs {
		select {
		case ch <- final:
		default:
		}
		close(ch)
		delete(h.subs, ch)
	}
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default: // drop for slow subscribers
		}
	}
}
