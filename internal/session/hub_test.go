package session

import (
	"testing"

	"github.com/nhalim/symposium/internal/core"
)

func TestHubPublishesStateToSubscribers(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	state := &core.ParallelState{Phase: core.PhaseResponding}
	hub.SetModeState(state)

	ev := <-events
	if ev.Type != EventState {
		t.Errorf("event type = %s, want %s", ev.Type, EventState)
	}
	if ev.Data != core.ModeState(state) {
		t.Errorf("event carries wrong state: %+v", ev.Data)
	}
	if hub.State() != core.ModeState(state) {
		t.Error("State() should return the last published state")
	}
}

func TestHubStateNilBeforeFirstPublish(t *testing.T) {
	hub := NewHub()
	if hub.State() != nil {
		t.Error("State() should be nil before any publish")
	}

	// UpdateModeState on a nil state is a no-op for the state itself
	hub.UpdateModeState(func(s core.ModeState) core.ModeState {
		t.Error("update fn should not run with no current state")
		return s
	})
	if hub.State() != nil {
		t.Error("State() should remain nil")
	}
}

func TestHubUpdateModeState(t *testing.T) {
	hub := NewHub()
	hub.SetModeState(&core.ParallelState{Phase: core.PhaseResponding})

	hub.UpdateModeState(func(s core.ModeState) core.ModeState {
		ps := s.(*core.ParallelState)
		ps.Phase = core.PhaseDone
		return ps
	})

	if hub.State().CurrentPhase() != core.PhaseDone {
		t.Errorf("phase = %s, want %s", hub.State().CurrentPhase(), core.PhaseDone)
	}
}

func TestHubInitStreaming(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	hub.InitStreaming([]string{"inst-1"}, map[string]string{"inst-1": "claude/sonnet"})

	ev := <-events
	if ev.Type != EventStreamInit {
		t.Errorf("event type = %s, want %s", ev.Type, EventStreamInit)
	}
}

func TestHubDropsEventsForSlowSubscribers(t *testing.T) {
	hub := NewHub()
	events, cancel := hub.Subscribe()
	defer cancel()

	// A subscriber channel buffers 64 events; beyond that, publishes drop
	// instead of blocking.
	for i := 0; i < 100; i++ {
		hub.SetModeState(&core.ParallelState{Phase: core.PhaseResponding})
	}

	if got := len(events); got != 64 {
		t.Errorf("buffered events = %d, want 64", got)
	}
}

func TestHubCloseDeliversFinalEventAndClosesChannels(t *testing.T) {
	hub := NewHub()
	events, _ := hub.Subscribe()

	hub.Close(Event{Type: EventSessionDone})

	ev, ok := <-events
	if !ok {
		t.Fatal("final event not delivered")
	}
	if ev.Type != EventSessionDone {
		t.Errorf("event type = %s, want %s", ev.Type, EventSessionDone)
	}

	if _, ok := <-events; ok {
		t.Error("channel should be closed after the final event")
	}
}

func TestHubSubscribeAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close(Event{Type: EventSessionFailed})

	events, cancel := hub.Subscribe()
	defer cancel()

	if _, ok := <-events; ok {
		t.Error("subscribing to a closed hub should return a closed channel")
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	cancel()
	cancel()

	// Publishing after cancel must not panic on the removed channel.
	hub.SetModeState(&core.ParallelState{Phase: core.PhaseDone})
	hub.Close(Event{Type: EventSessionDone})
}
