// Package session runs collaboration sessions end to end: it creates the
// persisted record, drives the selected mode against the configured
// instances, streams live state to subscribers and stores the outcome.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nhalim/symposium/internal/config"
	"github.com/nhalim/symposium/internal/core"
	"github.com/nhalim/symposium/internal/modes"
	"github.com/nhalim/symposium/internal/provider"
	"github.com/nhalim/symposium/internal/runner"
	"github.com/nhalim/symposium/internal/storage"
)

// Engine orchestrates collaboration sessions.
type Engine struct {
	storage  storage.Storage
	registry *provider.Registry
	cfg      *config.Config

	mu   sync.Mutex
	hubs map[string]*Hub // live hubs for in-progress sessions
}

// New creates a session engine.
func New(store storage.Storage, registry *provider.Registry, cfg *config.Config) *Engine {
	return &Engine{
		storage:  store,
		registry: registry,
		cfg:      cfg,
		hubs:     make(map[string]*Hub),
	}
}

// RunRequest describes one session run.
type RunRequest struct {
	Mode      core.Mode
	Prompt    string
	Instances []core.Instance // empty means the configured instances
	History   []core.Message  // prior conversation, if any
	Options   *runner.Options // nil means defaults from config
}

// CreateSession validates the request and persists a pending session.
func (e *Engine) CreateSession(req RunRequest) (*core.Session, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if !validMode(req.Mode) {
		return nil, fmt.Errorf("unknown mode: %s", req.Mode)
	}

	instances := req.Instances
	if len(instances) == 0 {
		instances = e.cfg.CoreInstances()
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances configured")
	}
	for _, inst := range instances {
		providerName, _, err := provider.SplitModel(inst.Model)
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", inst.ID, err)
		}
		if !e.registry.Has(providerName) {
			return nil, fmt.Errorf("instance %s references unknown provider %s", inst.ID, providerName)
		}
	}

	now := time.Now()
	session := &core.Session{
		ID:        core.GenerateID(),
		Title:     titleFromPrompt(req.Prompt),
		Mode:      req.Mode,
		Prompt:    req.Prompt,
		Status:    core.StatusPending,
		Instances: instances,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.storage.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Run executes a previously created session to completion. Live state is
// available through Hub(sessionID) while the run is in flight.
func (e *Engine) Run(ctx context.Context, sessionID string, req RunRequest) (*core.Session, []*core.Result, error) {
	session, err := e.storage.GetSession(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if session.Status == core.StatusCompleted {
		return nil, nil, fmt.Errorf("session is already completed")
	}

	session.Status = core.StatusInProgress
	if err := e.storage.UpdateSession(session); err != nil {
		return nil, nil, fmt.Errorf("failed to update session status: %w", err)
	}

	hub := NewHub()
	e.mu.Lock()
	e.hubs[session.ID] = hub
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.hubs, session.ID)
		e.mu.Unlock()
	}()

	opts := e.options(req.Options)
	rc := &runner.Context{
		Instances: session.Instances,
		History:   req.History,
		Invoker:   provider.NewInvoker(e.registry),
		Sink:      hub,
		Options:   opts,
	}

	slog.Info("running session",
		"session", session.ID,
		"mode", session.Mode,
		"instances", len(session.Instances))

	results, err := modes.Run(ctx, session.Mode, session.Prompt, rc)
	if err != nil {
		session.Status = core.StatusFailed
		e.storage.UpdateSession(session)
		hub.Close(Event{Type: EventSessionFailed, Data: map[string]string{"error": err.Error()}})
		return nil, nil, fmt.Errorf("mode execution failed: %w", err)
	}

	e.persistOutcome(session, hub.State(), results)
	hub.Close(Event{Type: EventSessionDone, Data: session})
	return session, results, nil
}

// persistOutcome stores turns, results and usage for a finished run.
func (e *Engine) persistOutcome(session *core.Session, state core.ModeState, results []*core.Result) {
	if state != nil {
		for _, turn := range state.AllTurns() {
			t := turn
			if err := e.storage.AddTurn(session.ID, &t); err != nil {
				slog.Error("failed to persist turn", "session", session.ID, "turn", t.ID, "error", err)
			}
		}
		for _, turn := range state.AllTurns() {
			session.Usage = session.Usage.Add(turn.Usage)
		}
	}

	session.Results = results
	now := time.Now()
	session.Status = core.StatusCompleted
	session.CompletedAt = &now
	if err := e.storage.UpdateSession(session); err != nil {
		slog.Error("failed to persist session outcome", "session", session.ID, "error", err)
	}
}

// Hub returns the live hub for an in-progress session, or nil.
func (e *Engine) Hub(sessionID string) *Hub {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hubs[sessionID]
}

// GetSession retrieves a session by ID.
func (e *Engine) GetSession(id string) (*core.Session, error) {
	return e.storage.GetSession(id)
}

// GetSessionWithTurns retrieves a session and all its turns.
func (e *Engine) GetSessionWithTurns(id string) (*core.Session, []*core.Turn, error) {
	session, err := e.storage.GetSession(id)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	turns, err := e.storage.GetTurns(id)
	if err != nil {
		return nil, nil, err
	}

	return session, turns, nil
}

// ListSessions returns session summaries.
func (e *Engine) ListSessions(limit, offset int) ([]*core.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.storage.ListSessions(limit, offset)
}

// DeleteSession deletes a session.
func (e *Engine) DeleteSession(id string) error {
	return e.storage.DeleteSession(id)
}

// Registry exposes the provider registry for health endpoints.
func (e *Engine) Registry() *provider.Registry {
	return e.registry
}

// Instances returns the configured instance list.
func (e *Engine) Instances() []core.Instance {
	return e.cfg.CoreInstances()
}

// options merges explicit run options over the configured defaults.
func (e *Engine) options(explicit *runner.Options) runner.Options {
	opts := runner.Options{
		PrimaryID:       e.cfg.Defaults.Primary,
		Rounds:          e.cfg.Defaults.Rounds,
		MaxRounds:       e.cfg.Defaults.MaxRounds,
		Threshold:       e.cfg.Defaults.ConsensusThreshold,
		AutoAssignRoles: e.cfg.Defaults.AutoAssignRoles,
	}
	if explicit == nil {
		return opts
	}
	if explicit.PrimaryID != "" {
		opts.PrimaryID = explicit.PrimaryID
	}
	if explicit.Rounds > 0 {
		opts.Rounds = explicit.Rounds
	}
	if explicit.MaxRounds > 0 {
		opts.MaxRounds = explicit.MaxRounds
	}
	if explicit.Threshold > 0 {
		opts.Threshold = explicit.Threshold
	}
	if len(explicit.Roles) > 0 {
		opts.Roles = explicit.Roles
	}
	if explicit.AutoAssignRoles {
		opts.AutoAssignRoles = true
	}
	return opts
}

// titleFromPrompt derives a short session title from the prompt's first line.
func titleFromPrompt(prompt string) string {
	line := strings.TrimSpace(prompt)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	words := strings.Fields(line)
	if len(words) > 8 {
		line = strings.Join(words[:8], " ") + "..."
	}
	return line
}

func validMode(m core.Mode) bool {
	for _, known := range core.Modes() {
		if m == known {
			return true
		}
	}
	return false
}
