// Package core contains the core domain types for symposium.
package core

import (
	"time"
)

// Mode identifies a collaboration strategy.
type Mode string

const (
	ModeParallel     Mode = "parallel"
	ModeSynthesized  Mode = "synthesized"
	ModeConfidence   Mode = "confidence"
	ModeRouted       Mode = "routed"
	ModeElected      Mode = "elected"
	ModeConsensus    Mode = "consensus"
	ModeDebated      Mode = "debated"
	ModeCouncil      Mode = "council"
	ModeCritiqued    Mode = "critiqued"
	ModeHierarchical Mode = "hierarchical"
	ModeTournament   Mode = "tournament"
	ModeExplainer    Mode = "explainer"
)

// Modes lists every runnable mode in display order.
func Modes() []Mode {
	return []Mode{
		ModeParallel, ModeSynthesized, ModeConfidence, ModeRouted,
		ModeElected, ModeConsensus, ModeDebated, ModeCouncil,
		ModeCritiqued, ModeHierarchical, ModeTournament, ModeExplainer,
	}
}

// CallParams holds optional per-instance call parameters.
type CallParams struct {
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Instance is one configured model endpoint participating in a run.
// Instances are supplied by the caller for the run's lifetime; the core
// only reads and filters them.
type Instance struct {
	ID     string      `json:"id"`
	Model  string      `json:"model"` // "provider/model"
	Label  string      `json:"label,omitempty"`
	Params *CallParams `json:"params,omitempty"`
}

// DisplayName returns the label if set, otherwise the short model name.
func (i Instance) DisplayName() string {
	if i.Label != "" {
		return i.Label
	}
	return ShortModelName(i.Model)
}

// Usage holds token accounting for a single model invocation.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// Add returns the sum of u and other. A nil other is a no-op.
func (u Usage) Add(other *Usage) Usage {
	if other == nil {
		return u
	}
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
		Cost:         u.Cost + other.Cost,
	}
}

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged input item for a model invocation.
// Model records which model produced an assistant message; the
// conversation builder uses it to filter history per target model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

// Turn is the atomic unit produced by one instance in one round.
// Turns accumulate monotonically; nothing is ever removed.
type Turn struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Model      string    `json:"model"`
	Role       string    `json:"role,omitempty"` // position, council role or audience
	Round      int       `json:"round"`
	Content    string    `json:"content"`
	Usage      *Usage    `json:"usage,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Result is one instance's user-visible output for a run. A nil *Result at
// a position means that instance produced nothing user-visible.
type Result struct {
	InstanceID string `json:"instance_id"`
	Content    string `json:"content"`
	Usage      *Usage `json:"usage,omitempty"`
}

// Match records one judged tournament pairing. It is immutable once the
// winner is recorded.
type Match struct {
	ID          string `json:"id"`
	Round       int    `json:"round"`
	CompetitorA string `json:"competitor_a"`
	CompetitorB string `json:"competitor_b"`
	JudgeID     string `json:"judge_id"`
	WinnerID    string `json:"winner_id"`
	Verdict     string `json:"verdict"`
	Usage       *Usage `json:"usage,omitempty"`
}

// Subtask is one unit of hierarchical decomposition.
type Subtask struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	AssignedModel string `json:"assignedModel,omitempty"`
	AssignedTo    string `json:"assigned_to,omitempty"` // instance id after assignment
	Result        string `json:"result,omitempty"`
}

// SessionStatus represents the lifecycle of a stored session.
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Session is a persisted record of one mode run.
type Session struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Mode        Mode          `json:"mode"`
	Prompt      string        `json:"prompt"`
	Status      SessionStatus `json:"status"`
	Instances   []Instance    `json:"instances,omitempty"`
	Results     []*Result     `json:"results,omitempty"`
	Usage       Usage         `json:"usage"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// SessionSummary is a lightweight representation for listing sessions.
type SessionSummary struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Mode      Mode          `json:"mode"`
	Prompt    string        `json:"prompt"`
	Status    SessionStatus `json:"status"`
	TurnCount int           `json:"turn_count"`
	CreatedAt time.Time     `json:"created_at"`
}
