// Package storage provides persistence for collaboration sessions.
package storage

import (
	"github.com/nhalim/symposium/internal/core"
)

// Storage defines the interface for session persistence.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Session operations
	CreateSession(session *core.Session) error
	GetSession(id string) (*core.Session, error)
	UpdateSession(session *core.Session) error
	DeleteSession(id string) error
	ListSessions(limit, offset int) ([]*core.SessionSummary, error)

	// Turn operations
	AddTurn(sessionID string, turn *core.Turn) error
	GetTurns(sessionID string) ([]*core.Turn, error)
}
