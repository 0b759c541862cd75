package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nhalim/symposium/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		mode TEXT NOT NULL,
		prompt TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		instances_json TEXT NOT NULL,
		results_json TEXT,
		usage_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		instance_id TEXT NOT NULL,
		model TEXT NOT NULL,
		role TEXT,
		round INTEGER NOT NULL,
		content TEXT NOT NULL,
		usage_json TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session record.
func (s *SQLiteStorage) CreateSession(session *core.Session) error {
	instancesJSON, err := json.Marshal(session.Instances)
	if err != nil {
		return fmt.Errorf("failed to marshal instances: %w", err)
	}

	var resultsJSON *string
	if session.Results != nil {
		data, err := json.Marshal(session.Results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		str := string(data)
		resultsJSON = &str
	}

	usageJSON, err := json.Marshal(session.Usage)
	if err != nil {
		return fmt.Errorf("failed to marshal usage: %w", err)
	}

	query := `
	INSERT INTO sessions (id, title, mode, prompt, status, instances_json, results_json, usage_json, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		session.ID,
		session.Title,
		string(session.Mode),
		session.Prompt,
		string(session.Status),
		string(instancesJSON),
		resultsJSON,
		string(usageJSON),
		session.CreatedAt,
		session.UpdatedAt,
		session.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID. A missing session returns (nil, nil).
func (s *SQLiteStorage) GetSession(id string) (*core.Session, error) {
	query := `
	SELECT id, title, mode, prompt, status, instances_json, results_json, usage_json, created_at, updated_at, completed_at
	FROM sessions
	WHERE id = ?
	`

	var session core.Session
	var instancesJSON, usageJSON string
	var resultsJSON sql.NullString
	var completedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&session.ID,
		&session.Title,
		&session.Mode,
		&session.Prompt,
		&session.Status,
		&instancesJSON,
		&resultsJSON,
		&usageJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(instancesJSON), &session.Instances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal instances: %w", err)
	}

	if resultsJSON.Valid {
		if err := json.Unmarshal([]byte(resultsJSON.String), &session.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}

	if err := json.Unmarshal([]byte(usageJSON), &session.Usage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage: %w", err)
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}

// UpdateSession updates an existing session.
func (s *SQLiteStorage) UpdateSession(session *core.Session) error {
	instancesJSON, err := json.Marshal(session.Instances)
	if err != nil {
		return fmt.Errorf("failed to marshal instances: %w", err)
	}

	var resultsJSON *string
	if session.Results != nil {
		data, err := json.Marshal(session.Results)
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		str := string(data)
		resultsJSON = &str
	}

	usageJSON, err := json.Marshal(session.Usage)
	if err != nil {
		return fmt.Errorf("failed to marshal usage: %w", err)
	}

	session.UpdatedAt = time.Now()

	query := `
	UPDATE sessions
	SET title = ?, mode = ?, prompt = ?, status = ?, instances_json = ?, results_json = ?, usage_json = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`

	_, err = s.db.Exec(query,
		session.Title,
		string(session.Mode),
		session.Prompt,
		string(session.Status),
		string(instancesJSON),
		resultsJSON,
		string(usageJSON),
		session.UpdatedAt,
		session.CompletedAt,
		session.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// DeleteSession deletes a session and its turns.
func (s *SQLiteStorage) DeleteSession(id string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns session summaries, newest first.
func (s *SQLiteStorage) ListSessions(limit, offset int) ([]*core.SessionSummary, error) {
	query := `
	SELECT s.id, s.title, s.mode, s.prompt, s.status, s.created_at,
		   (SELECT COUNT(*) FROM turns WHERE session_id = s.id) as turn_count
	FROM sessions s
	ORDER BY s.created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*core.SessionSummary
	for rows.Next() {
		var summary core.SessionSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Mode,
			&summary.Prompt,
			&summary.Status,
			&summary.CreatedAt,
			&summary.TurnCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// AddTurn adds a turn to a session.
func (s *SQLiteStorage) AddTurn(sessionID string, turn *core.Turn) error {
	var usageJSON *string
	if turn.Usage != nil {
		data, err := json.Marshal(turn.Usage)
		if err != nil {
			return fmt.Errorf("failed to marshal turn usage: %w", err)
		}
		str := string(data)
		usageJSON = &str
	}

	query := `
	INSERT INTO turns (id, session_id, instance_id, model, role, round, content, usage_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		turn.ID,
		sessionID,
		turn.InstanceID,
		turn.Model,
		turn.Role,
		turn.Round,
		turn.Content,
		usageJSON,
		turn.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	return nil
}

// GetTurns returns all turns for a session ordered by round, then insertion.
func (s *SQLiteStorage) GetTurns(sessionID string) ([]*core.Turn, error) {
	query := `
	SELECT id, instance_id, model, role, round, content, usage_json, created_at
	FROM turns
	WHERE session_id = ?
	ORDER BY round ASC, created_at ASC, rowid ASC
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	var turns []*core.Turn
	for rows.Next() {
		var turn core.Turn
		var usageJSON sql.NullString
		err := rows.Scan(
			&turn.ID,
			&turn.InstanceID,
			&turn.Model,
			&turn.Role,
			&turn.Round,
			&turn.Content,
			&usageJSON,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if usageJSON.Valid {
			if err := json.Unmarshal([]byte(usageJSON.String), &turn.Usage); err != nil {
				return nil, fmt.Errorf("failed to unmarshal turn usage: %w", err)
			}
		}
		turns = append(turns, &turn)
	}

	return turns, rows.Err()
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "symposium.db"
	}
	return filepath.Join(home, ".symposium", "symposium.db")
}
