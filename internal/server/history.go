package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Roles as stored in the chat table.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

const chatSchema = `
CREATE TABLE IF NOT EXISTS chat (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL CHECK(role IN ('user', 'ai')),
	message    TEXT NOT NULL,
	timestamp  DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const timestampExpr = `strftime('%Y-%m-%d %H:%M:%S', timestamp)`

// Entry is one stored message. It encodes as [role, message, timestamp].
type Entry struct {
	Role      string
	Message   string
	Timestamp string
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{e.Role, e.Message, e.Timestamp})
}

// Session encodes as [session_id, last_timestamp].
type Session struct {
	ID       string
	LastSeen string
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{s.ID, s.LastSeen})
}

// History keeps per-session chat logs in SQLite.
type History struct {
	db *sql.DB
}

func NewHistory(ctx context.Context, db *sql.DB) (*History, error) {
	if _, err := db.ExecContext(ctx, chatSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize chat schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Save(ctx context.Context, sessionID, role, message string) error {
	_, err := h.db.ExecContext(ctx,
		"INSERT INTO chat (session_id, role, message) VALUES (?, ?, ?)",
		sessionID, role, message)
	if err != nil {
		return fmt.Errorf("failed to save %s message: %w", role, err)
	}
	return nil
}

// List returns a session's messages oldest first.
func (h *History) List(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT role, message, "+timestampExpr+" FROM chat WHERE session_id = ? ORDER BY id ASC",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Role, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes a session's messages and reports how many were removed.
func (h *History) Clear(ctx context.Context, sessionID string) (int64, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM chat WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear session: %w", err)
	}
	return res.RowsAffected()
}

// Sessions lists every session with its latest timestamp, newest first.
func (h *History) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT session_id, MAX(`+timestampExpr+`) AS last_time
		FROM chat
		GROUP BY session_id
		ORDER BY last_time DESC, MAX(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
