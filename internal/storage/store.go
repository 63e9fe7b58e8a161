// Package storage persists sessions, match snapshots and the per-
// session move log in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code       string
	GameType   string
	Status     string // "waiting", "playing", "finished"
	VsComputer bool
	Level      string
	CreatedAt  time.Time
}

// MoveRow is one applied action, the durable mirror of the engine's
// move history.
type MoveRow struct {
	SessionCode string
	Seq         int
	PlayerID    string
	ActionJSON  string
	PlayedAt    time.Time
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			game_type  TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			vs_ai      INTEGER NOT NULL DEFAULT 0,
			level      TEXT NOT NULL DEFAULT 'medium',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS match_state (
			session_code TEXT PRIMARY KEY REFERENCES sessions(code),
			state_json   TEXT NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS move_log (
			session_code TEXT NOT NULL REFERENCES sessions(code),
			seq          INTEGER NOT NULL,
			player_id    TEXT NOT NULL,
			action_json  TEXT NOT NULL,
			played_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_code, seq)
		);
	`)
	return err
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(code, gameType string, vsComputer bool, level string) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, game_type, status, vs_ai, level) VALUES (?, ?, 'waiting', ?, ?)",
		code, gameType, vsComputer, level,
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow(
		"SELECT code, game_type, status, vs_ai, level, created_at FROM sessions WHERE code = ?", code)
	var sr SessionRow
	if err := row.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.VsComputer, &sr.Level, &sr.CreatedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// ListSessions returns all sessions with the given status (or all if status is empty).
func (s *Store) ListSessions(status string) ([]SessionRow, error) {
	var rows *sql.Rows
	var err error
	const cols = "code, game_type, status, vs_ai, level, created_at"
	if status == "" {
		rows, err = s.db.Query("SELECT " + cols + " FROM sessions ORDER BY created_at DESC")
	} else {
		rows, err = s.db.Query("SELECT "+cols+" FROM sessions WHERE status = ? ORDER BY created_at DESC", status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []SessionRow
	for rows.Next() {
		var sr SessionRow
		if err := rows.Scan(&sr.Code, &sr.GameType, &sr.Status, &sr.VsComputer, &sr.Level, &sr.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// SaveMatchState upserts match state JSON.
func (s *Store) SaveMatchState(sessionCode, stateJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO match_state (session_code, state_json, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_code) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at
	`, sessionCode, stateJSON)
	return err
}

// GetMatchState retrieves match state JSON.
func (s *Store) GetMatchState(sessionCode string) (string, error) {
	var stateJSON string
	err := s.db.QueryRow("SELECT state_json FROM match_state WHERE session_code = ?", sessionCode).Scan(&stateJSON)
	return stateJSON, err
}

// AppendMove records one applied action. seq is the 1-based position
// in the match.
func (s *Store) AppendMove(sessionCode string, seq int, playerID, actionJSON string) error {
	_, err := s.db.Exec(
		"INSERT INTO move_log (session_code, seq, player_id, action_json) VALUES (?, ?, ?, ?)",
		sessionCode, seq, playerID, actionJSON,
	)
	return err
}

// TrimMoves drops log entries past seq, matching an undo.
func (s *Store) TrimMoves(sessionCode string, seq int) error {
	_, err := s.db.Exec("DELETE FROM move_log WHERE session_code = ? AND seq > ?", sessionCode, seq)
	return err
}

// ListMoves returns a session's move log in play order.
func (s *Store) ListMoves(sessionCode string) ([]MoveRow, error) {
	rows, err := s.db.Query(
		"SELECT session_code, seq, player_id, action_json, played_at FROM move_log WHERE session_code = ? ORDER BY seq",
		sessionCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MoveRow
	for rows.Next() {
		var mr MoveRow
		if err := rows.Scan(&mr.SessionCode, &mr.Seq, &mr.PlayerID, &mr.ActionJSON, &mr.PlayedAt); err != nil {
			return nil, err
		}
		result = append(result, mr)
	}
	return result, rows.Err()
}

// DeleteSession removes a session with its match state and move log.
func (s *Store) DeleteSession(code string) error {
	for _, q := range []string{
		"DELETE FROM move_log WHERE session_code = ?",
		"DELETE FROM match_state WHERE session_code = ?",
		"DELETE FROM sessions WHERE code = ?",
	} {
		if _, err := s.db.Exec(q, code); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
