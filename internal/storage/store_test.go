package storage

import (
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateSession(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateSession("abc123", "connect4", false, "medium"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	// Duplicate code should error
	if err := s.CreateSession("abc123", "connect4", false, "medium"); err == nil {
		t.Fatal("expected error on duplicate code")
	}
}

func TestGetSession(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "gomoku", true, "hard")

	row, err := s.GetSession("abc123")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.Code != "abc123" {
		t.Fatalf("expected code abc123, got %s", row.Code)
	}
	if row.GameType != "gomoku" {
		t.Fatalf("expected gameType gomoku, got %s", row.GameType)
	}
	if row.Status != "waiting" {
		t.Fatalf("expected status waiting, got %s", row.Status)
	}
	if !row.VsComputer {
		t.Fatal("expected vs-computer flag to persist")
	}
	if row.Level != "hard" {
		t.Fatalf("expected level hard, got %s", row.Level)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession("nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateSessionStatus(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "connect4", false, "medium")

	if err := s.UpdateSessionStatus("abc123", "playing"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	row, err := s.GetSession("abc123")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.Status != "playing" {
		t.Fatalf("expected playing, got %s", row.Status)
	}
}

func TestListSessionsFiltered(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("aaa", "connect4", false, "medium")
	s.CreateSession("bbb", "trio", false, "medium")
	s.UpdateSessionStatus("bbb", "playing")

	rows, err := s.ListSessions("waiting")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 waiting session, got %d", len(rows))
	}
	if rows[0].Code != "aaa" {
		t.Fatalf("expected code aaa, got %s", rows[0].Code)
	}
}

func TestSaveMatchStateUpsert(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "connect4", false, "medium")

	s.SaveMatchState("abc123", `{"v":1}`)
	s.SaveMatchState("abc123", `{"v":2}`)

	got, err := s.GetMatchState("abc123")
	if err != nil {
		t.Fatalf("get match state: %v", err)
	}
	if got != `{"v":2}` {
		t.Fatalf("expected upserted value, got %s", got)
	}
}

func TestMoveLogRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "connect4", true, "medium")

	actions := []string{
		`{"type":"drop","payload":{"col":3}}`,
		`{"type":"drop","payload":{"col":2}}`,
		`{"type":"drop","payload":{"col":3}}`,
	}
	players := []string{"alice", "cpu", "alice"}
	for i, a := range actions {
		if err := s.AppendMove("abc123", i+1, players[i], a); err != nil {
			t.Fatalf("append move %d: %v", i+1, err)
		}
	}

	rows, err := s.ListMoves("abc123")
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 moves, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Seq != i+1 {
			t.Fatalf("expected seq %d, got %d", i+1, row.Seq)
		}
		if row.PlayerID != players[i] {
			t.Fatalf("expected player %s, got %s", players[i], row.PlayerID)
		}
		if row.ActionJSON != actions[i] {
			t.Fatalf("expected action %s, got %s", actions[i], row.ActionJSON)
		}
	}
}

func TestMoveLogDuplicateSeq(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "connect4", false, "medium")
	s.AppendMove("abc123", 1, "alice", `{}`)
	if err := s.AppendMove("abc123", 1, "bob", `{}`); err == nil {
		t.Fatal("expected error on duplicate sequence number")
	}
}

func TestTrimMoves(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "gomoku", true, "easy")
	for i := 1; i <= 4; i++ {
		s.AppendMove("abc123", i, "alice", `{}`)
	}
	if err := s.TrimMoves("abc123", 2); err != nil {
		t.Fatalf("trim moves: %v", err)
	}
	rows, err := s.ListMoves("abc123")
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 moves after trim, got %d", len(rows))
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	s.CreateSession("abc123", "connect4", false, "medium")
	s.SaveMatchState("abc123", `{"v":1}`)
	s.AppendMove("abc123", 1, "alice", `{}`)

	if err := s.DeleteSession("abc123"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := s.GetSession("abc123"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
	if _, err := s.GetMatchState("abc123"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows for match state after delete, got %v", err)
	}
	rows, err := s.ListMoves("abc123")
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty move log after delete, got %d rows", len(rows))
	}
}
