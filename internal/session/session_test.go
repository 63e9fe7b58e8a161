package session

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/connectfour"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game/trio"
	"github.com/kuelshammer/LogicCastle-sub007/internal/storage"
)

func setupTest(t *testing.T) (*Manager, func()) {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	reg := game.NewRegistry()
	reg.Register(connectfour.ConnectFour{})
	reg.Register(trio.Trio{})
	mgr := NewManager(reg, store)
	return mgr, func() { store.Close() }
}

func dropAction(col int) game.Action {
	payload, _ := json.Marshal(map[string]int{"col": col})
	return game.Action{Type: "drop", Payload: payload}
}

func TestCreateAndJoin(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, err := mgr.Create("connect4", false, "medium")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Code == "" {
		t.Fatal("expected non-empty code")
	}

	if err := sess.AddPlayer("alice"); err != nil {
		t.Fatalf("add alice: %v", err)
	}
	if err := sess.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	info := sess.Info()
	if len(info.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(info.Players))
	}
	if info.Status != StatusWaiting {
		t.Fatalf("expected waiting, got %s", info.Status)
	}
	if info.VsComputer {
		t.Fatal("expected a human-only session")
	}
}

func TestSessionFull(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")

	if err := sess.AddPlayer("charlie"); err == nil {
		t.Fatal("expected error for full session")
	}
}

func TestVsComputerReservesSeat(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, err := mgr.Create("connect4", true, "hard")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := sess.AddPlayer("alice"); err != nil {
		t.Fatalf("add alice: %v", err)
	}
	// the second seat belongs to the engine
	if err := sess.AddPlayer("bob"); err == nil {
		t.Fatal("expected error: engine seat taken by human")
	}
	if err := sess.AddPlayer(game.ComputerID); err == nil {
		t.Fatal("expected reserved-name error")
	}

	if err := sess.Start(); err != nil {
		t.Fatalf("start solo vs engine: %v", err)
	}
	// alice is seat 0, the engine is seat 1
	if sess.Match.ValidActions("alice") == nil {
		t.Fatal("expected alice on turn")
	}
	if sess.Match.ValidActions(game.ComputerID) != nil {
		t.Fatal("engine on turn at game start")
	}
}

func TestAdvanceComputer(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", true, "medium")
	sess.AddPlayer("alice")
	if err := sess.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := sess.Match.ApplyAction("alice", dropAction(3)); err != nil {
		t.Fatalf("alice drop: %v", err)
	}

	sess.Lock()
	applied := sess.AdvanceComputer()
	sess.Unlock()

	if len(applied) != 1 {
		t.Fatalf("expected 1 engine move, got %d", len(applied))
	}
	if applied[0].Type != "drop" {
		t.Fatalf("engine action type = %q", applied[0].Type)
	}
	// after the reply it is alice's turn again
	if sess.Match.ValidActions("alice") == nil {
		t.Fatal("expected alice back on turn")
	}
}

func TestAdvanceComputerNoopWhenHumanOnTurn(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", true, "medium")
	sess.AddPlayer("alice")
	sess.Start()

	sess.Lock()
	applied := sess.AdvanceComputer()
	sess.Unlock()
	if applied != nil {
		t.Fatalf("engine moved out of turn: %v", applied)
	}
}

func TestStartAndPlay(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "easy")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")

	if err := sess.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.Status != StatusPlaying {
		t.Fatalf("expected playing, got %s", sess.Status)
	}
	if sess.Match == nil {
		t.Fatal("expected match to be created")
	}
}

func TestStartNotEnoughPlayers(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")

	if err := sess.Start(); err == nil {
		t.Fatal("expected error for not enough players")
	}
}

func TestSinglePlayerGame(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("trio", false, "medium")
	sess.AddPlayer("alice")
	if err := sess.Start(); err != nil {
		t.Fatalf("start single-player puzzle: %v", err)
	}
	if sess.Match.ValidActions("alice") == nil {
		t.Fatal("expected claims for the first round")
	}
}

func TestPersistence(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer store.Close()

	reg := game.NewRegistry()
	reg.Register(connectfour.ConnectFour{})

	mgr := NewManager(reg, store)
	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()

	if err := sess.Match.ApplyAction(sess.PlayerIDs()[0], dropAction(3)); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if err := mgr.SaveMatchState(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	mgr2 := NewManager(reg, store)
	if err := mgr2.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}

	sess2, ok := mgr2.Get(sess.Code)
	if !ok {
		t.Fatal("session not restored")
	}
	if sess2.Status != StatusPlaying {
		t.Fatalf("expected playing, got %s", sess2.Status)
	}
	if sess2.Match == nil {
		t.Fatal("match not restored")
	}
	// the restored match carries the committed move: bob is on turn
	if sess2.Match.ValidActions("bob") == nil {
		t.Fatal("expected bob on turn after restore")
	}
}

func TestMoveLogPersistence(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()

	mgr.LogMove(sess, 1, "alice", dropAction(3))
	mgr.LogMove(sess, 2, "bob", dropAction(2))

	moves, err := mgr.Moves(sess.Code)
	if err != nil {
		t.Fatalf("list moves: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("expected 2 logged moves, got %d", len(moves))
	}
	if moves[0].PlayerID != "alice" || moves[1].PlayerID != "bob" {
		t.Fatalf("move order wrong: %+v", moves)
	}

	mgr.TrimMoveLog(sess, 1)
	moves, _ = mgr.Moves(sess.Code)
	if len(moves) != 1 {
		t.Fatalf("expected 1 move after trim, got %d", len(moves))
	}
}

func TestUnknownGameType(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	if _, err := mgr.Create("nonexistent", false, "medium"); err == nil {
		t.Fatal("expected error for unknown game type")
	}
}

// --- Session mutation tests ---

func TestRemovePlayer(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")

	p := sess.GetPlayer("alice")
	send := p.Send

	sess.RemovePlayer("alice")

	info := sess.Info()
	if len(info.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(info.Players))
	}
	// Channel should be closed
	if _, ok := <-send; ok {
		t.Fatal("expected send channel to be closed")
	}
}

func TestRemovePlayerNonexistent(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	// Should not panic
	sess.RemovePlayer("nobody")
}

func TestConnectPlayer(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")

	newSend := make(chan []byte, 64)
	if !sess.ConnectPlayer("alice", newSend) {
		t.Fatal("expected ConnectPlayer to return true")
	}

	p := sess.GetPlayer("alice")
	if p.Send != newSend {
		t.Fatal("expected Send channel to be replaced")
	}
}

func TestConnectPlayerNonexistent(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	if sess.ConnectPlayer("nobody", make(chan []byte, 1)) {
		t.Fatal("expected ConnectPlayer to return false for unknown player")
	}
}

func TestBroadcastDelivery(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")

	msg := []byte(`{"type":"test"}`)
	sess.Broadcast(msg)

	for _, id := range []string{"alice", "bob"} {
		p := sess.GetPlayer(id)
		select {
		case got := <-p.Send:
			if string(got) != string(msg) {
				t.Fatalf("%s got %s, expected %s", id, got, msg)
			}
		default:
			t.Fatalf("expected %s to receive broadcast", id)
		}
	}
}

func TestBroadcastBufferFull(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")

	p := sess.GetPlayer("alice")
	for i := 0; i < cap(p.Send); i++ {
		p.Send <- []byte("filler")
	}

	// Should not panic or block
	sess.Broadcast([]byte(`{"type":"dropped"}`))
}

func TestSeatingFollowsJoinOrder(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("zoe")
	sess.AddPlayer("adam")

	ids := sess.PlayerIDs()
	if len(ids) != 2 || ids[0] != "zoe" || ids[1] != "adam" {
		t.Fatalf("expected [zoe adam], got %v", ids)
	}

	sess.Start()
	// first to join moves first
	if sess.Match.ValidActions("zoe") == nil {
		t.Fatal("expected zoe on turn")
	}
}

func TestHostAssignment(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	if sess.Info().HostID != "alice" {
		t.Fatalf("expected alice as host, got %s", sess.Info().HostID)
	}

	sess.AddPlayer("bob")
	if sess.Info().HostID != "alice" {
		t.Fatalf("expected host to remain alice, got %s", sess.Info().HostID)
	}
}

func TestAddPlayerDuplicate(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	if err := sess.AddPlayer("alice"); err == nil {
		t.Fatal("expected error on duplicate player")
	}
}

func TestAddPlayerToStartedSession(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()

	if err := sess.AddPlayer("charlie"); err == nil {
		t.Fatal("expected error adding player to started session")
	}
}

func TestStartTwice(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()

	if err := sess.Start(); err == nil {
		t.Fatal("expected error on second Start()")
	}
}

func TestFinish(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()
	sess.Finish()

	if sess.Info().Status != StatusFinished {
		t.Fatalf("expected finished, got %s", sess.Info().Status)
	}
}

// --- Manager edge case tests ---

func TestManagerRemove(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	code := sess.Code

	mgr.Remove(code)

	if _, ok := mgr.Get(code); ok {
		t.Fatal("expected session to be removed")
	}
}

func TestManagerList(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	mgr.Create("connect4", false, "medium")
	mgr.Create("connect4", true, "hard")

	infos := mgr.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(infos))
	}
}

func TestManagerCleanupFinished(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	sess.AddPlayer("bob")
	sess.Start()
	sess.Finish()
	code := sess.Code

	// Cleanup with maxAge=0 should remove finished sessions
	mgr.cleanup(0)

	if _, ok := mgr.Get(code); ok {
		t.Fatal("expected finished session to be cleaned up")
	}
}

func TestManagerCleanupEmpty(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	code := sess.Code
	// No players joined

	mgr.cleanup(time.Hour)

	if _, ok := mgr.Get(code); ok {
		t.Fatal("expected empty session to be cleaned up immediately")
	}
}

func TestManagerCleanupKeepsActive(t *testing.T) {
	mgr, cleanup := setupTest(t)
	defer cleanup()

	sess, _ := mgr.Create("connect4", false, "medium")
	sess.AddPlayer("alice")
	code := sess.Code

	mgr.cleanup(time.Hour)

	if _, ok := mgr.Get(code); !ok {
		t.Fatal("expected active waiting session to be kept")
	}
}

func TestGenerateCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{6}$`)
	for i := 0; i < 20; i++ {
		code := generateCode()
		if !re.MatchString(code) {
			t.Fatalf("expected 6 hex chars, got %q", code)
		}
	}
}
