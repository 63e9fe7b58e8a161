package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player represents a connected player.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is one game session with connected players. In a
// vs-computer session the last seat is reserved for the engine and
// never joined by a human.
type Session struct {
	mu         sync.RWMutex
	Code       string
	GameType   string
	Status     Status
	HostID     string
	VsComputer bool
	Level      engine.Difficulty
	Players    map[string]*Player
	Match      game.Match
	// MoveSeq counts logged actions; the server maintains it while
	// holding the lock.
	MoveSeq int
	game    game.Game
	order   []string // join order; fixes seating
}

// NewSession creates a session in the waiting state.
func NewSession(code, gameType string, g game.Game, vsComputer bool, level engine.Difficulty) *Session {
	return &Session{
		Code:       code,
		GameType:   gameType,
		Status:     StatusWaiting,
		VsComputer: vsComputer,
		Level:      level,
		Players:    make(map[string]*Player),
		game:       g,
	}
}

// humanSeats is the number of seats open to people.
func (s *Session) humanSeats() int {
	seats := s.game.Info().MaxPlayers
	if s.VsComputer {
		seats--
	}
	return seats
}

// AddPlayer adds a player to the session. Returns an error if full or
// already playing.
func (s *Session) AddPlayer(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not accepting players")
	}
	if len(s.Players) >= s.humanSeats() {
		return fmt.Errorf("session is full")
	}
	if playerID == game.ComputerID {
		return fmt.Errorf("%q is a reserved name", playerID)
	}
	if _, exists := s.Players[playerID]; exists {
		return fmt.Errorf("player %s already in session", playerID)
	}
	s.Players[playerID] = &Player{
		ID:   playerID,
		Send: make(chan []byte, 64),
	}
	s.order = append(s.order, playerID)
	if s.HostID == "" {
		s.HostID = playerID
	}
	return nil
}

// RemovePlayer removes a player from the session.
func (s *Session) RemovePlayer(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.Players[playerID]; ok {
		close(p.Send)
		delete(s.Players, playerID)
		for i, id := range s.order {
			if id == playerID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// ConnectPlayer replaces the Send channel for a reconnecting player.
func (s *Session) ConnectPlayer(playerID string, send chan []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	p.Send = send
	return true
}

// PlayerIDs returns the players in join order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// seatIDs is the full seat list handed to the match: humans in join
// order, the engine last.
func (s *Session) seatIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	if s.VsComputer {
		ids = append(ids, game.ComputerID)
	}
	return ids
}

// Start transitions the session from waiting to playing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return fmt.Errorf("session is not in waiting state")
	}
	info := s.game.Info()
	need := info.MinPlayers
	if s.VsComputer {
		need--
	}
	if need < 1 {
		need = 1
	}
	if len(s.Players) < need {
		return fmt.Errorf("need at least %d players, have %d", need, len(s.Players))
	}

	s.Match = s.game.NewMatch(game.MatchConfig{
		PlayerIDs:  s.seatIDs(),
		VsComputer: s.VsComputer,
		Level:      s.Level,
		Seed:       time.Now().UnixNano(),
	})
	s.Status = StatusPlaying
	return nil
}

// AdvanceComputer plays engine moves until a human is on turn or the
// match is over, returning them for logging. No-op for sessions
// without an engine seat or matches that cannot advise. Caller must
// hold the write lock.
func (s *Session) AdvanceComputer() []game.Action {
	if !s.VsComputer || s.Match == nil {
		return nil
	}
	adv, ok := s.Match.(game.Advisor)
	if !ok {
		return nil
	}
	var applied []game.Action
	for !s.Match.IsOver() {
		if len(s.Match.ValidActions(game.ComputerID)) == 0 {
			break // not the engine's turn
		}
		act, err := adv.SuggestAction(game.ComputerID)
		if err != nil {
			break
		}
		if err := s.Match.ApplyAction(game.ComputerID, act); err != nil {
			break
		}
		applied = append(applied, act)
	}
	return applied
}

// Finish marks the session as finished.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFinished
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}

// GetPlayer returns a player, or nil if not found.
func (s *Session) GetPlayer(playerID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Players[playerID]
}

// Info returns session info for the API.
type Info struct {
	Code       string   `json:"code"`
	GameType   string   `json:"gameType"`
	Status     Status   `json:"status"`
	Players    []string `json:"players"`
	HostID     string   `json:"hostId"`
	VsComputer bool     `json:"vsComputer"`
	Level      string   `json:"level"`
}

func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infoLocked()
}

// InfoLocked returns info without acquiring the lock (caller must hold it).
func (s *Session) InfoLocked() Info {
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return Info{
		Code:       s.Code,
		GameType:   s.GameType,
		Status:     s.Status,
		Players:    ids,
		HostID:     s.HostID,
		VsComputer: s.VsComputer,
		Level:      s.Level.String(),
	}
}

// Lock/RLock/Unlock/RUnlock expose the mutex for the server's websocket handler.
func (s *Session) Lock()    { s.mu.Lock() }
func (s *Session) Unlock()  { s.mu.Unlock() }
func (s *Session) RLock()   { s.mu.RLock() }
func (s *Session) RUnlock() { s.mu.RUnlock() }
