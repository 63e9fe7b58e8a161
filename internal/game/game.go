package game

import (
	"encoding/json"

	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
)

// ComputerID is the reserved seat name for the engine opponent in
// vs-computer matches.
const ComputerID = "cpu"

// GameInfo describes a game type for the lobby.
type GameInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	MinPlayers int    `json:"minPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	// BoardBytes is the exact packed-board footprint of one match.
	BoardBytes int `json:"boardBytes"`
}

// MatchConfig holds settings for creating a new match.
type MatchConfig struct {
	PlayerIDs  []string
	VsComputer bool
	Level      engine.Difficulty
	Seed       int64
}

// Action represents a move a player can make.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlayerResult holds the outcome for one player.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"` // 1 = first place
	Score    int    `json:"score"`
}

// Game describes a game type (connect four, gomoku, ...).
type Game interface {
	Info() GameInfo
	NewMatch(config MatchConfig) Match
}

// Match is one in-progress game session.
type Match interface {
	State(playerID string) any
	ValidActions(playerID string) []Action
	ApplyAction(playerID string, action Action) error
	IsOver() bool
	Results() []PlayerResult
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Advisor is implemented by matches whose engine can propose moves.
// The session layer uses it to drive the computer seat and to answer
// hint requests.
type Advisor interface {
	// SuggestAction picks a move for playerID at the match's
	// configured difficulty.
	SuggestAction(playerID string) (Action, error)
	// WinningActions lists moves that win immediately for playerID.
	WinningActions(playerID string) []Action
	// BlockingActions lists moves playerID should play to stop the
	// opponent's immediate or two-way threats.
	BlockingActions(playerID string) []Action
}

// Rewinder is implemented by matches that support taking moves back.
type Rewinder interface {
	// UndoAction rewinds until playerID is to move again. In a
	// vs-computer match this takes back both the engine reply and the
	// player's own move. Returns the number of plies taken back.
	UndoAction(playerID string) (int, error)
}

// ParseLevel maps a wire difficulty name to the engine tier,
// defaulting to Medium.
func ParseLevel(s string) engine.Difficulty {
	switch s {
	case "easy":
		return engine.Easy
	case "hard":
		return engine.Hard
	default:
		return engine.Medium
	}
}
