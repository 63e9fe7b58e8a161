// Package gomoku wraps the board engine as 15×15 five-in-a-row with
// free placement.
package gomoku

import (
	"encoding/json"
	"fmt"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
)

const (
	size      = 15
	winLength = 5
)

// Gomoku implements game.Game.
type Gomoku struct{}

func (Gomoku) Info() game.GameInfo {
	b, _ := board.NewPackedBoard(size, size, 2)
	return game.GameInfo{
		Name:       "gomoku",
		Title:      "Gomoku",
		MinPlayers: 2,
		MaxPlayers: 2,
		Rows:       size,
		Cols:       size,
		BoardBytes: b.MemoryUsage(),
	}
}

func newEngine() *engine.State {
	geo, _ := board.NewQuadraticGrid(size, size, board.Octagonal)
	s, _ := engine.NewState(engine.Config{Geometry: geo, WinLength: winLength})
	return s
}

func (Gomoku) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{
		Players:    [2]string{config.PlayerIDs[0], config.PlayerIDs[1]},
		VsComputer: config.VsComputer,
		Level:      config.Level,
		Seed:       config.Seed,
	}
	m.init()
	return m
}

// Match implements game.Match for gomoku. Moves holds linear cell
// indices in play order; the engine is rebuilt from it on load.
type Match struct {
	Players    [2]string         `json:"players"`
	VsComputer bool              `json:"vsComputer"`
	Level      engine.Difficulty `json:"level"`
	Seed       int64             `json:"seed"`
	Moves      []int             `json:"moves"`

	eng *engine.State
	sel *engine.Selector
}

func (m *Match) init() {
	m.eng = newEngine()
	m.sel = engine.NewSelector(m.Seed)
}

type stateView struct {
	Board     []uint8       `json:"board"`
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Turn      string        `json:"turn"`
	You       int           `json:"you"`
	Players   []string      `json:"players"`
	Done      bool          `json:"done"`
	Winner    string        `json:"winner,omitempty"`
	WinLine   []board.Coord `json:"winLine,omitempty"`
	MoveCount int           `json:"moveCount"`
}

func (m *Match) State(playerID string) any {
	view := stateView{
		Board:     m.eng.Board(),
		Rows:      size,
		Cols:      size,
		Turn:      m.Players[m.eng.CurrentPlayer()-1],
		You:       m.seat(playerID) + 1,
		Players:   m.Players[:],
		Done:      m.eng.IsGameOver(),
		WinLine:   m.eng.WinningLine(),
		MoveCount: m.eng.MoveCount(),
	}
	if m.eng.IsGameOver() {
		if w := m.eng.Winner(); w == 0 {
			view.Winner = "draw"
		} else {
			view.Winner = m.Players[w-1]
		}
	}
	return view
}

func (m *Match) seat(playerID string) int {
	for i, p := range m.Players {
		if p == playerID {
			return i
		}
	}
	return -1
}

type placePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func placeAction(c board.Coord) game.Action {
	payload, _ := json.Marshal(placePayload{Row: c.Row, Col: c.Col})
	return game.Action{Type: "place", Payload: payload}
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if m.eng.IsGameOver() || m.seat(playerID) != int(m.eng.CurrentPlayer())-1 {
		return nil
	}
	var actions []game.Action
	for _, c := range m.eng.LegalMoves() {
		actions = append(actions, placeAction(c))
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	seat := m.seat(playerID)
	if seat < 0 || seat != int(m.eng.CurrentPlayer())-1 {
		return fmt.Errorf("not your turn")
	}
	if action.Type != "place" {
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
	var place placePayload
	if err := json.Unmarshal(action.Payload, &place); err != nil {
		return fmt.Errorf("invalid place payload: %w", err)
	}
	c := board.Coord{Row: place.Row, Col: place.Col}
	if _, err := m.eng.MakeMove(c); err != nil {
		return err
	}
	idx, _ := m.eng.Geometry().ToIndex(c)
	m.Moves = append(m.Moves, idx)
	return nil
}

func (m *Match) IsOver() bool {
	return m.eng.IsGameOver()
}

func (m *Match) Results() []game.PlayerResult {
	if !m.eng.IsGameOver() {
		return nil
	}
	w := m.eng.Winner()
	if w == 0 {
		return []game.PlayerResult{
			{PlayerID: m.Players[0], Rank: 1, Score: 0},
			{PlayerID: m.Players[1], Rank: 1, Score: 0},
		}
	}
	winner, loser := int(w)-1, 2-int(w)
	return []game.PlayerResult{
		{PlayerID: m.Players[winner], Rank: 1, Score: 1},
		{PlayerID: m.Players[loser], Rank: 2, Score: 0},
	}
}

// SuggestAction implements game.Advisor.
func (m *Match) SuggestAction(playerID string) (game.Action, error) {
	if m.seat(playerID) != int(m.eng.CurrentPlayer())-1 {
		return game.Action{}, fmt.Errorf("not %s's turn", playerID)
	}
	c, err := m.sel.Choose(m.eng, m.Level)
	if err != nil {
		return game.Action{}, err
	}
	return placeAction(c), nil
}

// WinningActions implements game.Advisor.
func (m *Match) WinningActions(playerID string) []game.Action {
	seat := m.seat(playerID)
	if seat < 0 {
		return nil
	}
	return placeActions(engine.WinningMoves(m.eng, uint8(seat+1)))
}

// BlockingActions implements game.Advisor.
func (m *Match) BlockingActions(playerID string) []game.Action {
	seat := m.seat(playerID)
	if seat < 0 {
		return nil
	}
	return placeActions(engine.BlockingMoves(m.eng, uint8(seat+1)))
}

func placeActions(coords []board.Coord) []game.Action {
	var actions []game.Action
	for _, c := range coords {
		actions = append(actions, placeAction(c))
	}
	return actions
}

// UndoAction implements game.Rewinder.
func (m *Match) UndoAction(playerID string) (int, error) {
	if m.seat(playerID) < 0 {
		return 0, fmt.Errorf("unknown player %s", playerID)
	}
	if !m.eng.UndoMove() {
		return 0, engine.ErrNoHistory
	}
	m.Moves = m.Moves[:len(m.Moves)-1]
	plies := 1
	if m.VsComputer && int(m.eng.CurrentPlayer())-1 != m.seat(playerID) {
		if m.eng.UndoMove() {
			m.Moves = m.Moves[:len(m.Moves)-1]
			plies++
		}
	}
	return plies, nil
}

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	if err := json.Unmarshal(data, (*alias)(m)); err != nil {
		return err
	}
	moves := m.Moves
	m.Moves = nil
	m.init()
	for _, idx := range moves {
		c, err := m.eng.Geometry().FromIndex(idx)
		if err != nil {
			return fmt.Errorf("replay cell %d: %w", idx, err)
		}
		if _, err := m.eng.MakeMove(c); err != nil {
			return fmt.Errorf("replay cell %d: %w", idx, err)
		}
		m.Moves = append(m.Moves, idx)
	}
	return nil
}
