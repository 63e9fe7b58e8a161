// Package trio wraps the triplet solver as the single-player
// arithmetic puzzle: on a 7×7 board of digits, find a straight line of
// three cells whose values reach the target as a*b+c or a*b-c.
package trio

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
)

const (
	size   = engine.TrioSize
	rounds = 5
)

// Trio implements game.Game.
type Trio struct{}

func (Trio) Info() game.GameInfo {
	b, _ := board.NewPackedBoard(size, size, 4)
	return game.GameInfo{
		Name:       "trio",
		Title:      "Trio",
		MinPlayers: 1,
		MaxPlayers: 1,
		Rows:       size,
		Cols:       size,
		BoardBytes: b.MemoryUsage(),
	}
}

// claimRec records a solved round for undo.
type claimRec struct {
	Cells  [3]board.Coord `json:"cells"`
	Target int            `json:"target"`
}

// Match implements game.Match for trio. The digit board and target
// schedule are fixed at creation from the seed; Claims is the undo
// history.
type Match struct {
	Player  string     `json:"player"`
	Seed    int64      `json:"seed"`
	Digits  []uint8    `json:"digits"` // row-major, values 1–9
	Targets []int      `json:"targets"`
	Round   int        `json:"round"` // index into Targets
	Score   int        `json:"score"`
	Claims  []claimRec `json:"claims"`

	geo    *board.PatternGrid
	cells  *board.PackedBoard
	solver *engine.TripletSolver
}

func (Trio) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{
		Player: config.PlayerIDs[0],
		Seed:   config.Seed,
	}
	rng := rand.New(rand.NewSource(config.Seed))

	// Even digit mix: cycle 1..9 across the 49 cells, then shuffle.
	m.Digits = make([]uint8, size*size)
	for i := range m.Digits {
		m.Digits[i] = uint8(i%9) + 1
	}
	rng.Shuffle(len(m.Digits), func(i, j int) {
		m.Digits[i], m.Digits[j] = m.Digits[j], m.Digits[i]
	})
	m.rebuild()

	// Serve only reachable targets, so every round is solvable.
	var reachable []int
	for t := 1; t <= 90; t++ {
		if m.solver.CountSolutions(t) > 0 {
			reachable = append(reachable, t)
		}
	}
	rng.Shuffle(len(reachable), func(i, j int) {
		reachable[i], reachable[j] = reachable[j], reachable[i]
	})
	if len(reachable) > rounds {
		reachable = reachable[:rounds]
	}
	m.Targets = reachable
	return m
}

// rebuild packs the digit slice into the 4-bit board and wires the
// solver.
func (m *Match) rebuild() {
	m.geo, _ = board.NewPatternGrid(size, size)
	m.cells, _ = board.NewPackedBoard(size, size, 4)
	for i, d := range m.Digits {
		m.cells.Set(i, d)
	}
	m.solver = engine.NewTripletSolver(m.geo, m.cells)
}

type stateView struct {
	Board         []uint8 `json:"board"`
	Rows          int     `json:"rows"`
	Cols          int     `json:"cols"`
	Target        int     `json:"target"`
	Round         int     `json:"round"`
	RoundsTotal   int     `json:"roundsTotal"`
	Score         int     `json:"score"`
	SolutionCount int     `json:"solutionCount"`
	Done          bool    `json:"done"`
}

func (m *Match) State(string) any {
	view := stateView{
		Board:       m.cells.Cells(),
		Rows:        size,
		Cols:        size,
		Round:       m.Round,
		RoundsTotal: len(m.Targets),
		Score:       m.Score,
		Done:        m.IsOver(),
	}
	if !view.Done {
		view.Target = m.Targets[m.Round]
		view.SolutionCount = m.solver.CountSolutions(view.Target)
	}
	return view
}

type claimPayload struct {
	Cells [3]board.Coord `json:"cells"`
}

func claimAction(cells [3]board.Coord) game.Action {
	payload, _ := json.Marshal(claimPayload{Cells: cells})
	return game.Action{Type: "claim", Payload: payload}
}

func (m *Match) ValidActions(playerID string) []game.Action {
	if m.IsOver() || playerID != m.Player {
		return nil
	}
	var actions []game.Action
	for _, sol := range m.solver.FindAllSolutions(m.Targets[m.Round]) {
		actions = append(actions, claimAction([3]board.Coord(sol.Cells)))
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	if m.IsOver() {
		return fmt.Errorf("puzzle is finished")
	}
	if playerID != m.Player {
		return fmt.Errorf("not your puzzle")
	}
	if action.Type != "claim" {
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
	var claim claimPayload
	if err := json.Unmarshal(action.Payload, &claim); err != nil {
		return fmt.Errorf("invalid claim payload: %w", err)
	}
	target := m.Targets[m.Round]
	if _, err := m.solver.ValidateTrio(claim.Cells[0], claim.Cells[1], claim.Cells[2], target); err != nil {
		return err
	}
	m.Claims = append(m.Claims, claimRec{Cells: claim.Cells, Target: target})
	m.Score++
	m.Round++
	return nil
}

func (m *Match) IsOver() bool {
	return m.Round >= len(m.Targets)
}

func (m *Match) Results() []game.PlayerResult {
	if !m.IsOver() {
		return nil
	}
	return []game.PlayerResult{{PlayerID: m.Player, Rank: 1, Score: m.Score}}
}

// SuggestAction implements game.Advisor: hand the player one valid
// trio for the current target.
func (m *Match) SuggestAction(playerID string) (game.Action, error) {
	if m.IsOver() || playerID != m.Player {
		return game.Action{}, engine.ErrNoLegalMoves
	}
	sols := m.solver.FindAllSolutions(m.Targets[m.Round])
	if len(sols) == 0 {
		return game.Action{}, engine.ErrNoLegalMoves
	}
	return claimAction([3]board.Coord(sols[0].Cells)), nil
}

// WinningActions implements game.Advisor: every valid trio wins the
// round.
func (m *Match) WinningActions(playerID string) []game.Action {
	return m.ValidActions(playerID)
}

// BlockingActions implements game.Advisor. There is no opponent.
func (m *Match) BlockingActions(string) []game.Action { return nil }

// UndoAction implements game.Rewinder: retract the last solved round.
func (m *Match) UndoAction(playerID string) (int, error) {
	if playerID != m.Player {
		return 0, fmt.Errorf("not your puzzle")
	}
	if len(m.Claims) == 0 {
		return 0, engine.ErrNoHistory
	}
	m.Claims = m.Claims[:len(m.Claims)-1]
	m.Score--
	m.Round--
	return 1, nil
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
	m.rebuild()
	return nil
}
