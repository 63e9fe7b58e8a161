// Package lgame wraps the board engine's storage and geometry layers
// as the 4×4 L-piece blockade game: each turn a player lifts their
// L-shaped piece to a different placement and may then move one of the
// two neutral coins. A player with no placement available loses.
package lgame

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
	"github.com/kuelshammer/LogicCastle-sub007/internal/engine"
	"github.com/kuelshammer/LogicCastle-sub007/internal/game"
)

const size = 4

// Cell tags inside the packed board.
const (
	empty   uint8 = 0
	player1 uint8 = 1
	player2 uint8 = 2
	neutral uint8 = 3
)

// placement is one way to lay the L piece: four sorted linear indices.
type placement [4]int

var (
	grid *board.QuadraticGrid
	// placements is every legal way to lay an L on the board
	// (8 orientations × translations = 48 on 4×4).
	placements []placement
	// placementSet resolves an arbitrary 4-cell selection.
	placementSet map[placement]bool
)

func init() {
	grid, _ = board.NewQuadraticGrid(size, size, board.Orthogonal)
	base := [4][2]int{{0, 0}, {1, 0}, {2, 0}, {2, 1}}
	seen := make(map[placement]bool)
	shapes := allOrientations(base)
	for _, shape := range shapes {
		maxR, maxC := 0, 0
		for _, rc := range shape {
			if rc[0] > maxR {
				maxR = rc[0]
			}
			if rc[1] > maxC {
				maxC = rc[1]
			}
		}
		for dr := 0; dr+maxR < size; dr++ {
			for dc := 0; dc+maxC < size; dc++ {
				var p placement
				for i, rc := range shape {
					idx, _ := grid.ToIndex(board.Coord{Row: rc[0] + dr, Col: rc[1] + dc})
					p[i] = idx
				}
				sort.Ints(p[:])
				if !seen[p] {
					seen[p] = true
					placements = append(placements, p)
				}
			}
		}
	}
	placementSet = seen
}

// allOrientations derives the 8 rotations/mirrors of a shape,
// normalized so the minimum row and column are zero.
func allOrientations(base [4][2]int) [][4][2]int {
	var out [][4][2]int
	seen := make(map[[4][2]int]bool)
	shape := base
	for mirror := 0; mirror < 2; mirror++ {
		for rot := 0; rot < 4; rot++ {
			n := normalize(shape)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
			// rotate 90°: (r,c) -> (c,-r)
			for i, rc := range shape {
				shape[i] = [2]int{rc[1], -rc[0]}
			}
		}
		// mirror: (r,c) -> (r,-c)
		for i, rc := range shape {
			shape[i] = [2]int{rc[0], -rc[1]}
		}
	}
	return out
}

func normalize(shape [4][2]int) [4][2]int {
	minR, minC := shape[0][0], shape[0][1]
	for _, rc := range shape {
		if rc[0] < minR {
			minR = rc[0]
		}
		if rc[1] < minC {
			minC = rc[1]
		}
	}
	for i, rc := range shape {
		shape[i] = [2]int{rc[0] - minR, rc[1] - minC}
	}
	rows := shape[:]
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
	return shape
}

// LGame implements game.Game.
type LGame struct{}

func (LGame) Info() game.GameInfo {
	b, _ := board.NewPackedBoard(size, size, 2)
	return game.GameInfo{
		Name:       "lgame",
		Title:      "L-Game",
		MinPlayers: 2,
		MaxPlayers: 2,
		Rows:       size,
		Cols:       size,
		BoardBytes: b.MemoryUsage(),
	}
}

// moveRec lets UndoAction restore a position exactly.
type moveRec struct {
	Seat        int    `json:"seat"`
	PrevL       [4]int `json:"prevL"`
	NeutralSlot int    `json:"neutralSlot"` // -1 when no coin moved
	NeutralFrom int    `json:"neutralFrom"`
}

// Match implements game.Match for the L-game. Exported fields are the
// persisted position; the packed board is rebuilt from them.
type Match struct {
	Players    [2]string         `json:"players"`
	VsComputer bool              `json:"vsComputer"`
	Level      engine.Difficulty `json:"level"`
	Ls         [2][4]int         `json:"ls"`       // sorted indices per player
	Neutrals   [2]int            `json:"neutrals"` // coin indices
	Turn       int               `json:"turn"`     // seat to move
	Done       bool              `json:"done"`
	Winner     int               `json:"winner"` // seat, valid when Done
	History    []moveRec         `json:"history"`

	cells *board.PackedBoard
}

func (LGame) NewMatch(config game.MatchConfig) game.Match {
	m := &Match{
		Players:    [2]string{config.PlayerIDs[0], config.PlayerIDs[1]},
		VsComputer: config.VsComputer,
		Level:      config.Level,
		// 180°-symmetric opening: L arms along the top and bottom
		// edges, coins in the free corners.
		Ls: [2][4]int{
			{1, 2, 3, 7},    // (0,1)(0,2)(0,3)(1,3)
			{8, 12, 13, 14}, // (2,0)(3,0)(3,1)(3,2)
		},
		Neutrals: [2]int{0, 15}, // (0,0) and (3,3)
	}
	m.rebuild()
	return m
}

// rebuild derives the packed board from the piece positions.
func (m *Match) rebuild() {
	m.cells, _ = board.NewPackedBoard(size, size, 2)
	for seat, l := range m.Ls {
		for _, idx := range l {
			m.cells.Set(idx, uint8(seat)+1)
		}
	}
	for _, idx := range m.Neutrals {
		m.cells.Set(idx, neutral)
	}
}

type stateView struct {
	Board    []uint8  `json:"board"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Turn     string   `json:"turn"`
	You      int      `json:"you"`
	Players  []string `json:"players"`
	Done     bool     `json:"done"`
	Winner   string   `json:"winner,omitempty"`
	Mobility int      `json:"mobility"` // placements open to the mover
}

func (m *Match) State(playerID string) any {
	view := stateView{
		Board:    m.cells.Cells(),
		Rows:     size,
		Cols:     size,
		Turn:     m.Players[m.Turn],
		You:      m.seat(playerID) + 1,
		Players:  m.Players[:],
		Done:     m.Done,
		Mobility: len(m.legalPlacements(m.Turn)),
	}
	if m.Done {
		view.Winner = m.Players[m.Winner]
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

// legalPlacements lists every placement seat could move their L to:
// free of other pieces and different from the current one.
func (m *Match) legalPlacements(seat int) []placement {
	var out []placement
	for _, p := range placements {
		if p == m.Ls[seat] {
			continue
		}
		ok := true
		for _, idx := range p {
			v := m.cells.Get(idx)
			if v != empty && v != uint8(seat)+1 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

type cellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type neutralMove struct {
	From cellRef `json:"from"`
	To   cellRef `json:"to"`
}

type movePayload struct {
	Cells   [4]cellRef   `json:"cells"`
	Neutral *neutralMove `json:"neutral,omitempty"`
}

func moveAction(p movePayload) game.Action {
	payload, _ := json.Marshal(p)
	return game.Action{Type: "move", Payload: payload}
}

func (m *Match) payloadFor(p placement, slot int, to int) movePayload {
	var mp movePayload
	for i, idx := range p {
		c, _ := grid.FromIndex(idx)
		mp.Cells[i] = cellRef{Row: c.Row, Col: c.Col}
	}
	if slot >= 0 {
		from, _ := grid.FromIndex(m.Neutrals[slot])
		dst, _ := grid.FromIndex(to)
		mp.Neutral = &neutralMove{
			From: cellRef{Row: from.Row, Col: from.Col},
			To:   cellRef{Row: dst.Row, Col: dst.Col},
		}
	}
	return mp
}

func (m *Match) ValidActions(playerID string) []game.Action {
	seat := m.seat(playerID)
	if m.Done || seat != m.Turn {
		return nil
	}
	// The plain L moves only; coin follow-ups would multiply the list
	// past any useful size for a hint panel.
	var actions []game.Action
	for _, p := range m.legalPlacements(seat) {
		actions = append(actions, moveAction(m.payloadFor(p, -1, 0)))
	}
	return actions
}

func (m *Match) ApplyAction(playerID string, action game.Action) error {
	seat := m.seat(playerID)
	if m.Done {
		return fmt.Errorf("game is over")
	}
	if seat < 0 || seat != m.Turn {
		return fmt.Errorf("not your turn")
	}
	if action.Type != "move" {
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
	var mp movePayload
	if err := json.Unmarshal(action.Payload, &mp); err != nil {
		return fmt.Errorf("invalid move payload: %w", err)
	}

	var p placement
	for i, cr := range mp.Cells {
		idx, err := grid.ToIndex(board.Coord{Row: cr.Row, Col: cr.Col})
		if err != nil {
			return fmt.Errorf("%w: (%d,%d)", engine.ErrOutOfBounds, cr.Row, cr.Col)
		}
		p[i] = idx
	}
	sort.Ints(p[:])
	if !placementSet[p] {
		return fmt.Errorf("cells do not form an L piece")
	}
	if p == m.Ls[seat] {
		return fmt.Errorf("the L piece must move")
	}
	for _, idx := range p {
		if v := m.cells.Get(idx); v != empty && v != uint8(seat)+1 {
			return fmt.Errorf("%w: cell %d", engine.ErrCellOccupied, idx)
		}
	}

	rec := moveRec{Seat: seat, PrevL: m.Ls[seat], NeutralSlot: -1}

	// Lay the L before validating the coin move: the coin may land on
	// a cell the L just vacated.
	for _, idx := range m.Ls[seat] {
		m.cells.Clear(idx)
	}
	for _, idx := range p {
		m.cells.Set(idx, uint8(seat)+1)
	}
	m.Ls[seat] = p

	if mp.Neutral != nil {
		from, errF := grid.ToIndex(board.Coord{Row: mp.Neutral.From.Row, Col: mp.Neutral.From.Col})
		to, errT := grid.ToIndex(board.Coord{Row: mp.Neutral.To.Row, Col: mp.Neutral.To.Col})
		slot := -1
		if errF == nil {
			for i, n := range m.Neutrals {
				if n == from {
					slot = i
				}
			}
		}
		if errF != nil || errT != nil || slot < 0 || m.cells.Get(to) != empty {
			// roll the L back; an invalid coin move rejects the whole action
			for _, idx := range p {
				m.cells.Clear(idx)
			}
			for _, idx := range rec.PrevL {
				m.cells.Set(idx, uint8(seat)+1)
			}
			m.Ls[seat] = rec.PrevL
			return fmt.Errorf("invalid neutral coin move")
		}
		m.cells.Clear(from)
		m.cells.Set(to, neutral)
		rec.NeutralSlot = slot
		rec.NeutralFrom = from
		m.Neutrals[slot] = to
	}

	m.History = append(m.History, rec)

	next := 1 - seat
	if len(m.legalPlacements(next)) == 0 {
		m.Done = true
		m.Winner = seat
	} else {
		m.Turn = next
	}
	return nil
}

func (m *Match) IsOver() bool { return m.Done }

func (m *Match) Results() []game.PlayerResult {
	if !m.Done {
		return nil
	}
	loser := 1 - m.Winner
	return []game.PlayerResult{
		{PlayerID: m.Players[m.Winner], Rank: 1, Score: 1},
		{PlayerID: m.Players[loser], Rank: 2, Score: 0},
	}
}

// SuggestAction implements game.Advisor with a single-ply mobility
// search: pick the move leaving the opponent the fewest placements,
// trying coin follow-ups as well as the bare L move.
func (m *Match) SuggestAction(playerID string) (game.Action, error) {
	seat := m.seat(playerID)
	if m.Done || seat != m.Turn {
		return game.Action{}, fmt.Errorf("not %s's turn", playerID)
	}
	opp := 1 - seat
	best := movePayload{}
	bestMobility := -1

	for _, p := range m.legalPlacements(seat) {
		prev := m.Ls[seat]
		m.place(seat, prev, p)

		// bare move
		if mob := len(m.legalPlacements(opp)); bestMobility < 0 || mob < bestMobility {
			bestMobility = mob
			best = m.payloadFor(p, -1, 0)
		}
		// each coin to each empty cell
		for slot, from := range m.Neutrals {
			for to := 0; to < grid.BoardSize(); to++ {
				if m.cells.Get(to) != empty {
					continue
				}
				m.cells.Clear(from)
				m.cells.Set(to, neutral)
				if mob := len(m.legalPlacements(opp)); mob < bestMobility {
					bestMobility = mob
					best = m.payloadFor(p, slot, to)
				}
				m.cells.Clear(to)
				m.cells.Set(from, neutral)
			}
		}

		m.place(seat, p, prev)
		if bestMobility == 0 {
			break
		}
	}
	if bestMobility < 0 {
		return game.Action{}, engine.ErrNoLegalMoves
	}
	return moveAction(best), nil
}

// place swaps seat's L from one placement to another on the board.
func (m *Match) place(seat int, from, to placement) {
	for _, idx := range from {
		m.cells.Clear(idx)
	}
	for _, idx := range to {
		m.cells.Set(idx, uint8(seat)+1)
	}
	m.Ls[seat] = to
}

// WinningActions implements game.Advisor: moves that leave the
// opponent with no placement at all.
func (m *Match) WinningActions(playerID string) []game.Action {
	seat := m.seat(playerID)
	if seat < 0 || m.Done || seat != m.Turn {
		return nil
	}
	opp := 1 - seat
	var out []game.Action
	for _, p := range m.legalPlacements(seat) {
		prev := m.Ls[seat]
		m.place(seat, prev, p)
		if len(m.legalPlacements(opp)) == 0 {
			out = append(out, moveAction(m.payloadFor(p, -1, 0)))
		}
		m.place(seat, p, prev)
	}
	return out
}

// BlockingActions implements game.Advisor. The L-game has no run
// threats to block; there is nothing to report.
func (m *Match) BlockingActions(string) []game.Action { return nil }

// UndoAction implements game.Rewinder.
func (m *Match) UndoAction(playerID string) (int, error) {
	if m.seat(playerID) < 0 {
		return 0, fmt.Errorf("unknown player %s", playerID)
	}
	if !m.undoOne() {
		return 0, engine.ErrNoHistory
	}
	plies := 1
	if m.VsComputer && m.Turn != m.seat(playerID) && m.undoOne() {
		plies++
	}
	return plies, nil
}

func (m *Match) undoOne() bool {
	if len(m.History) == 0 {
		return false
	}
	rec := m.History[len(m.History)-1]
	m.History = m.History[:len(m.History)-1]
	if rec.NeutralSlot >= 0 {
		m.cells.Clear(m.Neutrals[rec.NeutralSlot])
		m.cells.Set(rec.NeutralFrom, neutral)
		m.Neutrals[rec.NeutralSlot] = rec.NeutralFrom
	}
	m.place(rec.Seat, m.Ls[rec.Seat], rec.PrevL)
	m.Turn = rec.Seat
	m.Done = false
	m.Winner = 0
	return true
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
