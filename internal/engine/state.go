// Package engine implements the shared game-board engine: game state
// with move history, run-of-N win detection, the staged move selector
// and the arithmetic-triplet solver.
package engine

import (
	"fmt"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
)

// Status is the lifecycle of a game.
type Status int

const (
	Playing Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Outcome reports the effect of a committed move.
type Outcome struct {
	Status  Status
	Winner  uint8
	WinLine []board.Coord // cells forming the winning run, if any
}

// Config fixes the rules of a State at construction time.
type Config struct {
	Geometry  board.Geometry
	WinLength int
	// Gravity makes stones fall to the lowest empty cell of their
	// column (connect four). Legal moves are then per-column landing
	// cells rather than every empty cell.
	Gravity bool
	// Players defaults to 2.
	Players int
}

// record holds everything needed to reverse one move exactly.
type record struct {
	index      int
	prev       uint8
	player     uint8
	prevStatus Status
	prevWinner uint8
}

// State composes a packed board with a geometry, the current player,
// an ordered move history and the terminal status. It owns all
// mutation; one instance must only ever see one in-flight mutation at
// a time.
type State struct {
	geo     board.Geometry
	cells   *board.PackedBoard
	detect  *WinDetector
	gravity bool
	players uint8

	current uint8
	history []record
	status  Status
	winner  uint8
	winLine []board.Coord
}

// NewState builds an empty game with player 1 to move.
func NewState(cfg Config) (*State, error) {
	if cfg.Geometry == nil {
		return nil, fmt.Errorf("geometry required")
	}
	if cfg.WinLength < 2 {
		return nil, fmt.Errorf("win length %d too short", cfg.WinLength)
	}
	players := cfg.Players
	if players == 0 {
		players = 2
	}
	if players < 2 || players > 3 {
		return nil, fmt.Errorf("unsupported player count %d", players)
	}
	cells, err := board.NewPackedBoard(cfg.Geometry.Rows(), cfg.Geometry.Cols(), 2)
	if err != nil {
		return nil, err
	}
	return &State{
		geo:     cfg.Geometry,
		cells:   cells,
		detect:  NewWinDetector(cfg.Geometry, cfg.WinLength),
		gravity: cfg.Gravity,
		players: uint8(players),
		current: 1,
	}, nil
}

// Geometry returns the board geometry.
func (s *State) Geometry() board.Geometry { return s.geo }

// WinLength returns the required run length.
func (s *State) WinLength() int { return s.detect.runLength }

// CurrentPlayer returns the 1-based id of the player to move.
func (s *State) CurrentPlayer() uint8 { return s.current }

// Winner returns the winning player id, or 0 while nobody has won.
func (s *State) Winner() uint8 { return s.winner }

// IsGameOver reports whether the game reached a terminal status.
func (s *State) IsGameOver() bool { return s.status != Playing }

// GameStatus returns the current lifecycle status.
func (s *State) GameStatus() Status { return s.status }

// WinningLine returns the cells of the winning run, or nil.
func (s *State) WinningLine() []board.Coord { return s.winLine }

// MoveCount returns the number of committed moves.
func (s *State) MoveCount() int { return len(s.history) }

// Board returns a flat row-major snapshot of the board; 0 is empty,
// small positive integers are player ids.
func (s *State) Board() []uint8 { return s.cells.Cells() }

// MemoryUsage returns the exact byte count of the board storage.
func (s *State) MemoryUsage() int { return s.cells.MemoryUsage() }

// checkLegal validates a move without mutating anything. The returned
// error is one of the engine sentinels, possibly wrapped.
func (s *State) checkLegal(c board.Coord) (int, error) {
	if s.status != Playing {
		return 0, ErrGameOver
	}
	idx, err := s.geo.ToIndex(c)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	if s.cells.Get(idx) != 0 {
		return 0, fmt.Errorf("%w: %v", ErrCellOccupied, c)
	}
	if s.gravity && c.Row+1 < s.geo.Rows() {
		below, _ := s.geo.ToIndex(board.Coord{Row: c.Row + 1, Col: c.Col})
		if s.cells.Get(below) == 0 {
			return 0, fmt.Errorf("%w: %v is not a landing cell", ErrOutOfBounds, c)
		}
	}
	return idx, nil
}

// IsValidMove reports whether the current player may play c. Pure
// predicate, no mutation.
func (s *State) IsValidMove(c board.Coord) bool {
	_, err := s.checkLegal(c)
	return err == nil
}

// Landing returns the cell a stone dropped into col comes to rest in.
// Without gravity it is meaningless and returns an error.
func (s *State) Landing(col int) (board.Coord, error) {
	if !s.gravity {
		return board.Coord{}, fmt.Errorf("landing undefined without gravity")
	}
	if col < 0 || col >= s.geo.Cols() {
		return board.Coord{}, fmt.Errorf("%w: column %d", ErrOutOfBounds, col)
	}
	for row := s.geo.Rows() - 1; row >= 0; row-- {
		idx, _ := s.geo.ToIndex(board.Coord{Row: row, Col: col})
		if s.cells.Get(idx) == 0 {
			return board.Coord{Row: row, Col: col}, nil
		}
	}
	return board.Coord{}, fmt.Errorf("%w: column %d full", ErrCellOccupied, col)
}

// LegalMoves enumerates every cell the current player may play, in
// row-major order. Under gravity this is the landing cell of each
// non-full column.
func (s *State) LegalMoves() []board.Coord {
	if s.status != Playing {
		return nil
	}
	var out []board.Coord
	if s.gravity {
		for col := 0; col < s.geo.Cols(); col++ {
			if c, err := s.Landing(col); err == nil {
				out = append(out, c)
			}
		}
		return out
	}
	for idx := 0; idx < s.geo.BoardSize(); idx++ {
		if s.cells.Get(idx) == 0 {
			c, _ := s.geo.FromIndex(idx)
			out = append(out, c)
		}
	}
	return out
}

// MakeMove commits the current player's stone at c. Illegal moves
// never mutate state and return a sentinel error.
func (s *State) MakeMove(c board.Coord) (Outcome, error) {
	idx, err := s.checkLegal(c)
	if err != nil {
		return Outcome{}, err
	}
	player := s.current
	rec := record{
		index:      idx,
		prev:       s.cells.Get(idx),
		player:     player,
		prevStatus: s.status,
		prevWinner: s.winner,
	}
	if err := s.cells.Set(idx, player); err != nil {
		return Outcome{}, err
	}
	s.history = append(s.history, rec)

	if line, ok := s.detect.Check(s.cells, c, player); ok {
		s.status = Won
		s.winner = player
		s.winLine = line
	} else if s.cells.IsFull() {
		s.status = Draw
	} else {
		s.current = s.nextPlayer(player)
	}
	return Outcome{Status: s.status, Winner: s.winner, WinLine: s.winLine}, nil
}

func (s *State) nextPlayer(p uint8) uint8 {
	if p == s.players {
		return 1
	}
	return p + 1
}

// UndoMove reverses the last committed move, restoring board, player
// and terminal status bit for bit. Returns false with nothing to undo.
func (s *State) UndoMove() bool {
	if len(s.history) == 0 {
		return false
	}
	rec := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.cells.Set(rec.index, rec.prev)
	s.current = rec.player
	s.status = rec.prevStatus
	s.winner = rec.prevWinner
	if s.status != Won {
		s.winLine = nil
	}
	return true
}

// Reset clears the board, history and terminal status and restores
// the starting player.
func (s *State) Reset() {
	s.cells.Reset()
	s.history = s.history[:0]
	s.current = 1
	s.status = Playing
	s.winner = 0
	s.winLine = nil
}

// Simulation answers "what would this move do?" without any lasting
// mutation.
type Simulation struct {
	Wins    bool
	Draws   bool
	WinLine []board.Coord
}

// SimulateMove speculatively plays c for the current player and
// reports the outcome. The board is identical before and after the
// call on every path.
func (s *State) SimulateMove(c board.Coord) (Simulation, error) {
	return s.SimulateFor(c, s.current)
}

// SimulateFor speculatively plays c for the given player. Used by the
// selector to test opponent replies without flipping the turn.
func (s *State) SimulateFor(c board.Coord, player uint8) (Simulation, error) {
	idx, err := s.checkLegal(c)
	if err != nil {
		return Simulation{}, err
	}
	prev := s.cells.Get(idx)
	if err := s.cells.Set(idx, player); err != nil {
		return Simulation{}, err
	}
	// Revert unconditionally, on every exit path.
	defer s.cells.Set(idx, prev)

	if line, ok := s.detect.Check(s.cells, c, player); ok {
		return Simulation{Wins: true, WinLine: line}, nil
	}
	return Simulation{Draws: s.cells.IsFull()}, nil
}
