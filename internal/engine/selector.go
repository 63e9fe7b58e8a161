package engine

import (
	"math/rand"
	"sort"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
)

// Difficulty selects the stage-4 strategy of the move selector.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// Selector picks moves through a four-stage pipeline: win now, block
// now, filter unsafe candidates, then pick strategically. Stages
// short-circuit; a later stage only runs when all earlier stages found
// nothing actionable. There is no lookahead beyond one opponent reply,
// so a full query costs at most O(legal moves squared) simulations.
type Selector struct {
	rng *rand.Rand
}

// NewSelector builds a selector; the seed only affects the Easy tier's
// random pick.
func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Choose runs the full pipeline for the player currently to move.
func (sel *Selector) Choose(s *State, level Difficulty) (board.Coord, error) {
	legal := s.LegalMoves()
	if len(legal) == 0 {
		return board.Coord{}, ErrNoLegalMoves
	}
	me := s.CurrentPlayer()
	opp := s.nextPlayer(me)

	// Stage 1: win now.
	if wins := winningMoves(s, legal, me); len(wins) > 0 {
		return bestByCentrality(s, wins), nil
	}

	// Stage 2: block now. Immediate opponent wins first, then cells
	// that would let the opponent build a double threat.
	if blocks := winningMoves(s, legal, opp); len(blocks) > 0 {
		return bestByCentrality(s, blocks), nil
	}
	if forks := forkMoves(s, legal, opp); len(forks) > 0 {
		return bestByCentrality(s, forks), nil
	}

	// Stage 3: safety filter. A lost position must still move, so an
	// emptied set falls back to every legal move.
	safe := safeMoves(s, legal, opp)
	if len(safe) == 0 {
		safe = legal
	}

	// Stage 4: strategic pick from the surviving set.
	switch level {
	case Easy:
		return safe[sel.rng.Intn(len(safe))], nil
	case Medium:
		return bestByCentrality(s, safe), nil
	default:
		return bestByScore(s, safe), nil
	}
}

// WinningMoves exposes the stage-1 analysis: every legal cell that
// wins immediately for player. Used by hint features.
func WinningMoves(s *State, player uint8) []board.Coord {
	return winningMoves(s, s.LegalMoves(), player)
}

// BlockingMoves exposes the stage-2 analysis for the given player:
// cells player should occupy to stop the opponent, immediate wins
// before fork points.
func BlockingMoves(s *State, player uint8) []board.Coord {
	legal := s.LegalMoves()
	opp := s.nextPlayer(player)
	blocks := winningMoves(s, legal, opp)
	if len(blocks) > 0 {
		return blocks
	}
	return forkMoves(s, legal, opp)
}

// winningMoves simulates each candidate for player; invalid
// simulations just disqualify the candidate.
func winningMoves(s *State, legal []board.Coord, player uint8) []board.Coord {
	var out []board.Coord
	for _, c := range legal {
		sim, err := s.SimulateFor(c, player)
		if err != nil {
			continue
		}
		if sim.Wins {
			out = append(out, c)
		}
	}
	return out
}

// forkMoves finds cells where the opponent, having played there, would
// hold two or more distinct immediate winning completions. Playing
// such a cell first denies the double threat. This generalizes the
// shape catalogue: any line one move from completion with two open
// completion points shows up as a fork through either point.
func forkMoves(s *State, legal []board.Coord, opp uint8) []board.Coord {
	var out []board.Coord
	for _, c := range legal {
		idx, err := s.geo.ToIndex(c)
		if err != nil {
			continue
		}
		prev := s.cells.Get(idx)
		if err := s.cells.Set(idx, opp); err != nil {
			continue
		}
		threats := 0
		for _, reply := range s.LegalMoves() {
			if sim, err := s.SimulateFor(reply, opp); err == nil && sim.Wins {
				threats++
				if threats >= 2 {
					break
				}
			}
		}
		s.cells.Set(idx, prev)
		if threats >= 2 {
			out = append(out, c)
		}
	}
	return out
}

// safeMoves discards candidates that hand the opponent an immediate
// win on the reply. Each candidate is committed and unconditionally
// undone; the scratch use never escapes the call.
func safeMoves(s *State, legal []board.Coord, opp uint8) []board.Coord {
	var out []board.Coord
	for _, c := range legal {
		if _, err := s.MakeMove(c); err != nil {
			continue
		}
		dangerous := false
		if !s.IsGameOver() {
			for _, reply := range s.LegalMoves() {
				if sim, err := s.SimulateFor(reply, opp); err == nil && sim.Wins {
					dangerous = true
					break
				}
			}
		}
		s.UndoMove()
		if !dangerous {
			out = append(out, c)
		}
	}
	return out
}

// centrality is the negated squared distance to the board center, so
// larger is more central. Doubled coordinates keep it integral on
// even-sized boards.
func centrality(s *State, c board.Coord) int {
	dr := 2*c.Row - (s.geo.Rows() - 1)
	dc := 2*c.Col - (s.geo.Cols() - 1)
	return -(dr*dr + dc*dc)
}

// bestByCentrality returns the most central candidate; ties break by
// row-major order, so the result is deterministic. On an empty
// odd-sized board this is the exact center.
func bestByCentrality(s *State, cands []board.Coord) board.Coord {
	return pickBest(s, cands, func(c board.Coord) int {
		return centrality(s, c)
	})
}

// bestByScore adds partial-line potential to centrality: every line
// window through the candidate that the opponent does not already
// block scores by the stones we already hold in it.
func bestByScore(s *State, cands []board.Coord) board.Coord {
	me := s.CurrentPlayer()
	return pickBest(s, cands, func(c board.Coord) int {
		return centrality(s, c) + 8*linePotential(s, c, me)
	})
}

// linePotential counts, over every window of winLength cells through
// c in the four line orientations, the stones player already owns in
// windows free of opponent stones.
func linePotential(s *State, c board.Coord, player uint8) int {
	n := s.detect.runLength
	total := 0
	for _, dir := range lineDirs {
		for shift := 0; shift < n; shift++ {
			own, open := 0, true
			for i := 0; i < n; i++ {
				cell := board.Coord{
					Row: c.Row + (i-shift)*dir[0],
					Col: c.Col + (i-shift)*dir[1],
				}
				idx, err := s.geo.ToIndex(cell)
				if err != nil {
					open = false
					break
				}
				switch v := s.cells.Get(idx); v {
				case 0:
				case player:
					own++
				default:
					open = false
				}
				if !open {
					break
				}
			}
			if open {
				total += own
			}
		}
	}
	return total
}

func pickBest(s *State, cands []board.Coord, score func(board.Coord) int) board.Coord {
	ordered := make([]board.Coord, len(cands))
	copy(ordered, cands)
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := score(ordered[i]), score(ordered[j])
		if si != sj {
			return si > sj
		}
		ii, _ := s.geo.ToIndex(ordered[i])
		ij, _ := s.geo.ToIndex(ordered[j])
		return ii < ij
	})
	return ordered[0]
}
