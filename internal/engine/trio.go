package engine

import (
	"fmt"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
)

// TrioSize is the extent of the arithmetic-puzzle board.
const TrioSize = 7

// Solution is one validated triplet: a pattern read in a fixed order
// together with the arithmetic that hits the target (a*b+c or a*b-c).
type Solution struct {
	Cells    board.Pattern `json:"cells"`
	A, B, C  int           `json:"-"`
	Formula  string        `json:"formula"`
	Subtract bool          `json:"subtract"`
}

// TripletSolver enumerates and validates adjacent triplets on a board
// of digits. Adjacency means membership in the geometry's precomputed
// straight-line list; it is a hard precondition, never a scoring
// factor. A pattern is read only in its stored order and the reverse
// of it, with the final cell of the reading playing the role of c —
// the six free permutations are deliberately not considered.
type TripletSolver struct {
	geo   *board.PatternGrid
	cells *board.PackedBoard
}

// NewTripletSolver builds a solver over the given digit board. Digits
// occupy 4-bit cells (values 1–9).
func NewTripletSolver(geo *board.PatternGrid, cells *board.PackedBoard) *TripletSolver {
	return &TripletSolver{geo: geo, cells: cells}
}

// digit reads the value at a coordinate known to be valid.
func (t *TripletSolver) digit(c board.Coord) int {
	idx, _ := t.geo.ToIndex(c)
	return int(t.cells.Get(idx))
}

// reading tests one ordered reading (a,b,c) against target.
func reading(a, b, c, target int) (Solution, bool) {
	switch {
	case a*b+c == target:
		return Solution{A: a, B: b, C: c,
			Formula: fmt.Sprintf("%d*%d+%d = %d", a, b, c, target)}, true
	case a*b-c == target:
		return Solution{A: a, B: b, C: c, Subtract: true,
			Formula: fmt.Sprintf("%d*%d-%d = %d", a, b, c, target)}, true
	}
	return Solution{}, false
}

// check tests a pattern's forward and backward readings.
func (t *TripletSolver) check(pat board.Pattern, target int) (Solution, bool) {
	v0, v1, v2 := t.digit(pat[0]), t.digit(pat[1]), t.digit(pat[2])
	if sol, ok := reading(v0, v1, v2, target); ok {
		sol.Cells = pat
		return sol, true
	}
	if sol, ok := reading(v2, v1, v0, target); ok {
		sol.Cells = pat
		return sol, true
	}
	return Solution{}, false
}

// ValidateTrio checks a player's selection of three cells against the
// target. The cells may be given in any order but must form one of the
// precomputed straight lines; otherwise ErrInvalidAdjacency is
// returned even when the arithmetic would hold.
func (t *TripletSolver) ValidateTrio(a, b, c board.Coord, target int) (Solution, error) {
	for _, co := range [3]board.Coord{a, b, c} {
		if !t.geo.IsValid(co) {
			return Solution{}, fmt.Errorf("%w: %v", ErrOutOfBounds, co)
		}
	}
	pat, ok := t.geo.Find(a, b, c)
	if !ok {
		return Solution{}, fmt.Errorf("%w: %v %v %v", ErrInvalidAdjacency, a, b, c)
	}
	sol, ok := t.check(pat, target)
	if !ok {
		return Solution{}, fmt.Errorf("no formula for %v reaches %d", pat, target)
	}
	return sol, nil
}

// FindAllSolutions iterates the precomputed pattern list (never all
// cell combinations) and returns every pattern with a valid reading.
// The result is bounded by the pattern count: 120 on a 7×7 board.
func (t *TripletSolver) FindAllSolutions(target int) []Solution {
	var out []Solution
	for _, pat := range t.geo.Patterns() {
		if sol, ok := t.check(pat, target); ok {
			out = append(out, sol)
		}
	}
	return out
}

// CountSolutions returns the number of solvable patterns for target.
func (t *TripletSolver) CountSolutions(target int) int {
	return len(t.FindAllSolutions(target))
}
