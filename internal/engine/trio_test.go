package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuelshammer/LogicCastle-sub007/internal/board"
)

// newDigitBoard fills a 7×7 4-bit board with the digit cycle 1..9 in
// row-major order, a deterministic layout for assertions.
func newDigitBoard(t *testing.T) (*board.PatternGrid, *board.PackedBoard) {
	t.Helper()
	geo, err := board.NewPatternGrid(TrioSize, TrioSize)
	require.NoError(t, err)
	cells, err := board.NewPackedBoard(TrioSize, TrioSize, 4)
	require.NoError(t, err)
	for idx := 0; idx < geo.BoardSize(); idx++ {
		require.NoError(t, cells.Set(idx, uint8(idx%9+1)))
	}
	return geo, cells
}

func TestValidateTrioAdjacentLine(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// row 0 holds digits 1..7; cells (0,0) (0,1) (0,2) read 1,2,3
	sol, err := solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 0, Col: 2},
		5, // 1*2+3
	)
	require.NoError(t, err)
	assert.Equal(t, 1, sol.A)
	assert.Equal(t, 2, sol.B)
	assert.Equal(t, 3, sol.C)
	assert.False(t, sol.Subtract)
	assert.Equal(t, "1*2+3 = 5", sol.Formula)
}

func TestValidateTrioBackwardReading(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// forward 1,2,3 gives 5 or -1; backward 3,2,1 gives 3*2+1=7
	sol, err := solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 0, Col: 2},
		7,
	)
	require.NoError(t, err)
	assert.Equal(t, 3, sol.A)
	assert.Equal(t, 1, sol.C)
}

func TestValidateTrioSubtraction(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// cells (0,3) (0,4) (0,5) read 4,5,6: 4*5-6 = 14
	sol, err := solver.ValidateTrio(
		board.Coord{Row: 0, Col: 3},
		board.Coord{Row: 0, Col: 4},
		board.Coord{Row: 0, Col: 5},
		14,
	)
	require.NoError(t, err)
	assert.True(t, sol.Subtract)
	assert.Equal(t, "4*5-6 = 14", sol.Formula)
}

func TestValidateTrioCellOrderIrrelevant(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	a := board.Coord{Row: 0, Col: 0}
	b := board.Coord{Row: 0, Col: 1}
	c := board.Coord{Row: 0, Col: 2}
	want, err := solver.ValidateTrio(a, b, c, 5)
	require.NoError(t, err)

	for _, perm := range [][3]board.Coord{{c, a, b}, {b, c, a}, {c, b, a}} {
		got, err := solver.ValidateTrio(perm[0], perm[1], perm[2], 5)
		require.NoError(t, err)
		assert.Equal(t, want.Cells, got.Cells)
		assert.Equal(t, want.Formula, got.Formula)
	}
}

func TestValidateTrioRejectsNonAdjacent(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// digits 1 at (0,0), 2 at (0,1), 3 at (1,4): 1*2+3 = 5 holds
	// arithmetically, but the cells do not form a straight line
	require.Equal(t, uint8(3), cells.Cells()[1*TrioSize+4])
	_, err := solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 1, Col: 4},
		5,
	)
	assert.ErrorIs(t, err, ErrInvalidAdjacency)
}

func TestValidateTrioRejectsGappedLine(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// (0,0) (0,2) (0,4) are collinear but not consecutive
	_, err := solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 2},
		board.Coord{Row: 0, Col: 4},
		8, // 1*3+5
	)
	assert.ErrorIs(t, err, ErrInvalidAdjacency)
}

func TestValidateTrioRejectsMiddleAsOperand(t *testing.T) {
	geo, err := board.NewPatternGrid(TrioSize, TrioSize)
	require.NoError(t, err)
	cells, err := board.NewPackedBoard(TrioSize, TrioSize, 4)
	require.NoError(t, err)
	for idx := 0; idx < geo.BoardSize(); idx++ {
		require.NoError(t, cells.Set(idx, 9))
	}
	// row 0 starts 2,5,3: only readings are 2*5±3 and 3*5±2; the
	// free permutation 2*3+5 = 11 must not count
	for i, d := range []uint8{2, 5, 3} {
		require.NoError(t, cells.Set(i, d))
	}
	solver := NewTripletSolver(geo, cells)

	_, err = solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 0, Col: 2},
		11,
	)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAdjacency)

	// the sanctioned readings still work
	_, err = solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 0, Col: 2},
		13, // 2*5+3
	)
	assert.NoError(t, err)
	_, err = solver.ValidateTrio(
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 0, Col: 1},
		board.Coord{Row: 0, Col: 2},
		17, // 3*5+2
	)
	assert.NoError(t, err)
}

func TestValidateTrioOutOfBounds(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	_, err := solver.ValidateTrio(
		board.Coord{Row: -1, Col: 0},
		board.Coord{Row: 0, Col: 0},
		board.Coord{Row: 1, Col: 0},
		5,
	)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestFindAllSolutionsDrawsFromPatternList(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	for _, target := range []int{1, 5, 20, 45, 90} {
		sols := solver.FindAllSolutions(target)
		assert.LessOrEqual(t, len(sols), geo.PatternCount())
		for _, sol := range sols {
			pat, ok := geo.Find(sol.Cells[0], sol.Cells[1], sol.Cells[2])
			require.True(t, ok)
			assert.Equal(t, pat, sol.Cells)
			// every reported solution revalidates
			_, err := solver.ValidateTrio(sol.Cells[0], sol.Cells[1], sol.Cells[2], target)
			assert.NoError(t, err)
		}
		assert.Equal(t, len(sols), solver.CountSolutions(target))
	}
}

func TestFindAllSolutionsUnreachableTarget(t *testing.T) {
	geo, cells := newDigitBoard(t)
	solver := NewTripletSolver(geo, cells)

	// digits cap at 9, so 9*9+9 = 90 is the maximum
	assert.Empty(t, solver.FindAllSolutions(91))
	assert.Zero(t, solver.CountSolutions(91))
}
