package board

import "fmt"

// Coord is a board position in a game's native row/column space.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Geometry maps between a game's 2D coordinate space and the linear
// cell index of a PackedBoard. Implementations are immutable; all
// methods are pure functions of the coordinate.
type Geometry interface {
	Rows() int
	Cols() int
	// BoardSize is the number of addressable cells.
	BoardSize() int
	// IsValid reports whether the coordinate is on the board.
	IsValid(c Coord) bool
	// ToIndex converts a coordinate to its linear index. It and
	// FromIndex are mutual inverses over all valid coordinates.
	ToIndex(c Coord) (int, error)
	FromIndex(index int) (Coord, error)
	// Neighbors returns the in-bounds neighbors of c. Pattern-indexed
	// geometries, where the only legal operation is selecting a
	// precomputed line, return nil.
	Neighbors(c Coord) []Coord
}

// NeighborMode selects the adjacency rule of a QuadraticGrid.
type NeighborMode int

const (
	// Orthogonal connects each cell to its 4 edge neighbors.
	Orthogonal NeighborMode = iota
	// Octagonal adds the 4 diagonal neighbors.
	Octagonal
)

var (
	orthoSteps = [4][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
	octoSteps  = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
)

// QuadraticGrid is a rectangular board with row-major linear indexing.
type QuadraticGrid struct {
	rows, cols int
	mode       NeighborMode
}

// NewQuadraticGrid builds a rows×cols grid with the given adjacency.
func NewQuadraticGrid(rows, cols int, mode NeighborMode) (*QuadraticGrid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid extent %dx%d", rows, cols)
	}
	return &QuadraticGrid{rows: rows, cols: cols, mode: mode}, nil
}

func (g *QuadraticGrid) Rows() int      { return g.rows }
func (g *QuadraticGrid) Cols() int      { return g.cols }
func (g *QuadraticGrid) BoardSize() int { return g.rows * g.cols }

func (g *QuadraticGrid) IsValid(c Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

func (g *QuadraticGrid) ToIndex(c Coord) (int, error) {
	if !g.IsValid(c) {
		return 0, fmt.Errorf("coordinate %v outside %dx%d grid", c, g.rows, g.cols)
	}
	return c.Row*g.cols + c.Col, nil
}

func (g *QuadraticGrid) FromIndex(index int) (Coord, error) {
	if index < 0 || index >= g.BoardSize() {
		return Coord{}, fmt.Errorf("index %d outside %dx%d grid", index, g.rows, g.cols)
	}
	return Coord{Row: index / g.cols, Col: index % g.cols}, nil
}

func (g *QuadraticGrid) Neighbors(c Coord) []Coord {
	if !g.IsValid(c) {
		return nil
	}
	steps := orthoSteps[:]
	if g.mode == Octagonal {
		steps = octoSteps[:]
	}
	out := make([]Coord, 0, len(steps))
	for _, s := range steps {
		n := Coord{Row: c.Row + s[0], Col: c.Col + s[1]}
		if g.IsValid(n) {
			out = append(out, n)
		}
	}
	return out
}
