package board

// Pattern is one straight line of exactly three cells, stored in the
// order the line is walked from its starting cell.
type Pattern [3]Coord

// PatternGrid is a pattern-indexed geometry: instead of a neighbor
// function it carries the precomputed list of every straight 3-cell
// line on the underlying grid (horizontal, vertical and both
// diagonals). A 7×7 grid yields 120 patterns regardless of contents.
type PatternGrid struct {
	grid     *QuadraticGrid
	patterns []Pattern
	// membership lookup keyed by the sorted index triple
	index map[[3]int]int
}

// patternSteps are the canonical walk directions. Opposite directions
// would enumerate every line twice, so only these four are used.
var patternSteps = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// NewPatternGrid enumerates all 3-cell lines of a rows×cols grid.
func NewPatternGrid(rows, cols int) (*PatternGrid, error) {
	grid, err := NewQuadraticGrid(rows, cols, Octagonal)
	if err != nil {
		return nil, err
	}
	p := &PatternGrid{grid: grid, index: make(map[[3]int]int)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for _, s := range patternSteps {
				end := Coord{Row: r + 2*s[0], Col: c + 2*s[1]}
				if !grid.IsValid(end) {
					continue
				}
				pat := Pattern{
					{Row: r, Col: c},
					{Row: r + s[0], Col: c + s[1]},
					end,
				}
				p.index[p.keyOf(pat)] = len(p.patterns)
				p.patterns = append(p.patterns, pat)
			}
		}
	}
	return p, nil
}

func (p *PatternGrid) keyOf(pat Pattern) [3]int {
	var k [3]int
	for i, c := range pat {
		k[i], _ = p.grid.ToIndex(c)
	}
	// insertion sort; three elements
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	if k[1] > k[2] {
		k[1], k[2] = k[2], k[1]
	}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	return k
}

func (p *PatternGrid) Rows() int      { return p.grid.Rows() }
func (p *PatternGrid) Cols() int      { return p.grid.Cols() }
func (p *PatternGrid) BoardSize() int { return p.grid.BoardSize() }

func (p *PatternGrid) IsValid(c Coord) bool { return p.grid.IsValid(c) }

func (p *PatternGrid) ToIndex(c Coord) (int, error) { return p.grid.ToIndex(c) }

func (p *PatternGrid) FromIndex(index int) (Coord, error) { return p.grid.FromIndex(index) }

// Neighbors always returns nil: pattern geometries have no step
// operation, only pattern selection.
func (p *PatternGrid) Neighbors(Coord) []Coord { return nil }

// Patterns returns the precomputed line list. Callers must not modify it.
func (p *PatternGrid) Patterns() []Pattern { return p.patterns }

// PatternCount returns the number of precomputed lines.
func (p *PatternGrid) PatternCount() int { return len(p.patterns) }

// Find returns the stored pattern containing exactly the three given
// cells, in its canonical stored order. The cells may be given in any
// order. ok is false when no straight line joins them.
func (p *PatternGrid) Find(a, b, c Coord) (Pattern, bool) {
	for _, co := range [3]Coord{a, b, c} {
		if !p.grid.IsValid(co) {
			return Pattern{}, false
		}
	}
	i, ok := p.index[p.keyOf(Pattern{a, b, c})]
	if !ok {
		return Pattern{}, false
	}
	return p.patterns[i], true
}
