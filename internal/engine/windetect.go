package engine

import "github.com/kuelshammer/LogicCastle-sub007/internal/board"

// lineDirs are the four line orientations a run can lie in. Each is
// scanned both forward and backward from the placed cell.
var lineDirs = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

// WinDetector finds runs of a required length through the cell that
// was just played. Each check walks at most runLength-1 cells in
// either direction, so detection is O(run length), never a board
// rescan. Correctness relies on being called immediately after the
// mutation it is meant to detect.
type WinDetector struct {
	geo       board.Geometry
	runLength int
}

// NewWinDetector builds a detector for the given geometry and run
// length.
func NewWinDetector(geo board.Geometry, runLength int) *WinDetector {
	return &WinDetector{geo: geo, runLength: runLength}
}

// Check reports whether placing player's stone at last completed a run
// of the required length, returning the contributing cells in board
// order for highlighting.
func (d *WinDetector) Check(cells *board.PackedBoard, last board.Coord, player uint8) ([]board.Coord, bool) {
	for _, dir := range lineDirs {
		forward := d.walk(cells, last, dir[0], dir[1], player)
		backward := d.walk(cells, last, -dir[0], -dir[1], player)
		if 1+len(forward)+len(backward) >= d.runLength {
			line := make([]board.Coord, 0, 1+len(forward)+len(backward))
			for i := len(backward) - 1; i >= 0; i-- {
				line = append(line, backward[i])
			}
			line = append(line, last)
			line = append(line, forward...)
			return line, true
		}
	}
	return nil, false
}

// walk collects consecutive same-owner cells stepping (dr,dc) away
// from start, excluding start itself.
func (d *WinDetector) walk(cells *board.PackedBoard, start board.Coord, dr, dc int, player uint8) []board.Coord {
	var run []board.Coord
	c := board.Coord{Row: start.Row + dr, Col: start.Col + dc}
	for len(run) < d.runLength-1 {
		idx, err := d.geo.ToIndex(c)
		if err != nil || cells.Get(idx) != player {
			break
		}
		run = append(run, c)
		c = board.Coord{Row: c.Row + dr, Col: c.Col + dc}
	}
	return run
}
