package engine

import "errors"

// Engine error taxonomy. All are recoverable; callers discriminate
// with errors.Is and decide whether to re-prompt.
var (
	ErrOutOfBounds      = errors.New("position out of bounds")
	ErrCellOccupied     = errors.New("cell already occupied")
	ErrGameOver         = errors.New("game already over")
	ErrInvalidAdjacency = errors.New("cells do not form a straight line")
	ErrNoHistory        = errors.New("no move to undo")
	ErrNoLegalMoves     = errors.New("no legal moves available")
)
