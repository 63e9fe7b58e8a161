// Package board provides bit-packed grid storage and the geometry
// abstractions that map game coordinates onto it.
package board

import "fmt"

const wordBits = 64

// PackedBoard stores one small integer per cell using a fixed number of
// bits per cell, backed by 64-bit words. Cell ranges may straddle word
// boundaries. The board is created once per game and never resized.
type PackedBoard struct {
	rows, cols  int
	bitsPerCell uint
	mask        uint64
	words       []uint64
	filled      int // cells holding a nonzero value
}

// NewPackedBoard allocates a rows×cols board with bitsPerCell bits of
// storage per cell (1–4).
func NewPackedBoard(rows, cols, bitsPerCell int) (*PackedBoard, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid extent %dx%d", rows, cols)
	}
	if bitsPerCell < 1 || bitsPerCell > 4 {
		return nil, fmt.Errorf("bits per cell must be 1..4, got %d", bitsPerCell)
	}
	totalBits := rows * cols * bitsPerCell
	nWords := (totalBits + wordBits - 1) / wordBits
	return &PackedBoard{
		rows:        rows,
		cols:        cols,
		bitsPerCell: uint(bitsPerCell),
		mask:        (1 << uint(bitsPerCell)) - 1,
		words:       make([]uint64, nWords),
	}, nil
}

// Rows returns the row count.
func (b *PackedBoard) Rows() int { return b.rows }

// Cols returns the column count.
func (b *PackedBoard) Cols() int { return b.cols }

// Len returns the cell count.
func (b *PackedBoard) Len() int { return b.rows * b.cols }

// BitsPerCell returns the declared cell width in bits.
func (b *PackedBoard) BitsPerCell() int { return int(b.bitsPerCell) }

// Get returns the value stored at index. The index must satisfy
// 0 <= index < Len(); anything else is a caller bug and panics.
func (b *PackedBoard) Get(index int) uint8 {
	if index < 0 || index >= b.Len() {
		panic(fmt.Sprintf("board: index %d out of range [0,%d)", index, b.Len()))
	}
	pos := uint(index) * b.bitsPerCell
	word, off := pos/wordBits, pos%wordBits
	v := b.words[word] >> off
	if off+b.bitsPerCell > wordBits {
		v |= b.words[word+1] << (wordBits - off)
	}
	return uint8(v & b.mask)
}

// Set writes value at index. Values wider than the declared cell width
// are rejected, never truncated.
func (b *PackedBoard) Set(index int, value uint8) error {
	if index < 0 || index >= b.Len() {
		return fmt.Errorf("index %d out of range [0,%d)", index, b.Len())
	}
	if uint64(value) > b.mask {
		return fmt.Errorf("value %d exceeds %d-bit cell width", value, b.bitsPerCell)
	}
	old := b.Get(index)
	pos := uint(index) * b.bitsPerCell
	word, off := pos/wordBits, pos%wordBits
	b.words[word] = b.words[word]&^(b.mask<<off) | uint64(value)<<off
	if off+b.bitsPerCell > wordBits {
		spill := wordBits - off
		b.words[word+1] = b.words[word+1]&^(b.mask>>spill) | uint64(value)>>spill
	}
	switch {
	case old == 0 && value != 0:
		b.filled++
	case old != 0 && value == 0:
		b.filled--
	}
	return nil
}

// Clear zeroes the cell at index.
func (b *PackedBoard) Clear(index int) error {
	return b.Set(index, 0)
}

// IsFull reports whether every cell holds a nonzero value.
func (b *PackedBoard) IsFull() bool { return b.filled == b.Len() }

// Filled returns the number of nonzero cells.
func (b *PackedBoard) Filled() int { return b.filled }

// Cells returns a flat row-major copy of all cell values.
func (b *PackedBoard) Cells() []uint8 {
	out := make([]uint8, b.Len())
	for i := range out {
		out[i] = b.Get(i)
	}
	return out
}

// Reset zeroes the whole board.
func (b *PackedBoard) Reset() {
	clear(b.words)
	b.filled = 0
}

// Clone returns an independent copy.
func (b *PackedBoard) Clone() *PackedBoard {
	cp := *b
	cp.words = make([]uint64, len(b.words))
	copy(cp.words, b.words)
	return &cp
}

// Equal reports whether two boards hold identical contents and shape.
func (b *PackedBoard) Equal(o *PackedBoard) bool {
	if b.rows != o.rows || b.cols != o.cols || b.bitsPerCell != o.bitsPerCell {
		return false
	}
	for i, w := range b.words {
		if o.words[i] != w {
			return false
		}
	}
	return true
}

// MemoryUsage returns the exact number of bytes backing the cell
// storage: the cell bits rounded up to whole 64-bit words.
func (b *PackedBoard) MemoryUsage() int {
	return len(b.words) * (wordBits / 8)
}
