package othello

import "math/bits"

// Cell is the state of a single square in the flattened board array.
type Cell uint8

const (
	CellEmpty Cell = 0
	CellBlack Cell = 1
	CellWhite Cell = 2
)

const (
	// BoardSize is the side length of the board.
	BoardSize = 8
	// NumSquares is the total square count; bit index = row*8 + col.
	NumSquares = BoardSize * BoardSize
)

// The 8 compass directions as (row, col) deltas.
var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Board is one Reversi position packed into two occupancy bitboards.
// Invariant: black and white never share a set bit. Board is a small
// value type; search copies it at every ply instead of undoing moves.
type Board struct {
	black uint64
	white uint64
}

// NewBoard returns the standard starting position:
// d4=white, e4=black, d5=black, e5=white.
func NewBoard() Board {
	return Board{
		black: bit(28) | bit(35),
		white: bit(27) | bit(36),
	}
}

// FromBitboards builds a board directly from raw occupancy masks.
func FromBitboards(black, white uint64) Board {
	return Board{black: black, white: white}
}

// Bitboards returns the raw (black, white) occupancy masks.
func (b Board) Bitboards() (black, white uint64) {
	return b.black, b.white
}

// LegalMoves returns the bitmask of empty squares where the given side
// can place a capturing stone. Pure; the board is not modified.
func (b Board) LegalMoves(isBlack bool) uint64 {
	me, opp := b.sides(isBlack)
	occupied := me | opp

	var legal uint64
	for pos := 0; pos < NumSquares; pos++ {
		if occupied&bit(pos) != 0 {
			continue
		}
		if collectFlips(pos, me, opp) != 0 {
			legal |= bit(pos)
		}
	}
	return legal
}

// Place puts a stone at pos for the given side and flips every captured
// stone, returning the flip mask. A move that captures nothing (illegal
// target, occupied square, or an out-of-range index) returns 0 and
// leaves the board untouched; that zero mask is the sole failure signal.
func (b *Board) Place(pos int, isBlack bool) uint64 {
	me, opp := b.sides(isBlack)

	flips := collectFlips(pos, me, opp)
	if flips == 0 {
		return 0
	}

	me |= bit(pos) | flips
	opp &^= flips

	if isBlack {
		b.black, b.white = me, opp
	} else {
		b.white, b.black = me, opp
	}
	return flips
}

// Count returns the (black, white) stone counts.
func (b Board) Count() (blackCount, whiteCount int) {
	return bits.OnesCount64(b.black), bits.OnesCount64(b.white)
}

// EmptyCount returns the number of empty squares.
func (b Board) EmptyCount() int {
	return NumSquares - bits.OnesCount64(b.black|b.white)
}

// ToArray flattens the position into a 64-cell array for display and
// for evaluator feature lookups.
func (b Board) ToArray() [NumSquares]Cell {
	var cells [NumSquares]Cell
	for pos := 0; pos < NumSquares; pos++ {
		switch {
		case b.black&bit(pos) != 0:
			cells[pos] = CellBlack
		case b.white&bit(pos) != 0:
			cells[pos] = CellWhite
		}
	}
	return cells
}

func (b Board) sides(isBlack bool) (me, opp uint64) {
	if isBlack {
		return b.black, b.white
	}
	return b.white, b.black
}

// collectFlips walks every direction from pos and gathers the runs of
// opponent stones that are bounded by one of the mover's stones. A run
// that reaches the edge or an empty square contributes nothing.
func collectFlips(pos int, me, opp uint64) uint64 {
	if pos < 0 || pos >= NumSquares {
		return 0
	}
	if (me|opp)&bit(pos) != 0 {
		return 0
	}

	row, col := pos/BoardSize, pos%BoardSize
	var flips uint64

	for _, d := range directions {
		r, c := row+d[0], col+d[1]
		var line uint64
		hasOpponent := false

		for r >= 0 && r < BoardSize && c >= 0 && c < BoardSize {
			square := bit(r*BoardSize + c)
			if opp&square != 0 {
				hasOpponent = true
				line |= square
			} else if me&square != 0 {
				if hasOpponent {
					flips |= line
				}
				break
			} else {
				break
			}
			r += d[0]
			c += d[1]
		}
	}
	return flips
}

func bit(pos int) uint64 {
	if pos < 0 || pos >= NumSquares {
		return 0
	}
	return 1 << uint(pos)
}
