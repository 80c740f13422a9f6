package engine

import (
	"math/bits"

	"reversi-engine/othello"
)

// Difficulty levels accepted by the search-backed selector. The level
// doubles as the nominal search depth.
const (
	MinLevel uint8 = 1
	MaxLevel uint8 = 6
)

// MoveSelector chooses one square for the given side, or reports false
// when the side has no legal move. Implementations are picked once at
// session construction time.
type MoveSelector interface {
	SelectMove(b othello.Board, isBlack bool, level uint8) (int, bool)
}

// FirstLegalSelector plays the lowest-indexed legal square. Instant and
// deterministic; the weakest difficulty and a handy test double.
type FirstLegalSelector struct{}

func (FirstLegalSelector) SelectMove(b othello.Board, isBlack bool, _ uint8) (int, bool) {
	legal := b.LegalMoves(isBlack)
	if legal == 0 {
		return 0, false
	}
	return bits.TrailingZeros64(legal), true
}

// SearchSelector runs the full evaluator-backed tree search, using the
// level directly as the searcher's nominal depth.
type SearchSelector struct {
	Evaluator *NTupleEvaluator
}

func (s SearchSelector) SelectMove(b othello.Board, isBlack bool, level uint8) (int, bool) {
	if b.LegalMoves(isBlack) == 0 {
		return 0, false
	}
	return NewSearcher(s.Evaluator, level).Search(b, isBlack), true
}
