package engine

import (
	"math"
	"math/bits"
	"time"

	"golang.org/x/exp/slices"

	"reversi-engine/othello"
)

// DefaultSearchTimeout bounds one top-level Search call when no explicit
// budget is given.
const DefaultSearchTimeout = 5 * time.Second

var (
	scoreMin = float32(math.Inf(-1))
	scoreMax = float32(math.Inf(1))
)

// Searcher picks moves by iterative-deepening negamax with alpha-beta
// pruning, switching to an exact full-depth solve near the end of the
// game. All per-search state is reset at the top of Search; a Searcher
// borrows its evaluator and never modifies it.
//
// Single-threaded by design: the session layer above guarantees at most
// one search in flight per game, so no locking happens here.
type Searcher struct {
	evaluator *NTupleEvaluator
	startTime time.Time
	timeout   time.Duration
	maxDepth  uint8
	timedOut  bool
	nodes     uint64
}

// NewSearcher returns a searcher with the default time budget.
func NewSearcher(evaluator *NTupleEvaluator, maxDepth uint8) *Searcher {
	return NewSearcherWithTimeout(evaluator, maxDepth, DefaultSearchTimeout)
}

// NewSearcherWithTimeout returns a searcher with an explicit wall-clock
// budget per Search call.
func NewSearcherWithTimeout(evaluator *NTupleEvaluator, maxDepth uint8, timeout time.Duration) *Searcher {
	return &Searcher{
		evaluator: evaluator,
		startTime: time.Now(),
		timeout:   timeout,
		maxDepth:  maxDepth,
	}
}

// TimedOut reports whether the last Search hit its deadline.
func (s *Searcher) TimedOut() bool {
	return s.timedOut
}

// Nodes returns the number of nodes visited by the last Search.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search returns the chosen square for the side to move.
//
// Caller contract: the side must have at least one legal move; calling
// without one is a precondition violation and panics. A lone legal move
// is returned without touching the tree. Otherwise depths 1..maxDepth
// run in turn, each completed pass replacing the current best move; a
// pass interrupted by the deadline is discarded wholesale. The depth-1
// pass skips deadline checks entirely, so some legal move is always
// produced even under a near-zero budget. When few enough squares
// remain for the configured level, a full exact solve runs last and
// overrides the heuristic choice if it finishes in budget.
func (s *Searcher) Search(b othello.Board, isBlack bool) int {
	s.startTime = time.Now()
	s.timedOut = false
	s.nodes = 0

	moves := bitboardMoves(b.LegalMoves(isBlack))
	if len(moves) == 0 {
		panic("engine: Search requires at least one legal move")
	}
	if len(moves) == 1 {
		return moves[0]
	}

	bestMove := moves[0]
	for depth := uint8(1); depth <= s.maxDepth; depth++ {
		mv, _, ok := s.negaAlpha(b, isBlack, depth, depth, scoreMin, scoreMax)
		if !ok {
			break
		}
		bestMove = mv
	}

	if s.shouldExactSolve(b) && !s.timedOut {
		if mv, _, ok := s.exactSolve(b, isBlack); ok {
			bestMove = mv
		}
	}
	return bestMove
}

// negaAlpha is the depth-limited heuristic search. rootDepth rides along
// so the entire depth-1 iteration can skip its deadline checks. The
// third return value is false when the deadline expired; a partial
// result is never reported upward.
func (s *Searcher) negaAlpha(b othello.Board, isBlack bool, depth, rootDepth uint8, alpha, beta float32) (int, float32, bool) {
	if rootDepth > 1 && time.Since(s.startTime) >= s.timeout {
		s.timedOut = true
		return 0, 0, false
	}
	s.nodes++

	if depth == 0 {
		return 0, s.evaluator.Evaluate(b, isBlack), true
	}

	legal := b.LegalMoves(isBlack)
	if legal == 0 {
		if b.LegalMoves(!isBlack) == 0 {
			// Double pass: the game is over, score it exactly.
			return 0, exactScore(b, isBlack), true
		}
		// Pass: swap sides and negate the window without consuming depth.
		mv, score, ok := s.negaAlpha(b, !isBlack, depth, rootDepth, -beta, -alpha)
		return mv, -score, ok
	}

	moves := s.sortedMoves(legal, b, isBlack)
	bestMove := moves[0]
	bestScore := scoreMin

	for _, mv := range moves {
		next := b
		next.Place(mv, isBlack)
		_, score, ok := s.negaAlpha(next, !isBlack, depth-1, rootDepth, -beta, -alpha)
		if !ok {
			return 0, 0, false
		}
		score = -score
		if score > bestScore || (score == bestScore && mv < bestMove) {
			bestScore = score
			bestMove = mv
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return bestMove, bestScore, true
}

// shouldExactSolve reports whether the remaining empty squares are within
// the exact-solve window for the configured level.
func (s *Searcher) shouldExactSolve(b othello.Board) bool {
	empty := b.EmptyCount()
	switch s.maxDepth {
	case 3:
		return empty <= 10
	case 4:
		return empty <= 12
	case 5:
		return empty <= 14
	case 6:
		return empty <= 16
	default:
		// Levels 1-2 never solve exactly.
		return false
	}
}

func (s *Searcher) exactSolve(b othello.Board, isBlack bool) (int, float32, bool) {
	return s.negaAlphaExact(b, isBlack, b.EmptyCount(), scoreMin, scoreMax)
}

// negaAlphaExact searches to the end of the game, limited by the number
// of empty squares instead of a nominal depth. Leaves are scored by the
// true disc differential. Unlike the heuristic search it checks the
// deadline at every node.
func (s *Searcher) negaAlphaExact(b othello.Board, isBlack bool, empties int, alpha, beta float32) (int, float32, bool) {
	if time.Since(s.startTime) >= s.timeout {
		s.timedOut = true
		return 0, 0, false
	}
	s.nodes++

	if empties == 0 {
		return 0, exactScore(b, isBlack), true
	}

	legal := b.LegalMoves(isBlack)
	if legal == 0 {
		if b.LegalMoves(!isBlack) == 0 {
			return 0, exactScore(b, isBlack), true
		}
		mv, score, ok := s.negaAlphaExact(b, !isBlack, empties, -beta, -alpha)
		return mv, -score, ok
	}

	moves := s.sortedMoves(legal, b, isBlack)
	bestMove := moves[0]
	bestScore := scoreMin

	for _, mv := range moves {
		next := b
		next.Place(mv, isBlack)
		_, score, ok := s.negaAlphaExact(next, !isBlack, empties-1, -beta, -alpha)
		if !ok {
			return 0, 0, false
		}
		score = -score
		if score > bestScore || (score == bestScore && mv < bestMove) {
			bestScore = score
			bestMove = mv
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return bestMove, bestScore, true
}

type scoredMove struct {
	move  int
	score float32
}

// sortedMoves orders the legal moves by a one-ply evaluator lookahead,
// best first, with the smaller square index winning ties. The ordering
// both tightens pruning and fixes the deterministic tie-break.
func (s *Searcher) sortedMoves(legal uint64, b othello.Board, isBlack bool) []int {
	scored := make([]scoredMove, 0, bits.OnesCount64(legal))
	for _, mv := range bitboardMoves(legal) {
		next := b
		next.Place(mv, isBlack)
		// One-ply lookahead scored from the mover's perspective.
		scored = append(scored, scoredMove{move: mv, score: -s.evaluator.Evaluate(next, !isBlack)})
	}

	slices.SortStableFunc(scored, func(x, y scoredMove) int {
		switch {
		case x.score > y.score:
			return -1
		case x.score < y.score:
			return 1
		default:
			return x.move - y.move
		}
	})

	moves := make([]int, len(scored))
	for i, sm := range scored {
		moves[i] = sm.move
	}
	return moves
}

// exactScore is the final disc differential from the querying side's
// perspective.
func exactScore(b othello.Board, isBlack bool) float32 {
	black, white := b.Count()
	if isBlack {
		return float32(black - white)
	}
	return float32(white - black)
}

// bitboardMoves unpacks a move mask into ascending square indices.
func bitboardMoves(mask uint64) []int {
	moves := make([]int, 0, bits.OnesCount64(mask))
	for mask != 0 {
		moves = append(moves, bits.TrailingZeros64(mask))
		mask &= mask - 1
	}
	return moves
}
