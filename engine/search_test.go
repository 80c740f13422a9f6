package engine

import (
	"testing"
	"time"

	"reversi-engine/othello"
)

// constantEvaluator yields 0 for every position, making every candidate
// move score equal so the index tie-break decides.
func constantEvaluator(t *testing.T) *NTupleEvaluator {
	t.Helper()
	blob := buildWeightsBlob(t, [][]uint8{{0}}, [][]float32{{0, 0, 0}})
	ev, err := NewEvaluatorFromBytes(blob)
	if err != nil {
		t.Fatalf("constant evaluator must deserialize: %v", err)
	}
	return ev
}

// boardWithEmptyCount fills the low squares with black stones, leaving
// the requested number of empties.
func boardWithEmptyCount(empty int) othello.Board {
	occupied := othello.NumSquares - empty
	var black uint64
	if occupied >= 64 {
		black = ^uint64(0)
	} else {
		black = (uint64(1) << uint(occupied)) - 1
	}
	return othello.FromBitboards(black, 0)
}

func TestSearchReturnsSingleLegalMoveImmediately(t *testing.T) {
	searcher := NewSearcher(constantEvaluator(t), 6)

	// Full board except square 0; white's only move is 0.
	black := uint64(1) << 1
	white := ^uint64(0) &^ (uint64(1) | black)
	board := othello.FromBitboards(black, white)

	if mv := searcher.Search(board, false); mv != 0 {
		t.Fatalf("expected move 0, got %d", mv)
	}
	if searcher.TimedOut() {
		t.Fatalf("single-move shortcut must not time out")
	}
}

func TestSearchTieBreaksToSmallestIndex(t *testing.T) {
	searcher := NewSearcher(constantEvaluator(t), 1)

	// Initial legal moves are 19, 26, 37, 44; all score equal under the
	// constant evaluator.
	if mv := searcher.Search(othello.NewBoard(), true); mv != 19 {
		t.Fatalf("expected move 19, got %d", mv)
	}
}

func TestSearchDepthOneCompletesUnderTinyBudget(t *testing.T) {
	searcher := NewSearcherWithTimeout(constantEvaluator(t), 6, time.Nanosecond)
	board := othello.NewBoard()

	mv := searcher.Search(board, true)

	if legal := board.LegalMoves(true); legal&(uint64(1)<<uint(mv)) == 0 {
		t.Fatalf("move %d is not legal", mv)
	}
	if !searcher.TimedOut() {
		t.Fatalf("expected the deadline to cut off deeper iterations")
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	ev := constantEvaluator(t)
	board := othello.NewBoard()

	first := NewSearcher(ev, 3).Search(board, true)
	for i := 0; i < 3; i++ {
		if mv := NewSearcher(ev, 3).Search(board, true); mv != first {
			t.Fatalf("run %d returned %d, first run returned %d", i, mv, first)
		}
	}
}

func TestShouldExactSolveMatchesLevelTable(t *testing.T) {
	ev := constantEvaluator(t)

	tests := []struct {
		level uint8
		empty int
		want  bool
	}{
		{1, 4, false},
		{2, 4, false},
		{3, 10, true},
		{3, 11, false},
		{4, 12, true},
		{4, 13, false},
		{5, 14, true},
		{5, 15, false},
		{6, 16, true},
		{6, 17, false},
	}

	for _, tc := range tests {
		s := NewSearcher(ev, tc.level)
		if got := s.shouldExactSolve(boardWithEmptyCount(tc.empty)); got != tc.want {
			t.Errorf("level %d with %d empties: expected %v, got %v", tc.level, tc.empty, tc.want, got)
		}
	}
}

func TestExactSolveStopsWhenDeadlineAlreadyExceeded(t *testing.T) {
	searcher := NewSearcherWithTimeout(constantEvaluator(t), 6, 0)
	searcher.startTime = time.Now().Add(-time.Millisecond)

	if _, _, ok := searcher.exactSolve(othello.NewBoard(), true); ok {
		t.Fatalf("expected the exact solve to report a timeout")
	}
	if !searcher.TimedOut() {
		t.Fatalf("expected the timed-out flag to be set")
	}
}

func TestSearchPanicsWithoutLegalMoves(t *testing.T) {
	searcher := NewSearcher(constantEvaluator(t), 3)
	// Lone black stone: black has nothing to capture.
	board := othello.FromBitboards(uint64(1)<<27, 0)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic on the no-legal-move precondition")
		}
	}()
	searcher.Search(board, true)
}

func TestExactSolvePrefersWinningLine(t *testing.T) {
	ev := constantEvaluator(t)

	// Two empties (62, 63) with white stones at 61 and 54, black
	// everywhere else. Playing 62 grabs both whites at once but leaves
	// the final diff at 63; playing 63 first lets black take everything
	// (diff 64). The index tie-break alone would pick 62, so only exact
	// scoring finds 63.
	empties := uint64(1)<<62 | uint64(1)<<63
	white := uint64(1)<<61 | uint64(1)<<54
	black := ^uint64(0) &^ (empties | white)
	board := othello.FromBitboards(black, white)

	searcher := NewSearcher(ev, 6)
	mv := searcher.Search(board, true)

	if mv != 63 {
		t.Fatalf("expected the winning endgame move 63, got %d", mv)
	}
	if searcher.TimedOut() {
		t.Fatalf("tiny endgame should solve well inside the budget")
	}
}
