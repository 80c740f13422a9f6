// Command selfplay plays complete games between two move selectors and
// prints the final score. It stands in for the session layer above the
// engine, driving the board/searcher interface end to end.
package main

import (
	"flag"
	"fmt"
	"log"

	"reversi-engine/engine"
	"reversi-engine/othello"
)

func main() {
	weightsFlag := flag.String("weights", "", "N-Tuple weights file; empty plays first-legal on both sides")
	blackLevel := flag.Uint("black", 0, "black search level (0 = first-legal selector)")
	whiteLevel := flag.Uint("white", 0, "white search level (0 = first-legal selector)")
	gamesFlag := flag.Int("games", 1, "number of games to play")
	flag.Parse()

	var evaluator *engine.NTupleEvaluator
	if *weightsFlag != "" {
		var err error
		evaluator, err = engine.LoadEvaluator(*weightsFlag)
		if err != nil {
			log.Fatalf("load evaluator: %v", err)
		}
	}

	blackSel, blackLvl := pickSelector(evaluator, *blackLevel)
	whiteSel, whiteLvl := pickSelector(evaluator, *whiteLevel)

	for game := 1; game <= *gamesFlag; game++ {
		black, white := play(blackSel, blackLvl, whiteSel, whiteLvl)
		fmt.Printf("game %d: black %d white %d\n", game, black, white)
	}
}

func pickSelector(evaluator *engine.NTupleEvaluator, level uint) (engine.MoveSelector, uint8) {
	if level == 0 {
		return engine.FirstLegalSelector{}, 0
	}
	if evaluator == nil {
		log.Fatalf("a search level needs -weights")
	}
	if level < uint(engine.MinLevel) || level > uint(engine.MaxLevel) {
		log.Fatalf("level must be in %d..%d, got %d", engine.MinLevel, engine.MaxLevel, level)
	}
	return engine.SearchSelector{Evaluator: evaluator}, uint8(level)
}

// play runs one game to the double-pass terminal state and returns the
// final stone counts.
func play(blackSel engine.MoveSelector, blackLvl uint8, whiteSel engine.MoveSelector, whiteLvl uint8) (black, white int) {
	board := othello.NewBoard()
	isBlack := true

	for passes := 0; passes < 2; {
		sel, lvl := whiteSel, whiteLvl
		if isBlack {
			sel, lvl = blackSel, blackLvl
		}

		mv, ok := sel.SelectMove(board, isBlack, lvl)
		if !ok {
			passes++
			isBlack = !isBlack
			continue
		}
		if flips := board.Place(mv, isBlack); flips == 0 {
			log.Fatalf("selector produced illegal move %d", mv)
		}
		passes = 0
		isBlack = !isBlack
	}

	return board.Count()
}
