package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"reversi-engine/engine"
	"reversi-engine/othello"
)

func main() {
	weightsFlag := flag.String("weights", "weights.bin", "path to the N-Tuple weights file")
	depthFlag := flag.Int("depth", 6, "nominal search depth (1-6)")
	timeoutFlag := flag.Duration("timeout", engine.DefaultSearchTimeout, "wall-clock budget per search")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	if *depthFlag < int(engine.MinLevel) || *depthFlag > int(engine.MaxLevel) {
		log.Fatalf("depth must be in %d..%d, got %d", engine.MinLevel, engine.MaxLevel, *depthFlag)
	}

	var cpuFile *os.File
	var err error
	if *cpuProfile != "" {
		cpuFile, err = os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}()
	}

	evaluator, err := engine.LoadEvaluator(*weightsFlag)
	if err != nil {
		log.Fatalf("load evaluator: %v", err)
	}

	board := othello.NewBoard()
	searcher := engine.NewSearcherWithTimeout(evaluator, uint8(*depthFlag), *timeoutFlag)

	for i := 0; i < *repeatFlag; i++ {
		start := time.Now()
		mv := searcher.Search(board, true)
		elapsed := time.Since(start)

		nps := float64(searcher.Nodes()) / elapsed.Seconds()
		fmt.Printf("run %d: move %d nodes %d time %v nps %.0f timedout %v\n",
			i+1, mv, searcher.Nodes(), elapsed, nps, searcher.TimedOut())
	}

	if *memProfile != "" {
		memFile, err := os.Create(*memProfile)
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer memFile.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(memFile); err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}
}
