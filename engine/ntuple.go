package engine

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"reversi-engine/othello"
)

// weights.bin layout, little-endian throughout:
//
//	0..4   magic "NTRV"
//	4..8   format version (must be 1)
//	8..12  tuple count
//	12..16 CRC-32 (IEEE) of the payload after the header
//	16..20 reserved
//
// payload: per tuple, one length byte followed by that many cell indices;
// then per tuple (same order) 3^len float32 weights. No trailing bytes.
const (
	weightsMagic   = "NTRV"
	weightsVersion = 1
	headerSize     = 20
)

// NTupleEvaluator scores positions by summing weight-table lookups over
// small fixed sets of squares, folded over the 4 board rotations.
// Immutable once loaded.
type NTupleEvaluator struct {
	tuples  [][]uint8
	weights [][]float32
}

// LoadEvaluator reads and deserializes a weights file from disk.
func LoadEvaluator(path string) (*NTupleEvaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	return NewEvaluatorFromBytes(data)
}

// NewEvaluatorFromBytes deserializes the weights.bin format. Failure is
// atomic: on any error no evaluator is returned, and every error names
// the offending stage.
func NewEvaluatorFromBytes(data []byte) (*NTupleEvaluator, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("weights data too short: expected at least %d bytes, got %d", headerSize, len(data))
	}
	if string(data[0:4]) != weightsMagic {
		return nil, fmt.Errorf("invalid weights magic (expected %s)", weightsMagic)
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != weightsVersion {
		return nil, fmt.Errorf("unsupported weights version: expected %d, got %d", weightsVersion, version)
	}

	numTuples := int(binary.LittleEndian.Uint32(data[8:12]))
	expectedCRC := binary.LittleEndian.Uint32(data[12:16])
	payload := data[headerSize:]

	if actualCRC := crc32.ChecksumIEEE(payload); actualCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: expected %#010x, got %#010x", expectedCRC, actualCRC)
	}

	offset := 0
	tuples := make([][]uint8, 0, numTuples)
	for tupleIdx := 0; tupleIdx < numTuples; tupleIdx++ {
		if offset >= len(payload) {
			return nil, fmt.Errorf("unexpected EOF while reading tuple definition #%d", tupleIdx)
		}
		tupleSize := int(payload[offset])
		offset++

		if offset+tupleSize > len(payload) {
			return nil, fmt.Errorf("unexpected EOF while reading tuple positions #%d", tupleIdx)
		}
		tuple := make([]uint8, tupleSize)
		copy(tuple, payload[offset:offset+tupleSize])
		for _, pos := range tuple {
			if int(pos) >= othello.NumSquares {
				return nil, fmt.Errorf("tuple #%d contains out-of-range board position", tupleIdx)
			}
		}
		offset += tupleSize
		tuples = append(tuples, tuple)
	}

	weights := make([][]float32, 0, numTuples)
	for tupleIdx, tuple := range tuples {
		entries, err := pow3(len(tuple))
		if err != nil {
			return nil, err
		}
		if entries > math.MaxInt/4 {
			return nil, fmt.Errorf("weights byte length overflow")
		}
		bytesLen := entries * 4

		if offset+bytesLen > len(payload) {
			return nil, fmt.Errorf("unexpected EOF while reading weights for tuple #%d", tupleIdx)
		}

		tupleWeights := make([]float32, entries)
		for i := 0; i < entries; i++ {
			raw := binary.LittleEndian.Uint32(payload[offset+i*4:])
			w := math.Float32frombits(raw)
			if math.IsNaN(float64(w)) || math.IsInf(float64(w), 0) {
				return nil, fmt.Errorf("tuple #%d weight table contains a non-finite value", tupleIdx)
			}
			tupleWeights[i] = w
		}
		offset += bytesLen
		weights = append(weights, tupleWeights)
	}

	if offset != len(payload) {
		return nil, fmt.Errorf("weights payload has trailing bytes")
	}

	return &NTupleEvaluator{tuples: tuples, weights: weights}, nil
}

// Evaluate scores the position from the given side's perspective. Each
// tuple is looked up under all 4 board rotations and the raw table
// entries are summed; the training pipeline already accounts for the 4x
// symmetry folding, so nothing is averaged here.
func (e *NTupleEvaluator) Evaluate(b othello.Board, isBlack bool) float32 {
	cells := b.ToArray()
	var score float32

	for rotation := 0; rotation < 4; rotation++ {
		for i, tuple := range e.tuples {
			idx := 0
			for _, pos := range tuple {
				idx = idx*3 + playerView(cells[rotatePos(int(pos), rotation)], isBlack)
			}
			score += e.weights[i][idx]
		}
	}
	return score
}

// rotatePos maps a square index through 0, 90, 180 or 270 degrees of
// board rotation.
func rotatePos(pos, rotation int) int {
	row, col := pos/othello.BoardSize, pos%othello.BoardSize

	var nr, nc int
	switch rotation % 4 {
	case 0:
		nr, nc = row, col
	case 1:
		nr, nc = col, othello.BoardSize-1-row
	case 2:
		nr, nc = othello.BoardSize-1-row, othello.BoardSize-1-col
	default:
		nr, nc = othello.BoardSize-1-col, row
	}
	return nr*othello.BoardSize + nc
}

// playerView maps a raw cell to its ternary digit relative to the
// evaluating side: empty 0, own stone 1, opponent stone 2.
func playerView(cell othello.Cell, isBlack bool) int {
	switch cell {
	case othello.CellBlack:
		if isBlack {
			return 1
		}
		return 2
	case othello.CellWhite:
		if isBlack {
			return 2
		}
		return 1
	default:
		return 0
	}
}

func pow3(exp int) (int, error) {
	out := 1
	for i := 0; i < exp; i++ {
		if out > math.MaxInt/3 {
			return 0, fmt.Errorf("3^tuple_size overflow")
		}
		out *= 3
	}
	return out, nil
}
