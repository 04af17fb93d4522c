// Package ai defines the fixed external-collaborator interface the rest of the engine
// consumes a neural-network evaluator through (spec §4.6 "NN batching"): the engine never
// imports a concrete network, only ValueScorer/BatchValueScorer and the PolicyProxy that
// adapts one into the mcts.Evaluator contract.
package ai

import (
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/rules"
)

// WDL is the three-probability win/draw/loss value head the spec calls for, from the
// perspective of the side to move.
type WDL struct {
	PWin, PDraw, PLoss float32
}

// Scalar collapses WDL to a single value in [-1, 1], the convention the rest of the search
// (TSS proven-to-value mapping, V_mix) uses.
func (w WDL) Scalar() float32 { return w.PWin - w.PLoss }

// ValueScorer is the minimal NN contract: given the calculator's current position and the
// side to move, estimate its outcome.
type ValueScorer interface {
	Score(calc *board.Calculator, sign rules.Sign) WDL
	String() string
}

// BatchValueScorer handles a batch of independent positions, presumably more efficiently
// than scoring each alone (one NN forward pass instead of many).
type BatchValueScorer interface {
	ValueScorer

	// BatchScore evaluates each (board, sign) pair. Implementations own setting the
	// calculator to each board in turn; batches are built by the search driver's NN queue.
	BatchScore(boards []*board.Board, signs []rules.Sign) []WDL
}

// BatchValueScorerWrapper adapts any ValueScorer into a BatchValueScorer with no efficiency
// gain, for evaluators that only know how to score one position at a time.
type BatchValueScorerWrapper struct {
	ValueScorer
	rule rules.GameRules
}

// NewBatchValueScorerWrapper wraps scorer for boards of the given rule (needed to build a
// Calculator per board in the batch).
func NewBatchValueScorerWrapper(scorer ValueScorer, rule rules.GameRules) BatchValueScorerWrapper {
	return BatchValueScorerWrapper{ValueScorer: scorer, rule: rule}
}

// BatchScore scores each board in turn, re-pointing a scratch Calculator at each one.
func (s BatchValueScorerWrapper) BatchScore(boards []*board.Board, signs []rules.Sign) []WDL {
	out := make([]WDL, len(boards))
	if len(boards) == 0 {
		return out
	}
	calc := board.New(boards[0].Rows, boards[0].Cols, s.rule)
	for i, b := range boards {
		calc.SetBoard(b)
		out[i] = s.ValueScorer.Score(calc, signs[i])
	}
	return out
}

var _ BatchValueScorer = BatchValueScorerWrapper{}

// IsTerminalAndScore reports whether b is full; a full board is over and counts as a draw, so
// both results equal b.IsFull(). It does not detect fives or any other decided position;
// proven-score terminal checks belong to movegen/tss.
func IsTerminalAndScore(b *board.Board) (isEnd bool, draw bool) {
	return b.IsFull(), b.IsFull()
}
