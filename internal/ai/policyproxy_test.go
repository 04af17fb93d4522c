package ai_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/ai"
	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// materialScorer is a minimal ValueScorer whose WDL only depends on how many stones sign has
// on the board -- just enough nonconstant signal to exercise PolicyProxy's move ranking.
type materialScorer struct{}

func (materialScorer) String() string { return "materialScorer" }
func (materialScorer) Score(calc *board.Calculator, sign rules.Sign) ai.WDL {
	b := calc.Board()
	var mine, theirs int
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			switch b.At(r, c) {
			case sign:
				mine++
			case sign.Opponent():
				theirs++
			}
		}
	}
	if mine > theirs {
		return ai.WDL{PWin: 1}
	}
	if theirs > mine {
		return ai.WDL{PLoss: 1}
	}
	return ai.WDL{PDraw: 1}
}

func TestSoftmaxSumsToOneAndPrefersLargerLogit(t *testing.T) {
	probs := ai.Softmax([]float32{0, 1, 2})
	var sum float32
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Greater(t, probs[2], probs[1])
	assert.Greater(t, probs[1], probs[0])
}

func TestSoftmaxEmptyLogitsReturnsEmpty(t *testing.T) {
	assert.Empty(t, ai.Softmax(nil))
}

func TestPolicyProxyEvaluateReturnsPolicyMatchingMoveCount(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	require.NoError(t, calc.AddMove(4, 4, rules.Cross))

	proxy := ai.NewPolicyProxy(materialScorer{}, movegen.Optimal, 1.0)
	moves := []board.Pos{{Row: 4, Col: 5}, {Row: 4, Col: 6}}

	policy, value, err := proxy.Evaluate(calc, rules.Circle, moves)
	require.NoError(t, err)
	assert.Len(t, policy, len(moves))
	assert.Equal(t, float32(-1), value) // Circle is down one stone after Cross's opening move.

	var sum float32
	for _, p := range policy {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
}

func TestPolicyProxyEvaluateWithNoMovesReturnsOnlyValue(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	proxy := ai.NewPolicyProxy(materialScorer{}, movegen.Optimal, 1.0)

	policy, value, err := proxy.Evaluate(calc, rules.Cross, nil)
	require.NoError(t, err)
	assert.Nil(t, policy)
	assert.Equal(t, float32(0), value)
}

func TestBatchValueScorerWrapperScoresEachBoard(t *testing.T) {
	empty := board.NewBoard(9, 9, rules.Freestyle)
	wrapper := ai.NewBatchValueScorerWrapper(materialScorer{}, rules.Freestyle)

	results := wrapper.BatchScore([]*board.Board{empty}, []rules.Sign{rules.Cross})
	require.Len(t, results, 1)
	assert.Equal(t, ai.WDL{PDraw: 1}, results[0])
}

func TestIsTerminalAndScoreReportsEmptyBoardNotOver(t *testing.T) {
	b := board.NewBoard(1, 1, rules.Freestyle)
	isEnd, draw := ai.IsTerminalAndScore(b)
	assert.False(t, isEnd)
	assert.False(t, draw)
}
