package mcts_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/mcts"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniformEvaluator returns a flat policy and a fixed value, standing in for the external NN.
type uniformEvaluator struct{ value float32 }

func (u uniformEvaluator) Evaluate(calc *board.Calculator, sign rules.Sign, moves []board.Pos) ([]float32, float32, error) {
	policy := make([]float32, len(moves))
	if len(moves) > 0 {
		for i := range policy {
			policy[i] = 1.0 / float32(len(moves))
		}
	}
	return policy, u.value, nil
}

func TestSimulateRestoresCalculatorState(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	require.NoError(t, calc.AddMove(4, 4, rules.Cross))
	require.NoError(t, calc.AddMove(4, 5, rules.Circle))
	initialHash := calc.Hash()
	initialDepth := calc.CurrentDepth()

	tree := mcts.NewTree(calc, rules.Cross, movegen.Reduced, 1.5, 64, 1000, nil, uniformEvaluator{value: 0.1})
	for i := 0; i < 10; i++ {
		require.NoError(t, tree.Simulate(calc))
	}

	assert.Equal(t, initialHash, calc.Hash())
	assert.Equal(t, initialDepth, calc.CurrentDepth())
	assert.True(t, tree.Root.Visits() > 0)
}

func TestSimulatePropagatesWin(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	for _, c := range []int{0, 1, 2, 3} {
		require.NoError(t, calc.AddMove(4, c, rules.Cross))
	}
	tree := mcts.NewTree(calc, rules.Cross, movegen.Optimal, 1.5, 64, 1000, nil, uniformEvaluator{value: 0})
	require.NoError(t, tree.Simulate(calc))

	assert.True(t, tree.Root.ProvenKnown)
	assert.True(t, tree.Root.Proven.IsWin())
}

func TestNodeCacheEvictsLRU(t *testing.T) {
	cache := mcts.NewNodeCache(2)
	n1 := mcts.NewNode(rules.Cross, 1, 0)
	n2 := mcts.NewNode(rules.Cross, 2, 0)
	n3 := mcts.NewNode(rules.Cross, 3, 0)
	cache.Put(n1)
	cache.Put(n2)
	cache.Put(n3)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(1)
	assert.False(t, ok)
	_, ok = cache.Get(3)
	assert.True(t, ok)
}
