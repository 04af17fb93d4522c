package tss_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/tss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveProvenWinDoesNotMutateCalculator(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	for r := 0; r < 4; r++ {
		require.NoError(t, calc.AddMove(r, 0, rules.Cross))
	}
	initialHash := calc.Hash()
	initialDepth := calc.CurrentDepth()

	budget := &tss.Budget{MaxPositions: 1000}
	score := tss.Solve(calc, rules.Cross, movegen.Optimal, nil, budget)

	assert.True(t, score.IsWin())
	assert.Equal(t, initialHash, calc.Hash())
	assert.Equal(t, initialDepth, calc.CurrentDepth())
}

func TestSolveRespectsBudget(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	budget := &tss.Budget{MaxPositions: 0}
	score := tss.Solve(calc, rules.Cross, movegen.Optimal, nil, budget)
	assert.True(t, score.IsUnknown() || score.IsDraw())
}

func TestSharedHashTableRoundTrip(t *testing.T) {
	table := tss.NewSharedHashTable(16)
	table.Store(0xABCDEF, movegen.WinIn(3), 5)
	score, depth, ok := table.Probe(0xABCDEF)
	require.True(t, ok)
	assert.Equal(t, movegen.WinIn(3), score)
	assert.Equal(t, 5, depth)

	_, _, ok = table.Probe(0x1234)
	assert.False(t, ok)
}
