package board_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/pattern"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUndoReversibility(t *testing.T) {
	c := board.New(9, 9, rules.Freestyle)
	initialHash := c.Hash()

	moves := []board.Pos{{4, 4}, {4, 5}, {3, 3}, {5, 5}}
	signs := []rules.Sign{rules.Cross, rules.Circle, rules.Cross, rules.Circle}
	for i, m := range moves {
		require.NoError(t, c.AddMove(m.Row, m.Col, signs[i]))
	}
	assert.NotEqual(t, initialHash, c.Hash())
	assert.Equal(t, len(moves), c.CurrentDepth())

	for i := len(moves) - 1; i >= 0; i-- {
		require.NoError(t, c.UndoMove(moves[i].Row, moves[i].Col))
	}
	assert.Equal(t, initialHash, c.Hash())
	assert.Equal(t, 0, c.CurrentDepth())
	for r := 0; r < 9; r++ {
		for col := 0; col < 9; col++ {
			assert.Equal(t, rules.None, c.SignAt(r, col))
		}
	}
}

func TestHistogramConsistency(t *testing.T) {
	c := board.New(9, 9, rules.Freestyle)
	require.NoError(t, c.AddMove(4, 2, rules.Cross))
	require.NoError(t, c.AddMove(4, 3, rules.Cross))
	require.NoError(t, c.AddMove(4, 4, rules.Cross))

	for r := 0; r < 9; r++ {
		for col := 0; col < 9; col++ {
			threat := c.GetThreatAt(rules.Cross, r, col)
			hist := c.GetThreatHistogram(rules.Cross)
			if threat == pattern.NoThreat {
				continue
			}
			found := false
			for _, p := range hist[threat] {
				if p.Row == r && p.Col == col {
					found = true
					break
				}
			}
			assert.True(t, found, "cell (%d,%d) has threat %v but is missing from histogram bucket", r, col, threat)
		}
	}
}

func TestZobristOrderIndependence(t *testing.T) {
	c1 := board.New(7, 7, rules.Freestyle)
	require.NoError(t, c1.AddMove(1, 1, rules.Cross))
	require.NoError(t, c1.AddMove(2, 2, rules.Circle))
	require.NoError(t, c1.AddMove(3, 3, rules.Cross))

	c2 := board.New(7, 7, rules.Freestyle)
	require.NoError(t, c2.AddMove(3, 3, rules.Cross))
	require.NoError(t, c2.AddMove(1, 1, rules.Cross))
	require.NoError(t, c2.AddMove(2, 2, rules.Circle))

	assert.Equal(t, c1.Hash(), c2.Hash())
}
