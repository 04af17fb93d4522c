package movegen_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWinInOneFromFourInARow reproduces spec §8 scenario 1: CROSS occupies four cells in a
// column with one open extension; the generator must return exactly that extension with
// win_in(1) and has_initiative set.
func TestWinInOneFromFourInARow(t *testing.T) {
	calc := board.New(15, 15, rules.Freestyle)
	for r := 0; r < 4; r++ {
		require.NoError(t, calc.AddMove(r, 0, rules.Cross))
	}

	al := movegen.Generate(calc, rules.Cross, movegen.Optimal, nil)
	require.Equal(t, 1, al.Len())
	assert.Equal(t, board.Pos{Row: 4, Col: 0}, al.Actions[0].Move)
	assert.Equal(t, movegen.WinIn(1), al.Actions[0].Score)
	assert.True(t, al.HasInitiative)
}

// TestDefendOpenThreeBecomesDefendLossInFour mirrors spec §8 scenario 2's freestyle case: an
// open three for CIRCLE at columns 1-3 threatens an open four at column 4, so CROSS must
// defend at one of the two five-completing cells or occupy the threat cell itself.
func TestDefendOpenThreeBecomesDefendLossInFour(t *testing.T) {
	calc := board.New(1, 9, rules.Freestyle)
	for _, c := range []int{1, 2, 3} {
		require.NoError(t, calc.AddMove(0, c, rules.Circle))
	}

	al := movegen.Generate(calc, rules.Cross, movegen.Optimal, nil)
	assert.True(t, al.MustDefend)
	moves := map[board.Pos]bool{}
	for _, a := range al.Actions {
		moves[a.Move] = true
	}
	assert.ElementsMatch(t,
		[]board.Pos{{Row: 0, Col: 0}, {Row: 0, Col: 4}, {Row: 0, Col: 5}},
		keysOf(moves))
}

func keysOf(m map[board.Pos]bool) []board.Pos {
	out := make([]board.Pos, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// TestGeneratorNeverOmitsFive checks the correctness contract: once any own five exists the
// returned list contains only winning moves and nothing else is needed to decide the score.
func TestGeneratorNeverOmitsFive(t *testing.T) {
	calc := board.New(9, 9, rules.Freestyle)
	for _, c := range []int{0, 1, 2, 3} {
		require.NoError(t, calc.AddMove(4, c, rules.Cross))
	}
	al := movegen.Generate(calc, rules.Cross, movegen.Legal, nil)
	score, ok := al.ProvenScore()
	require.True(t, ok)
	assert.Equal(t, movegen.WinIn(1), score)
}
