package pattern_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/pattern"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(glyphs string) []rules.Sign {
	out := make([]rules.Sign, len(glyphs))
	for i := 0; i < len(glyphs); i++ {
		s, err := rules.ParseSign(glyphs[i])
		if err != nil {
			panic(err)
		}
		out[i] = s
	}
	return out
}

func TestOpenFour(t *testing.T) {
	tbl := pattern.Get(rules.Freestyle)
	require.Equal(t, 9, tbl.LineWidth())
	l := line(".XXXX....") // centre (index 4) is part of the run; both ends open.
	entry := tbl.Lookup(l)
	assert.Equal(t, pattern.Open4, entry.Cross)
}

func TestStandardOpenFour(t *testing.T) {
	tbl := pattern.Get(rules.Standard)
	require.Equal(t, 11, tbl.LineWidth())
	l := make([]rules.Sign, 11)
	for i := range l {
		l[i] = rules.None
	}
	for i := 2; i <= 5; i++ {
		l[i] = rules.Cross // centre index 5 included in the run.
	}
	entry := tbl.Lookup(l)
	assert.Equal(t, pattern.Open4, entry.Cross)
}

func TestCaroWallBothEndsInvalidatesFive(t *testing.T) {
	tbl := pattern.Get(rules.Caro5)
	l := make([]rules.Sign, 11)
	for i := range l {
		l[i] = rules.None
	}
	for i := 3; i <= 7; i++ {
		l[i] = rules.Cross // exactly five, centre index 5 included in the run.
	}
	l[2] = rules.Circle
	l[8] = rules.Circle
	entry := tbl.Lookup(l)
	assert.NotEqual(t, pattern.Five, entry.Cross)
}

func TestHalfOpenFourDefensiveMask(t *testing.T) {
	tbl := pattern.Get(rules.Freestyle)
	l := make([]rules.Sign, 9)
	for i := range l {
		l[i] = rules.None
	}
	l[0] = rules.Illegal // wall on the left
	for i := 1; i <= 4; i++ {
		l[i] = rules.Cross
	}
	entry := tbl.Lookup(l)
	assert.Equal(t, pattern.HalfOpen4, entry.Cross)
	mask := tbl.DefensiveMask(entry.CrossMaskIdx)
	assert.Equal(t, uint32(1)<<5, mask, "the single open extension cell must refute the four")
}
