package rules_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGameRulesAcceptsProtocolAliases(t *testing.T) {
	cases := map[string]rules.GameRules{
		"freestyle": rules.Freestyle,
		"0":         rules.Freestyle,
		"standard":  rules.Standard,
		"renju":     rules.Renju,
		"1":         rules.Renju,
		"2":         rules.Renju,
		"caro5":     rules.Caro5,
		"caro":      rules.Caro5,
		"caro6":     rules.Caro6,
	}
	for name, want := range cases {
		got, err := rules.ParseGameRules(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParseGameRulesRejectsUnknown(t *testing.T) {
	_, err := rules.ParseGameRules("bogus")
	assert.Error(t, err)
}

func TestOverlineWinsOnlyForFreestyleAndCaro6(t *testing.T) {
	assert.True(t, rules.Freestyle.OverlineWins())
	assert.True(t, rules.Caro6.OverlineWins())
	assert.False(t, rules.Standard.OverlineWins())
	assert.False(t, rules.Renju.OverlineWins())
	assert.False(t, rules.Caro5.OverlineWins())
}

func TestBlockedBothEndsRuleOnlyForCaro(t *testing.T) {
	assert.True(t, rules.Caro5.BlockedBothEndsRule())
	assert.True(t, rules.Caro6.BlockedBothEndsRule())
	assert.False(t, rules.Standard.BlockedBothEndsRule())
	assert.False(t, rules.Renju.BlockedBothEndsRule())
	assert.False(t, rules.Freestyle.BlockedBothEndsRule())
}

func TestForbidsCrossOnlyForRenju(t *testing.T) {
	assert.True(t, rules.Renju.ForbidsCross())
	for _, r := range []rules.GameRules{rules.Freestyle, rules.Standard, rules.Caro5, rules.Caro6} {
		assert.False(t, r.ForbidsCross(), r.String())
	}
}

func TestHalfWidthNarrowerForFreestyle(t *testing.T) {
	assert.Equal(t, 4, rules.Freestyle.HalfWidth())
	assert.Equal(t, 9, rules.Freestyle.LineWidth())
	assert.Equal(t, 5, rules.Standard.HalfWidth())
	assert.Equal(t, 11, rules.Standard.LineWidth())
}

func TestSignOpponent(t *testing.T) {
	assert.Equal(t, rules.Circle, rules.Cross.Opponent())
	assert.Equal(t, rules.Cross, rules.Circle.Opponent())
}

func TestParseSignAcceptsSpecGlyphs(t *testing.T) {
	cases := map[byte]rules.Sign{
		'_': rules.None,
		'.': rules.None,
		'X': rules.Cross,
		'x': rules.Cross,
		'O': rules.Circle,
		'o': rules.Circle,
		'!': rules.Illegal,
	}
	for glyph, want := range cases {
		got, err := rules.ParseSign(glyph)
		require.NoError(t, err, string(glyph))
		assert.Equal(t, want, got, string(glyph))
	}
}

func TestParseSignRejectsUnknownGlyph(t *testing.T) {
	_, err := rules.ParseSign('?')
	assert.Error(t, err)
}

func TestAllEnumeratesEveryRule(t *testing.T) {
	all := rules.All()
	assert.ElementsMatch(t, []rules.GameRules{
		rules.Freestyle, rules.Standard, rules.Renju, rules.Caro5, rules.Caro6,
	}, all)
}
