package search_test

import (
	"context"
	"testing"

	"github.com/alphagomoku/engine/internal/parameters"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromParamsOverlaysRecognisedKeys(t *testing.T) {
	cfg, err := search.FromParams(parameters.Params{
		"rows":      "9",
		"columns":   "9",
		"rules":     "renju",
		"max_nodes": "123",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Rows)
	assert.Equal(t, 9, cfg.Cols)
	assert.Equal(t, rules.Renju, cfg.Rule)
	assert.Equal(t, 123, cfg.MaxNodes)
}

func TestFromParamsRejectsUnknownRule(t *testing.T) {
	_, err := search.FromParams(parameters.Params{"rules": "bogus"})
	assert.Error(t, err)
}

func TestFromParamsLeavesDefaultsWhenAbsent(t *testing.T) {
	cfg, err := search.FromParams(nil)
	require.NoError(t, err)
	assert.Equal(t, search.DefaultConfig(), cfg)
}

func TestResetRebuildsEmptyCalculatorAtNewSize(t *testing.T) {
	d := search.New(search.DefaultConfig(), nil)
	require.NoError(t, d.Calculator().AddMove(0, 0, rules.Cross))

	d.Reset(9, 9, rules.Standard)
	assert.Equal(t, 9, d.Calculator().Board().Rows)
	assert.Equal(t, rules.Standard, d.Config().Rule)
	assert.Equal(t, rules.None, d.Calculator().Board().At(0, 0))
}

func TestSetRuleReplaysExistingStones(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.Rows, cfg.Cols, cfg.Rule = 9, 9, rules.Freestyle
	d := search.New(cfg, nil)
	require.NoError(t, d.Calculator().AddMove(4, 4, rules.Cross))
	require.NoError(t, d.Calculator().AddMove(4, 5, rules.Circle))

	d.SetRule(rules.Standard)

	assert.Equal(t, rules.Standard, d.Config().Rule)
	assert.Equal(t, rules.Cross, d.Calculator().Board().At(4, 4))
	assert.Equal(t, rules.Circle, d.Calculator().Board().At(4, 5))
}

func TestSetHashSizeMBClampsToEightMB(t *testing.T) {
	d := search.New(search.DefaultConfig(), nil)
	assert.Equal(t, 8, d.SetHashSizeMB(1))
	assert.Equal(t, 64, d.SetHashSizeMB(64))
}

func TestClearHashIsSafeWithoutATable(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.TSSBudget = 0
	cfg.UseDatabase = false
	d := search.New(cfg, nil)
	assert.NotPanics(t, func() { d.ClearHash() })
}

func TestRunReturnsAMoveOnASmallBoard(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.Rows, cfg.Cols = 5, 5
	cfg.MaxNodes = 50
	d := search.New(cfg, nil)

	result, err := d.Run(context.Background(), rules.Cross)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Move.Row, 0)
	assert.Less(t, result.Move.Row, 5)
	assert.GreaterOrEqual(t, result.Move.Col, 0)
	assert.Less(t, result.Move.Col, 5)
}

func TestStopBeforeRunStillCompletes(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.Rows, cfg.Cols = 5, 5
	cfg.MaxNodes = 50
	d := search.New(cfg, nil)
	d.Stop()

	result, err := d.Run(context.Background(), rules.Cross)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Visited, 0)
}
