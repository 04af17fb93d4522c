package match_test

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/match"
	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	rec := match.NewRecorder(9, 9, rules.Freestyle, rules.Cross)
	rec.Append(board.Pos{Row: 4, Col: 4}, movegen.Unknown(0.1))
	rec.Append(board.Pos{Row: 4, Col: 5}, movegen.Unknown(-0.05))
	rec.Append(board.Pos{Row: 3, Col: 3}, movegen.WinIn(3))

	var buf bytes.Buffer
	require.NoError(t, match.Save(&buf, rec.Match()))

	loaded, err := match.Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, rec.Match().Rows, loaded.Rows)
	assert.Equal(t, rec.Match().Cols, loaded.Cols)
	assert.Equal(t, rec.Match().Rule, loaded.Rule)
	assert.Equal(t, rec.Match().FirstSign, loaded.FirstSign)
	assert.Equal(t, rec.Match().Moves, loaded.Moves)
	require.Len(t, loaded.Scores, 3)
	assert.True(t, loaded.Scores[2].IsWin())
	assert.Equal(t, 3, loaded.Scores[2].PlyDistance())
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	// Write a version number the loader has never supported.
	require.NoError(t, gob.NewEncoder(&buf).Encode(999))
	_, err := match.Load(&buf)
	assert.Error(t, err)
}

func TestReplayProducesOneBoardPerPly(t *testing.T) {
	rec := match.NewRecorder(9, 9, rules.Freestyle, rules.Cross)
	rec.Append(board.Pos{Row: 4, Col: 4}, movegen.Score{})
	rec.Append(board.Pos{Row: 4, Col: 5}, movegen.Score{})

	boards, err := rec.Match().Replay()
	require.NoError(t, err)
	require.Len(t, boards, 3)
	assert.Equal(t, rules.Cross, boards[1].At(4, 4))
	assert.Equal(t, rules.Circle, boards[2].At(4, 5))
}
