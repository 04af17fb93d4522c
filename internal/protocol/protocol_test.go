package protocol_test

import (
	"context"
	"strings"
	"testing"

	"github.com/alphagomoku/engine/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines splits engine output into non-empty trimmed lines, in order.
func lines(out string) []string {
	var result []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			result = append(result, l)
		}
	}
	return result
}

func run(t *testing.T, commands string) []string {
	t.Helper()
	var out strings.Builder
	engine := protocol.New(strings.NewReader(commands), &out)
	require.NoError(t, engine.Run(context.Background()))
	return lines(out.String())
}

func TestStartBeginRepliesWithMove(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 9\nBEGIN\n")
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "OK", got[0])

	var moveLine string
	for _, l := range got[1:] {
		if !strings.HasPrefix(l, "MESSAGE") {
			moveLine = l
		}
	}
	require.NotEmpty(t, moveLine)
	parts := strings.Split(moveLine, ",")
	require.Len(t, parts, 2)
}

func TestUnknownCommandReportsErrorAndContinues(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 9\nBOGUS\nBEGIN\n")
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "OK", got[0])
	assert.True(t, strings.HasPrefix(got[1], "ERROR"))
}

func TestTurnWithoutBeginInfersOpponentMovedFirst(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 9\nTURN 4,4\n")
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "OK", got[0])
}

func TestEndStopsTheLoopCleanly(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 9\nEND\nSHOULD_NOT_BE_PROCESSED\n")
	assert.Equal(t, []string{"OK"}, got)
}

func TestCommandBeforeStartIsProtocolError(t *testing.T) {
	got := run(t, "BEGIN\n")
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "ERROR"))
}

func TestYxShowForbidOnEmptyFreestyleBoardReportsNoForbidden(t *testing.T) {
	got := run(t, "INFO rules freestyle\nSTART 9\nyxshowforbid\n")
	require.Len(t, got, 2)
	assert.Equal(t, "OK", got[0])
	assert.Equal(t, "FORBID", got[1])
}

func TestYxHashClearRepliesOK(t *testing.T) {
	got := run(t, "START 9\nyxhashclear\n")
	assert.Equal(t, []string{"OK", "OK"}, got)
}

func TestScannerHandlesLongLinesWithoutError(t *testing.T) {
	// Regression guard for the enlarged scanner buffer: an input line longer than
	// bufio.Scanner's default 64KB token limit must not stop the engine's read loop.
	long := "INFO padding " + strings.Repeat("x", 100*1024)
	got := run(t, long+"\nSTART 9\n")
	assert.Equal(t, []string{"OK"}, got)
}
