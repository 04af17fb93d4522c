package cli_test

import (
	"os"
	"testing"

	"github.com/alphagomoku/engine/internal/board"
	"github.com/alphagomoku/engine/internal/rules"
	"github.com/alphagomoku/engine/internal/ui/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withStdin temporarily replaces os.Stdin with a pipe fed by contents, for exercising
// cli.New's bufio.Reader (which always wraps os.Stdin).
func withStdin(t *testing.T, contents string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(contents)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	original := os.Stdin
	os.Stdin = r
	t.Cleanup(func() { os.Stdin = original })
}

func TestReadCommandParsesSteppingCommands(t *testing.T) {
	withStdin(t, "n\np\nquit\n")
	ui := cli.New(false, false)

	_, cmd, err := ui.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "n", cmd)

	_, cmd, err = ui.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "p", cmd)

	_, cmd, err = ui.ReadCommand()
	require.NoError(t, err)
	assert.Equal(t, "quit", cmd)
}

func TestReadCommandParsesCoordinate(t *testing.T) {
	withStdin(t, "4,7\n")
	ui := cli.New(false, false)

	pos, cmd, err := ui.ReadCommand()
	require.NoError(t, err)
	assert.Empty(t, cmd)
	assert.Equal(t, board.Pos{Row: 4, Col: 7}, pos)
}

func TestReadCommandRejectsGarbage(t *testing.T) {
	withStdin(t, "not a command\n")
	ui := cli.New(false, false)

	_, _, err := ui.ReadCommand()
	assert.Error(t, err)
}

func TestPrintBoardDoesNotPanic(t *testing.T) {
	b := board.NewBoard(5, 5, rules.Freestyle)
	ui := cli.New(false, false)
	assert.NotPanics(t, func() { ui.PrintBoard(b) })
}
