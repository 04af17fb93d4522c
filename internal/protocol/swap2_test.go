package protocol_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withoutRealtime drops the MESSAGE REALTIME progress lines that think streams while it
// searches, keeping the command replies in order.
func withoutRealtime(got []string) []string {
	var out []string
	for _, l := range got {
		if !strings.HasPrefix(l, "MESSAGE") {
			out = append(out, l)
		}
	}
	return out
}

func TestSwap2Step1ProposesThreeStones(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step1\n")
	require.Len(t, got, 2)
	assert.Equal(t, "OK", got[0])
	coords := strings.Fields(got[1])
	require.Len(t, coords, 3)
	for _, c := range coords {
		parts := strings.Split(c, ",")
		require.Len(t, parts, 2)
	}
}

func TestSwap2Step2SwapTokenAccepted(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step1\nyxswap2 step2 swap\n")
	require.Len(t, got, 3)
	assert.Equal(t, "OK", got[0])
	assert.Len(t, strings.Fields(got[1]), 3) // step1's three proposed stones.
	assert.Equal(t, "OK", got[2])
}

func TestSwap2Step2BeforeStep1IsProtocolError(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step2 swap\n")
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[1], "ERROR"))
}

func TestSwap2Step3AfterNegotiationPlaysAMove(t *testing.T) {
	got := withoutRealtime(run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step1\nyxswap2 step2 swap\nyxswap2 step3\n"))
	require.Len(t, got, 4)
	assert.Equal(t, "OK", got[2])
	moveLine := got[3]
	parts := strings.Split(moveLine, ",")
	require.Len(t, parts, 2)
}

func TestSwap2Step3BeforeNegotiationDoneIsProtocolError(t *testing.T) {
	got := run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step1\nyxswap2 step3\n")
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[2], "ERROR"))
}

func TestSwap2Step2WithExtraStonesChoosesASideThenPlays(t *testing.T) {
	// Center is (7,7) for a 15x15 board; step1 occupies (7,7),(7,8),(8,7), so place the
	// opponent's two extra stones well away from those.
	got := withoutRealtime(run(t, "INFO max_nodes 50\nSTART 15\nyxswap2 step1\nyxswap2 step2 1,1 2,2\nyxswap2 step3\n"))
	require.Len(t, got, 4)
	assert.Equal(t, "OK", got[2])
	parts := strings.Split(got[3], ",")
	require.Len(t, parts, 2)
}
