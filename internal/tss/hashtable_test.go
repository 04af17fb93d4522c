package tss_test

import (
	"testing"

	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/alphagomoku/engine/internal/tss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedHashTableClearDropsEntries(t *testing.T) {
	table := tss.NewSharedHashTable(16)
	table.Store(0x1, movegen.WinIn(1), 2)
	table.Clear()

	_, _, ok := table.Probe(0x1)
	assert.False(t, ok)
}

func TestSharedHashTableOverwritesSameHash(t *testing.T) {
	table := tss.NewSharedHashTable(16)
	table.Store(0x1, movegen.WinIn(5), 3)
	table.Store(0x1, movegen.LossIn(2), 7)

	score, depth, ok := table.Probe(0x1)
	require.True(t, ok)
	assert.Equal(t, movegen.LossIn(2), score)
	assert.Equal(t, 7, depth)
}

func TestSharedHashTableEvictsOldestGenerationWhenBucketFull(t *testing.T) {
	// A table with a single bucket (numBuckets rounds up to 1) has exactly 4 ways.
	table := tss.NewSharedHashTable(1)

	// Fill all four ways at generation 0.
	for i := uint64(0); i < 4; i++ {
		table.Store(i, movegen.WinIn(int(i)+1), 1)
	}
	table.NextGeneration()

	// A fifth distinct hash forces an eviction; the victim should be one of the
	// generation-0 entries, not a newly written one.
	table.Store(100, movegen.DrawIn(0), 1)
	_, _, ok := table.Probe(100)
	assert.True(t, ok, "newly stored entry must be retrievable")

	survivors := 0
	for i := uint64(0); i < 4; i++ {
		if _, _, ok := table.Probe(i); ok {
			survivors++
		}
	}
	assert.Equal(t, 3, survivors, "exactly one generation-0 entry should have been evicted")
}

func TestBucketsForBytesNeverReturnsZero(t *testing.T) {
	assert.GreaterOrEqual(t, tss.BucketsForBytes(0), 1)
	assert.GreaterOrEqual(t, tss.BucketsForBytes(-1), 1)
	assert.Greater(t, tss.BucketsForBytes(8<<20), 1)
}
