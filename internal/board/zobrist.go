package board

import "math/rand"

// zobristSeed is fixed so that keys -- and therefore transposition-table behaviour -- are
// reproducible across runs, which matters for debugging TSS/MCTS determinism.
const zobristSeed = 0x516f6d6f6b75 // "Gomoku" as a tag, not a magic constant to imitate.

// zobristTable holds one 64-bit key per (cell, sign) pair, generated once per board size.
// Keyed by [index(r,c)][sign-1] (Cross=0, Circle=1); None/Illegal never contribute a key.
type zobristTable struct {
	keys [][2]uint64
}

func newZobristTable(numCells int) *zobristTable {
	rnd := rand.New(rand.NewSource(zobristSeed))
	t := &zobristTable{keys: make([][2]uint64, numCells)}
	for i := range t.keys {
		t.keys[i][0] = rnd.Uint64()
		t.keys[i][1] = rnd.Uint64()
	}
	return t
}

// keyFor returns the key for the given cell index and sign slot (0=Cross, 1=Circle).
func (t *zobristTable) keyFor(index int, signSlot int) uint64 {
	return t.keys[index][signSlot]
}
