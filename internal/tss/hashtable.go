// Package tss implements the Threat-Space Search engine (spec component C4): a plain negamax
// (no alpha-beta window) over the move generator's ActionList, backed by a lockless shared transposition
// table, used both standalone for tactical proofs and as the MCTS expansion step's oracle.
package tss

import (
	"sync/atomic"

	"github.com/alphagomoku/engine/internal/movegen"
)

// entry is one slot of the SharedHashTable: a packed, racily-readable transposition record.
// Fields are read/written via atomics so concurrent searchers never observe a torn struct,
// only (tolerably) a stale one -- the hash prefix stored alongside lets callers detect and
// discard slot collisions.
type entry struct {
	hash   uint64
	packed uint64 // score kind/n bit-packed with depth and generation (an Unknown prior is not kept).
}

const (
	ways        = 4 // 4-way associative, per spec §4.4.
	genBits     = 8
	depthBits   = 10
	scoreKBits  = 3
	scoreNBits  = 16
	scorePacked = genBits + depthBits + scoreKBits + scoreNBits
)

// SharedHashTable is the lockless, 4-way-associative, age-generation-evicting transposition
// table the TSS consults before recursing into each child, and writes on return (spec §4.4
// steps 2 and 5). It is safe for concurrent use by multiple searchers: stores are atomic,
// and collisions are resolved by the generation/depth replacement policy, not by locking.
type SharedHashTable struct {
	slots      []atomic.Pointer[entry]
	mask       uint64
	generation atomic.Uint32

	// persist optionally backs proven results with an on-disk store (spec's `use_database`
	// option), consulted only on an in-memory miss and populated opportunistically on Store.
	persist *Store
}

// AttachStore wires a persistent Store behind the table, for the `use_database` config option.
// A nil store (the default) disables persistence entirely.
func (t *SharedHashTable) AttachStore(s *Store) {
	t.persist = s
}

// NewSharedHashTable allocates a table with numBuckets*ways slots. numBuckets is rounded up
// to the next power of two.
func NewSharedHashTable(numBuckets int) *SharedHashTable {
	n := 1
	for n < numBuckets {
		n <<= 1
	}
	t := &SharedHashTable{
		slots: make([]atomic.Pointer[entry], n*ways),
		mask:  uint64(n - 1),
	}
	return t
}

// NextGeneration increments the ageing counter; the search driver calls it once per Run, so
// stale entries from earlier searches are preferentially evicted.
func (t *SharedHashTable) NextGeneration() {
	t.generation.Add(1)
}

// Clear drops every stored entry, for the Yixin-Board `yxhashclear` command.
func (t *SharedHashTable) Clear() {
	for i := range t.slots {
		t.slots[i].Store(nil)
	}
}

// BucketsForBytes picks a NewSharedHashTable bucket count so the table occupies roughly
// sizeBytes, per spec §6's `hash_size` (in MB, minimum 8, clamped).
func BucketsForBytes(sizeBytes int64) int {
	const bytesPerSlot = 16 // one entry struct pointer's backing allocation, rounded generously.
	buckets := int(sizeBytes / (bytesPerSlot * ways))
	if buckets < 1 {
		buckets = 1
	}
	return buckets
}

func (t *SharedHashTable) bucket(hash uint64) int {
	return int(hash&t.mask) * ways
}

// Probe looks up hash and returns (score, depth, ok). A hit is only returned when the
// stored hash prefix matches exactly, per the spec's "stale reads tolerated, but the stored
// hash prefix distinguishes collisions" design.
func (t *SharedHashTable) Probe(hash uint64) (score movegen.Score, depth int, ok bool) {
	base := t.bucket(hash)
	for i := 0; i < ways; i++ {
		e := t.slots[base+i].Load()
		if e == nil || e.hash != hash {
			continue
		}
		s, d, _ := unpack(e.packed)
		return s, d, true
	}
	if t.persist != nil {
		if s, d, found := t.persist.Get(hash); found {
			return s, d, true
		}
	}
	return movegen.Score{}, 0, false
}

// Store writes (hash, score, depth) into the table, evicting the slot in its bucket with
// the oldest generation (ties broken by shallower depth), per spec §4.4 step 5.
func (t *SharedHashTable) Store(hash uint64, score movegen.Score, depth int) {
	base := t.bucket(hash)
	gen := t.generation.Load()
	victim := 0
	var victimGen uint32 = 1<<32 - 1
	var victimDepth int = 1 << 30
	for i := 0; i < ways; i++ {
		e := t.slots[base+i].Load()
		if e == nil {
			victim = i
			victimGen = 0
			victimDepth = -1
			break
		}
		if e.hash == hash {
			victim = i
			victimGen = 0
			victimDepth = -1
			break
		}
		_, d, g := unpack(e.packed)
		if g < victimGen || (g == victimGen && d < victimDepth) {
			victim, victimGen, victimDepth = i, g, d
		}
	}
	t.slots[base+victim].Store(&entry{hash: hash, packed: pack(score, depth, gen)})
	if t.persist != nil && score.IsProven() {
		t.persist.Put(hash, score, depth)
	}
}

func pack(score movegen.Score, depth int, gen uint32) uint64 {
	k, n := score.Pack()
	var packed uint64
	packed |= uint64(gen) & (1<<genBits - 1)
	packed |= (uint64(depth) & (1<<depthBits - 1)) << genBits
	packed |= (uint64(k) & (1<<scoreKBits - 1)) << (genBits + depthBits)
	packed |= (uint64(uint16(n)) & (1<<scoreNBits - 1)) << (genBits + depthBits + scoreKBits)
	return packed
}

func unpack(packed uint64) (score movegen.Score, depth int, gen uint32) {
	gen = uint32(packed & (1<<genBits - 1))
	depth = int((packed >> genBits) & (1<<depthBits - 1))
	// Sign-extend the 3-bit kind field: the loss and draw kinds are negative.
	k := int8(((packed>>(genBits+depthBits))&(1<<scoreKBits-1))<<(8-scoreKBits)) >> (8 - scoreKBits)
	n := int(int16((packed >> (genBits + depthBits + scoreKBits)) & (1<<scoreNBits - 1)))
	score = movegen.Unpack(k, n)
	return score, depth, gen
}
