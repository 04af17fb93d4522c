package tss

import (
	"encoding/binary"

	"github.com/alphagomoku/engine/internal/movegen"
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Store persists proven TSS results across process restarts, backing the `use_database`
// config option (spec §6) the in-memory SharedHashTable alone cannot satisfy. It only ever
// holds *proven* scores (Unknown results are never worth the disk round-trip) and is
// consulted as a fallback on a SharedHashTable miss, populated opportunistically on store.
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if absent) a badger database at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "tss: failed to open database at %q", dir)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func storeKey(hash uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], hash)
	return k[:]
}

// Get returns a previously stored proven score for hash, if any.
func (s *Store) Get(hash uint64) (score movegen.Score, depth int, ok bool) {
	if s == nil || s.db == nil {
		return movegen.Score{}, 0, false
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < 9 {
				return errors.New("tss: corrupt stored entry")
			}
			k := int8(val[0])
			n := int(int32(binary.BigEndian.Uint32(val[1:5])))
			depth = int(int32(binary.BigEndian.Uint32(val[5:9])))
			score = movegen.Unpack(k, n)
			ok = true
			return nil
		})
	})
	if err != nil {
		klog.Errorf("tss: store lookup failed for hash %x: %v", hash, err)
		return movegen.Score{}, 0, false
	}
	return score, depth, ok
}

// Put persists a proven score for hash. Only proven scores are worth writing; callers filter
// Unknown results before calling.
func (s *Store) Put(hash uint64, score movegen.Score, depth int) {
	if s == nil || s.db == nil {
		return
	}
	k, n := score.Pack()
	var val [9]byte
	val[0] = byte(k)
	binary.BigEndian.PutUint32(val[1:5], uint32(int32(n)))
	binary.BigEndian.PutUint32(val[5:9], uint32(int32(depth)))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(hash), val[:])
	})
	if err != nil {
		klog.Errorf("tss: store write failed for hash %x: %v", hash, err)
	}
}
