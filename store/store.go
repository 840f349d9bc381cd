package store

// Copyright 2023 rpcpool
// This file has been modified by github.com/gagliardetto
//
// Copyright 2020 IPLD Team and various authors and contributors
// See LICENSE for details.

import (
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("store")

// Store is the position-indexed aggregation store: one pebble instance
// holding the personal, personal-game, master and master-game keyspaces,
// distinguished by a leading keyspace byte on every key (see Keyspace in
// merge.go).
type Store struct {
	db *pebble.DB
}

// Open opens or creates a Store rooted at dir.
func Open(dir string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}

	db, err := pebble.Open(dir, &pebble.Options{
		Merger:       &pebble.Merger{Name: newMerger().Name(), Merge: newMerger().Merge},
		Cache:        pebble.NewCache(o.cacheSizeBytes),
		MemTableSize: uint64(o.memTableBytes),
	})
	if err != nil {
		return nil, err
	}
	log.Infof("opened store at %s", dir)
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying pebble instance.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes key/value in ks unconditionally, overwriting any prior value.
// Used for put-only keyspaces (master-game) and for personal-game/master
// rows that a caller has already folded in memory.
func (s *Store) Put(ks Keyspace, key, value []byte) error {
	return s.db.Set(ks.prefixKey(key), value, pebble.Sync)
}

// Merge applies value as a merge operand against whatever is already stored
// at key in ks, via the registered pebble.Merger. The master-game keyspace
// is put-only, so a merge into it is rejected here.
func (s *Store) Merge(ks Keyspace, key, value []byte) error {
	if ks == KeyspaceMasterGame {
		return fmt.Errorf("store: keyspace %d does not support merge", ks)
	}
	return s.db.Merge(ks.prefixKey(key), value, pebble.Sync)
}

// Get reads the raw value stored at key in ks. Returns pebble.ErrNotFound
// when absent, passed through unwrapped so callers can use errors.Is.
func (s *Store) Get(ks Keyspace, key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(ks.prefixKey(key))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), value...)
	if cerr := closer.Close(); cerr != nil {
		return nil, cerr
	}
	return out, nil
}

// ScanIterator walks a keyspace range in key order, already stripped of the
// leading keyspace byte.
type ScanIterator struct {
	ks   Keyspace
	iter *pebble.Iterator
}

// Scan returns an iterator over [start, end) within ks. The caller must
// Close it.
func (s *Store) Scan(ks Keyspace, start, end []byte) (*ScanIterator, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: ks.prefixKey(start),
		UpperBound: ks.prefixKey(end),
	})
	if err != nil {
		return nil, err
	}
	iter.First()
	return &ScanIterator{ks: ks, iter: iter}, nil
}

// Next advances the iterator, returning io.EOF once exhausted. The returned
// key has the keyspace byte stripped; the returned value is a copy safe to
// retain past the next call.
func (it *ScanIterator) Next() (key, value []byte, err error) {
	if !it.iter.Valid() {
		return nil, nil, io.EOF
	}
	k := it.iter.Key()
	v := it.iter.Value()
	key = append([]byte(nil), k[1:]...)
	value = append([]byte(nil), v...)
	it.iter.Next()
	return key, value, nil
}

// Close releases the iterator.
func (it *ScanIterator) Close() error {
	return it.iter.Close()
}

// Property answers the admin property-passthrough routes (SPEC_FULL.md
// §6's GET /admin/{prop} family) with a string drawn from the underlying
// pebble instance's own metrics, the closest pebble equivalent to
// RocksDB's GetProperty. Unknown properties report ok=false, which the
// HTTP layer turns into ErrorNotFound.
func (s *Store) Property(prop string) (value string, ok bool) {
	m := s.db.Metrics()
	switch prop {
	case "num-files-total":
		return fmt.Sprintf("%d", m.NumSSTables()), true
	case "disk-size-bytes":
		return fmt.Sprintf("%d", m.DiskSpaceUsage()), true
	case "mem-table-bytes":
		return fmt.Sprintf("%d", m.MemTable.Size), true
	case "stats":
		return m.String(), true
	default:
		return "", false
	}
}

// Batch groups writes across keyspaces into one atomic commit, which is
// what lets the master importer attach a MasterGame row and every merge
// operand it implies to a single write (SPEC_FULL.md §4.6).
type Batch struct {
	db    *pebble.Batch
}

// NewBatch starts an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{db: s.db.NewBatch()}
}

// Put stages an unconditional write.
func (b *Batch) Put(ks Keyspace, key, value []byte) error {
	return b.db.Set(ks.prefixKey(key), value, nil)
}

// Merge stages a merge operand.
func (b *Batch) Merge(ks Keyspace, key, value []byte) error {
	return b.db.Merge(ks.prefixKey(key), value, nil)
}

// Commit applies every staged write atomically.
func (b *Batch) Commit() error {
	return b.db.Commit(pebble.Sync)
}
