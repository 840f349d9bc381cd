package store

// Copyright 2023 rpcpool
// This file has been modified by github.com/gagliardetto

import (
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"

	"github.com/lichess-explorer/openingexplorer/model"
)

// Keyspace tags which logical table a key belongs to. All four keyspaces
// live in one pebble instance, sharing one write batch, so a keyspace byte
// is prepended to every on-disk key instead of opening one pebble.DB per
// keyspace (pebble has no column-family equivalent). This is what lets the
// master importer put a MasterGame row and merge N MasterEntry operands in
// one atomic batch (SPEC_FULL.md §4.6).
type Keyspace byte

const (
	KeyspacePersonal Keyspace = iota
	KeyspacePersonalGame
	KeyspaceMaster
	KeyspaceMasterGame
)

func (ks Keyspace) prefixKey(key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, byte(ks))
	return append(out, key...)
}

// combinedMerger dispatches to the per-keyspace fold by the leading
// keyspace byte of the key. Master-game is put-only and has no merge
// semantics; a merge landing there is a programming error, not a runtime
// condition to recover from gracefully, so it is rejected instead of
// silently doing something.
type combinedMerger struct{}

func newMerger() *combinedMerger { return &combinedMerger{} }

func (combinedMerger) Name() string { return "openingexplorer.combined" }

func (combinedMerger) Merge(key, value []byte) (pebble.ValueMerger, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("store: merge on empty key")
	}
	switch Keyspace(key[0]) {
	case KeyspacePersonal:
		acc, err := model.DecodePersonalEntry(value)
		if err != nil {
			acc = model.NewPersonalEntry()
		}
		return &personalValueMerger{acc: acc}, nil
	case KeyspaceMaster:
		acc, err := model.DecodeMasterEntry(value)
		if err != nil {
			acc = model.NewMasterEntry()
		}
		return &masterValueMerger{acc: acc}, nil
	case KeyspacePersonalGame:
		acc, err := model.DecodeGameInfo(value)
		if err != nil {
			acc = model.GameInfo{}
		}
		return &gameValueMerger{acc: acc}, nil
	default:
		return nil, fmt.Errorf("store: keyspace %d does not support merge", key[0])
	}
}

type personalValueMerger struct {
	acc *model.PersonalEntry
}

func (m *personalValueMerger) MergeNewer(value []byte) error {
	// A corrupt operand contributes nothing; the fold never panics and
	// never aborts the other operands already folded in.
	_ = m.acc.ExtendFromBytes(value)
	return nil
}

func (m *personalValueMerger) MergeOlder(value []byte) error {
	return m.MergeNewer(value)
}

func (m *personalValueMerger) Finish(includesBase bool) ([]byte, io.Closer, error) {
	m.acc.Truncate(model.DefaultRecentGamesCap)
	return m.acc.Encode(), nil, nil
}

type masterValueMerger struct {
	acc *model.MasterEntry
}

func (m *masterValueMerger) MergeNewer(value []byte) error {
	_ = m.acc.ExtendFromBytes(value)
	return nil
}

func (m *masterValueMerger) MergeOlder(value []byte) error {
	return m.MergeNewer(value)
}

func (m *masterValueMerger) Finish(includesBase bool) ([]byte, io.Closer, error) {
	m.acc.Truncate()
	return m.acc.Encode(), nil, nil
}

type gameValueMerger struct {
	acc model.GameInfo
}

func (m *gameValueMerger) MergeNewer(value []byte) error {
	other, err := model.DecodeGameInfo(value)
	if err != nil {
		return nil
	}
	m.acc.Merge(other)
	return nil
}

func (m *gameValueMerger) MergeOlder(value []byte) error {
	other, err := model.DecodeGameInfo(value)
	if err != nil {
		return nil
	}
	m.acc.MergeOlder(other)
	return nil
}

func (m *gameValueMerger) Finish(includesBase bool) ([]byte, io.Closer, error) {
	return m.acc.Encode(), nil, nil
}
