package model

import (
	"sort"

	"github.com/lichess-explorer/openingexplorer/varint"
)

// DefaultRecentGamesCap bounds PersonalEntry.RecentGames; truncation always
// happens after the fold (see PersonalEntry.Truncate), never mid-merge.
const DefaultRecentGamesCap = 20

// RecentGame is a pointer to one of the most recent games played through a
// position, from the personal corpus.
type RecentGame struct {
	UCI string
	Id  GameId
}

// PersonalEntry is the value stored under a PersonalKey: per-move stats plus
// a bounded list of recent-game pointers. It is self-describing: any single
// serialized PersonalEntry decodes standalone, which is what lets the merge
// operator fold an arbitrary sequence of them.
type PersonalEntry struct {
	Moves       map[string]*Stats
	RecentGames []RecentGame
}

// NewPersonalEntry returns an empty accumulator ready to be extended.
func NewPersonalEntry() *PersonalEntry {
	return &PersonalEntry{Moves: make(map[string]*Stats)}
}

// NewPersonalSingle builds the single-ply contribution the per-player indexer
// writes for one move played in one game.
func NewPersonalSingle(uci string, id GameId, winner *Color, rating uint32) *PersonalEntry {
	e := NewPersonalEntry()
	s := NewResultStats(winner, rating)
	e.Moves[uci] = &s
	e.RecentGames = []RecentGame{{UCI: uci, Id: id}}
	return e
}

// Total sums Stats.Total() across every move, i.e. the number of (game,ply)
// samples folded into this entry.
func (e *PersonalEntry) Total() uint64 {
	var total uint64
	for _, s := range e.Moves {
		total += s.Total()
	}
	return total
}

// Extend folds other into e in place (the accumulator side of a merge step).
func (e *PersonalEntry) Extend(other *PersonalEntry) {
	for uci, s := range other.Moves {
		if existing, ok := e.Moves[uci]; ok {
			existing.Add(*s)
		} else {
			cp := *s
			e.Moves[uci] = &cp
		}
	}
	e.RecentGames = append(e.RecentGames, other.RecentGames...)
}

// ExtendFromBytes decodes a serialized operand and folds it into e, without
// ever allocating an intermediate PersonalEntry that outlives the call.
func (e *PersonalEntry) ExtendFromBytes(buf []byte) error {
	other, err := DecodePersonalEntry(buf)
	if err != nil {
		return err
	}
	e.Extend(other)
	return nil
}

// Truncate sorts RecentGames by GameId descending and drops everything past
// cap, the one place size bounding happens (invariant 3: bounded entry size,
// applied after the fold so the fold stays associative on the unbounded list).
func (e *PersonalEntry) Truncate(cap int) {
	sort.Slice(e.RecentGames, func(i, j int) bool {
		return e.RecentGames[i].Id.String() > e.RecentGames[j].Id.String()
	})
	// Identical (uci, id) pairs can appear when the same ply is merged twice
	// (e.g. a retried write); treat them as duplicates per the open question
	// in SPEC_FULL.md / the original design notes.
	deduped := e.RecentGames[:0]
	seen := make(map[RecentGame]struct{}, len(e.RecentGames))
	for _, rg := range e.RecentGames {
		if _, ok := seen[rg]; ok {
			continue
		}
		seen[rg] = struct{}{}
		deduped = append(deduped, rg)
	}
	e.RecentGames = deduped
	if len(e.RecentGames) > cap {
		e.RecentGames = e.RecentGames[:cap]
	}
}

// Encode serializes e. The move map is written in sorted-uci order so that
// encoding is deterministic (entries with the same contents serialize
// identically, which keeps tests and on-disk diffs stable).
func (e *PersonalEntry) Encode() []byte {
	ucis := make([]string, 0, len(e.Moves))
	for uci := range e.Moves {
		ucis = append(ucis, uci)
	}
	sort.Strings(ucis)

	buf := varint.Append(nil, uint64(len(ucis)))
	for _, uci := range ucis {
		buf = appendString(buf, uci)
		buf = e.Moves[uci].Encode(buf)
	}
	buf = varint.Append(buf, uint64(len(e.RecentGames)))
	for _, rg := range e.RecentGames {
		buf = appendString(buf, rg.UCI)
		idBytes := rg.Id.Bytes()
		buf = append(buf, idBytes[:]...)
	}
	return buf
}

// DecodePersonalEntry parses a standalone serialized PersonalEntry.
func DecodePersonalEntry(buf []byte) (*PersonalEntry, error) {
	e := NewPersonalEntry()

	nMoves, rest, err := varint.Take(buf)
	if err != nil {
		return nil, err
	}
	buf = rest
	for i := uint64(0); i < nMoves; i++ {
		uci, rest, err := takeString(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		s, rest, err := DecodeStats(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		e.Moves[uci] = &s
	}

	nRecent, rest, err := varint.Take(buf)
	if err != nil {
		return nil, err
	}
	buf = rest
	e.RecentGames = make([]RecentGame, 0, nRecent)
	for i := uint64(0); i < nRecent; i++ {
		uci, rest, err := takeString(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		if len(buf) < 6 {
			return nil, ErrCorruptEntry
		}
		id, err := GameIdFromBytes(buf[:6])
		if err != nil {
			return nil, err
		}
		buf = buf[6:]
		e.RecentGames = append(e.RecentGames, RecentGame{UCI: uci, Id: id})
	}
	return e, nil
}

func appendString(buf []byte, s string) []byte {
	buf = varint.Append(buf, uint64(len(s)))
	return append(buf, s...)
}

func takeString(buf []byte) (string, []byte, error) {
	n, rest, err := varint.Take(buf)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < n {
		return "", nil, ErrCorruptEntry
	}
	return string(rest[:n]), rest[n:], nil
}
