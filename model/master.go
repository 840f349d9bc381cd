package model

import (
	"sort"

	"github.com/lichess-explorer/openingexplorer/varint"
)

// MasterGamesCap bounds MoveGroup.Games; K <= 16 per invariant 3.
const MasterGamesCap = 16

// SampleGame is a bounded sample-game pointer attached to a MoveGroup,
// ordered by SortKey descending then truncated to MasterGamesCap.
type SampleGame struct {
	SortKey uint64
	Id      GameId
}

// NewSampleSortKey packs (avg game rating, year) into a single total-ordered
// key so top_games sorting is deterministic even when avg ratings collide
// (SPEC_FULL.md / design notes §9).
func NewSampleSortKey(avgRating uint32, year AnnoLichess) uint64 {
	return uint64(avgRating)<<8 | uint64(year)
}

// MoveGroup is the per-move aggregate stored in a MasterEntry.
type MoveGroup struct {
	Stats Stats
	Games []SampleGame
}

// MasterEntry is the value stored under a MasterKey: per-move aggregate
// stats plus a bounded sample of games that reached this position via that
// move, self-describing like PersonalEntry.
type MasterEntry struct {
	Moves map[string]*MoveGroup
}

// NewMasterEntry returns an empty accumulator.
func NewMasterEntry() *MasterEntry {
	return &MasterEntry{Moves: make(map[string]*MoveGroup)}
}

// NewMasterSingle builds the single-ply contribution the master importer
// writes for one move played in one imported game.
func NewMasterSingle(uci string, id GameId, winner *Color, moverRating, opponentRating uint32, year AnnoLichess) *MasterEntry {
	e := NewMasterEntry()
	avg := (moverRating + opponentRating) / 2
	e.Moves[uci] = &MoveGroup{
		Stats: NewResultStats(winner, moverRating),
		Games: []SampleGame{{SortKey: NewSampleSortKey(avg, year), Id: id}},
	}
	return e
}

// Total sums Stats.Total() across every move.
func (e *MasterEntry) Total() uint64 {
	var total uint64
	for _, g := range e.Moves {
		total += g.Stats.Total()
	}
	return total
}

// Extend folds other into e in place.
func (e *MasterEntry) Extend(other *MasterEntry) {
	for uci, g := range other.Moves {
		if existing, ok := e.Moves[uci]; ok {
			existing.Stats.Add(g.Stats)
			existing.Games = append(existing.Games, g.Games...)
		} else {
			cp := MoveGroup{Stats: g.Stats, Games: append([]SampleGame(nil), g.Games...)}
			e.Moves[uci] = &cp
		}
	}
}

// ExtendFromBytes decodes a serialized operand and folds it into e.
func (e *MasterEntry) ExtendFromBytes(buf []byte) error {
	other, err := DecodeMasterEntry(buf)
	if err != nil {
		return err
	}
	e.Extend(other)
	return nil
}

// Truncate sorts each move's Games by SortKey descending and drops
// everything past MasterGamesCap, applied only after the fold completes.
func (e *MasterEntry) Truncate() {
	for _, g := range e.Moves {
		sort.Slice(g.Games, func(i, j int) bool {
			if g.Games[i].SortKey != g.Games[j].SortKey {
				return g.Games[i].SortKey > g.Games[j].SortKey
			}
			return g.Games[i].Id.String() > g.Games[j].Id.String()
		})
		if len(g.Games) > MasterGamesCap {
			g.Games = g.Games[:MasterGamesCap]
		}
	}
}

// Encode serializes e, moves in sorted-uci order for determinism.
func (e *MasterEntry) Encode() []byte {
	ucis := make([]string, 0, len(e.Moves))
	for uci := range e.Moves {
		ucis = append(ucis, uci)
	}
	sort.Strings(ucis)

	buf := varint.Append(nil, uint64(len(ucis)))
	for _, uci := range ucis {
		g := e.Moves[uci]
		buf = appendString(buf, uci)
		buf = g.Stats.Encode(buf)
		buf = varint.Append(buf, uint64(len(g.Games)))
		for _, sg := range g.Games {
			buf = varint.Append(buf, sg.SortKey)
			idBytes := sg.Id.Bytes()
			buf = append(buf, idBytes[:]...)
		}
	}
	return buf
}

// DecodeMasterEntry parses a standalone serialized MasterEntry.
func DecodeMasterEntry(buf []byte) (*MasterEntry, error) {
	e := NewMasterEntry()

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
		stats, rest, err := DecodeStats(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		nGames, rest, err := varint.Take(buf)
		if err != nil {
			return nil, err
		}
		buf = rest
		games := make([]SampleGame, 0, nGames)
		for j := uint64(0); j < nGames; j++ {
			sortKey, rest, err := varint.Take(buf)
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
			games = append(games, SampleGame{SortKey: sortKey, Id: id})
		}
		e.Moves[uci] = &MoveGroup{Stats: stats, Games: games}
	}
	return e, nil
}
