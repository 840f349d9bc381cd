package model

import "github.com/lichess-explorer/openingexplorer/varint"

// Indexed tracks, per color, whether a game has already been folded into the
// personal store for that side. A game is indexed independently for its
// white and black player because the two indexing jobs run independently and
// can race (SPEC_FULL.md §4.3).
type Indexed struct {
	White bool
	Black bool
}

// ByColor reports the indexed flag for the given side.
func (ix Indexed) ByColor(c Color) bool {
	if c == White {
		return ix.White
	}
	return ix.Black
}

// GameInfo is the side-table entry keyed by GameId in the personal-game
// keyspace: enough metadata to answer admin queries and render
// a played-games list without re-parsing a PGN. MasterGame (see
// mastergame.go) is the master-keyspace analogue that additionally carries
// the full move list and PGN text.
type GameInfo struct {
	WhiteName   string
	BlackName   string
	WhiteRating uint32
	BlackRating uint32
	Winner      *Color
	Year        uint16
	Month       uint8
	Event       string
	Speed       string
	Rated       bool
	Indexed     Indexed
}

// Merge folds other into g in place. Scalar game metadata is latest-wins
// (the two contributions describe the same game and should agree; if they
// don't, the most recently written copy is kept), while Indexed is
// OR-combined so a flag that ever went true never resets to false
// (monotonicity, invariant 4 / testable property 4).
func (g *GameInfo) Merge(other GameInfo) {
	g.WhiteName = other.WhiteName
	g.BlackName = other.BlackName
	g.WhiteRating = other.WhiteRating
	g.BlackRating = other.BlackRating
	g.Winner = other.Winner
	g.Year = other.Year
	g.Month = other.Month
	g.Event = other.Event
	g.Speed = other.Speed
	g.Rated = other.Rated
	g.Indexed.White = g.Indexed.White || other.Indexed.White
	g.Indexed.Black = g.Indexed.Black || other.Indexed.Black
}

// MergeOlder folds other into g as an older operand: other only fills in
// scalars g hasn't set yet (zero-valued), so an operand applied out of write
// order never clobbers a value a newer operand already established. Indexed
// stays OR-combined regardless of operand order.
func (g *GameInfo) MergeOlder(other GameInfo) {
	if g.WhiteName == "" {
		g.WhiteName = other.WhiteName
	}
	if g.BlackName == "" {
		g.BlackName = other.BlackName
	}
	if g.WhiteRating == 0 {
		g.WhiteRating = other.WhiteRating
	}
	if g.BlackRating == 0 {
		g.BlackRating = other.BlackRating
	}
	if g.Winner == nil {
		g.Winner = other.Winner
	}
	if g.Year == 0 {
		g.Year = other.Year
	}
	if g.Month == 0 {
		g.Month = other.Month
	}
	if g.Event == "" {
		g.Event = other.Event
	}
	if g.Speed == "" {
		g.Speed = other.Speed
	}
	if !g.Rated {
		g.Rated = other.Rated
	}
	g.Indexed.White = g.Indexed.White || other.Indexed.White
	g.Indexed.Black = g.Indexed.Black || other.Indexed.Black
}

// Encode serializes g.
func (g GameInfo) Encode() []byte {
	var buf []byte
	buf = appendString(buf, g.WhiteName)
	buf = appendString(buf, g.BlackName)
	buf = varint.Append(buf, uint64(g.WhiteRating))
	buf = varint.Append(buf, uint64(g.BlackRating))
	switch g.Winner {
	case nil:
		buf = varint.Append(buf, 2)
	default:
		buf = varint.Append(buf, uint64(*g.Winner))
	}
	buf = varint.Append(buf, uint64(g.Year))
	buf = varint.Append(buf, uint64(g.Month))
	buf = appendString(buf, g.Event)
	buf = appendString(buf, g.Speed)
	if g.Rated {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var flags byte
	if g.Indexed.White {
		flags |= 1
	}
	if g.Indexed.Black {
		flags |= 2
	}
	buf = append(buf, flags)
	return buf
}

// DecodeGameInfo parses a serialized GameInfo.
func DecodeGameInfo(buf []byte) (GameInfo, error) {
	var g GameInfo
	var err error

	g.WhiteName, buf, err = takeString(buf)
	if err != nil {
		return g, err
	}
	g.BlackName, buf, err = takeString(buf)
	if err != nil {
		return g, err
	}
	var rating uint64
	rating, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	g.WhiteRating = uint32(rating)
	rating, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	g.BlackRating = uint32(rating)

	var winner uint64
	winner, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	switch winner {
	case 0:
		w := White
		g.Winner = &w
	case 1:
		b := Black
		g.Winner = &b
	case 2:
		g.Winner = nil
	default:
		return g, ErrCorruptEntry
	}

	var year uint64
	year, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	g.Year = uint16(year)

	var month uint64
	month, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	g.Month = uint8(month)

	g.Event, buf, err = takeString(buf)
	if err != nil {
		return g, err
	}
	g.Speed, buf, err = takeString(buf)
	if err != nil {
		return g, err
	}

	if len(buf) < 2 {
		return g, ErrCorruptEntry
	}
	g.Rated = buf[0] != 0
	flags := buf[1]
	g.Indexed.White = flags&1 != 0
	g.Indexed.Black = flags&2 != 0
	return g, nil
}
