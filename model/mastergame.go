package model

import (
	"fmt"
	"strings"

	"github.com/lichess-explorer/openingexplorer/varint"
)

// MasterGame is the master-game keyspace value: everything needed to answer
// GET /master/pgn/{id} without touching the master aggregate keyspace. It is
// put-only (no merger registered on master-game, invariant: each GameId is
// written at most once by the master importer).
type MasterGame struct {
	WhiteName   string
	BlackName   string
	WhiteRating uint32
	BlackRating uint32
	Winner      *Color
	Year        uint16
	Month       uint8
	Event       string
	Site        string
	Moves       []string // SAN, in play order
}

// Encode serializes g.
func (g MasterGame) Encode() []byte {
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
	buf = appendString(buf, g.Site)
	buf = varint.Append(buf, uint64(len(g.Moves)))
	for _, san := range g.Moves {
		buf = appendString(buf, san)
	}
	return buf
}

// DecodeMasterGame parses a serialized MasterGame.
func DecodeMasterGame(buf []byte) (MasterGame, error) {
	var g MasterGame
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
	g.Site, buf, err = takeString(buf)
	if err != nil {
		return g, err
	}

	var nMoves uint64
	nMoves, buf, err = varint.Take(buf)
	if err != nil {
		return g, err
	}
	g.Moves = make([]string, 0, nMoves)
	for i := uint64(0); i < nMoves; i++ {
		var san string
		san, buf, err = takeString(buf)
		if err != nil {
			return g, err
		}
		g.Moves = append(g.Moves, san)
	}
	return g, nil
}

// resultTag renders the PGN seven-tag-roster Result value.
func (g MasterGame) resultTag() string {
	switch g.Winner {
	case nil:
		return "1/2-1/2"
	default:
		if *g.Winner == White {
			return "1-0"
		}
		return "0-1"
	}
}

// PGN renders g back into Portable Game Notation. Reconstructing PGN from
// the structured fields (rather than storing the original text verbatim)
// keeps the master-game value small and lets the tag roster always reflect
// what the importer actually recorded.
func (g MasterGame) PGN(id GameId) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Event %q]\n", orDefault(g.Event, "?"))
	fmt.Fprintf(&b, "[Site %q]\n", orDefault(g.Site, "?"))
	fmt.Fprintf(&b, "[Date %q]\n", fmt.Sprintf("%04d.%02d.??", g.Year, g.Month))
	fmt.Fprintf(&b, "[White %q]\n", orDefault(g.WhiteName, "?"))
	fmt.Fprintf(&b, "[Black %q]\n", orDefault(g.BlackName, "?"))
	fmt.Fprintf(&b, "[Result %q]\n", g.resultTag())
	fmt.Fprintf(&b, "[WhiteElo %q]\n", fmt.Sprint(g.WhiteRating))
	fmt.Fprintf(&b, "[BlackElo %q]\n", fmt.Sprint(g.BlackRating))
	fmt.Fprintf(&b, "[LichessURL %q]\n", "https://lichess.org/"+id.String())
	b.WriteByte('\n')

	for i, san := range g.Moves {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(san)
		b.WriteByte(' ')
	}
	b.WriteString(g.resultTag())
	b.WriteByte('\n')
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
