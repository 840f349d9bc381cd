package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGameId(t *testing.T, s string) GameId {
	t.Helper()
	id, err := ParseGameId(s)
	require.NoError(t, err)
	return id
}

func TestGameIdRoundtripThroughBytes(t *testing.T) {
	for _, s := range []string{"aaaaaaaa", "ZZZZZZZZ", "a1B2c3D4", "00000000"} {
		id := mustGameId(t, s)
		packed := id.Bytes()
		back, err := GameIdFromBytes(packed[:])
		require.NoError(t, err)
		assert.Equal(t, id, back)
		assert.Equal(t, s, back.String())
	}
}

func TestGameIdRejectsWrongLength(t *testing.T) {
	_, err := ParseGameId("short")
	assert.ErrorIs(t, err, ErrInvalidGameId)

	_, err = GameIdFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidGameId)
}

func TestStatsAddIsCommutative(t *testing.T) {
	w := White
	a := NewResultStats(&w, 2000)
	b := NewResultStats(nil, 2400)

	ab := a
	ab.Add(b)
	ba := b
	ba.Add(a)
	assert.Equal(t, ab, ba)
	assert.Equal(t, uint64(2), ab.Total())
	avg := ab.AverageRating()
	require.NotNil(t, avg)
	assert.Equal(t, uint64(2200), *avg)
}

func TestPersonalEntryFoldAndTruncate(t *testing.T) {
	w := White
	e1 := NewPersonalSingle("e2e4", mustGameId(t, "aaaaaaaa"), &w, 2100)
	e2 := NewPersonalSingle("e2e4", mustGameId(t, "bbbbbbbb"), nil, 1900)
	e3 := NewPersonalSingle("d2d4", mustGameId(t, "cccccccc"), &w, 2200)

	acc := NewPersonalEntry()
	acc.Extend(e1)
	acc.Extend(e2)
	acc.Extend(e3)

	assert.Equal(t, uint64(3), acc.Total())
	assert.Equal(t, uint64(2), acc.Moves["e2e4"].Total())
	assert.Equal(t, uint64(1), acc.Moves["d2d4"].Total())
	assert.Len(t, acc.RecentGames, 3)

	acc.Truncate(2)
	assert.Len(t, acc.RecentGames, 2)
}

func TestPersonalEntryEncodeDecodeRoundtrip(t *testing.T) {
	w := White
	e := NewPersonalSingle("g1f3", mustGameId(t, "dddddddd"), &w, 2500)
	e.Extend(NewPersonalSingle("g1f3", mustGameId(t, "eeeeeeee"), nil, 2300))

	buf := e.Encode()
	back, err := DecodePersonalEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, e.Total(), back.Total())
	assert.Equal(t, e.Moves["g1f3"].Total(), back.Moves["g1f3"].Total())
	assert.ElementsMatch(t, e.RecentGames, back.RecentGames)
}

func TestPersonalEntryExtendFromBytesMatchesExtend(t *testing.T) {
	w := Black
	base := NewPersonalSingle("c2c4", mustGameId(t, "ffffffff"), nil, 2000)
	operand := NewPersonalSingle("c2c4", mustGameId(t, "gggggggg"), &w, 2100)

	viaExtend := NewPersonalEntry()
	viaExtend.Extend(base)
	viaExtend.Extend(operand)

	viaBytes := NewPersonalEntry()
	viaBytes.Extend(base)
	require.NoError(t, viaBytes.ExtendFromBytes(operand.Encode()))

	assert.Equal(t, viaExtend.Total(), viaBytes.Total())
}

func TestMasterEntryFoldAndTruncateOrdersBySortKey(t *testing.T) {
	w := White
	acc := NewMasterEntry()
	for i := 0; i < MasterGamesCap+5; i++ {
		id := mustGameId(t, "aaaaaaa"+string(rune('a'+i%26)))
		rating := uint32(1800 + i*10)
		acc.Extend(NewMasterSingle("e2e4", id, &w, rating, rating-50, YearToAnno(2020)))
	}
	require.Len(t, acc.Moves["e2e4"].Games, MasterGamesCap+5)
	acc.Truncate()
	games := acc.Moves["e2e4"].Games
	require.Len(t, games, MasterGamesCap)
	for i := 1; i < len(games); i++ {
		assert.GreaterOrEqual(t, games[i-1].SortKey, games[i].SortKey)
	}
}

func TestMasterEntryEncodeDecodeRoundtrip(t *testing.T) {
	w := White
	e := NewMasterSingle("d2d4", mustGameId(t, "hhhhhhhh"), &w, 2600, 2550, YearToAnno(2019))
	buf := e.Encode()
	back, err := DecodeMasterEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, e.Total(), back.Total())
	require.Len(t, back.Moves["d2d4"].Games, 1)
	assert.Equal(t, e.Moves["d2d4"].Games[0], back.Moves["d2d4"].Games[0])
}

func TestGameInfoMergeOrsIndexedFlags(t *testing.T) {
	g := GameInfo{WhiteName: "a", Indexed: Indexed{White: true}}
	g.Merge(GameInfo{WhiteName: "a", Indexed: Indexed{Black: true}})
	assert.True(t, g.Indexed.White)
	assert.True(t, g.Indexed.Black)

	g.Merge(GameInfo{WhiteName: "a", Indexed: Indexed{}})
	assert.True(t, g.Indexed.White, "Indexed flags must never reset to false once set")
	assert.True(t, g.Indexed.Black)
}

func TestGameInfoEncodeDecodeRoundtrip(t *testing.T) {
	w := Black
	g := GameInfo{
		WhiteName:   "alice",
		BlackName:   "bob",
		WhiteRating: 2100,
		BlackRating: 2050,
		Winner:      &w,
		Year:        2021,
		Month:       6,
		Event:       "Rated Blitz game",
		Speed:       "blitz",
		Rated:       true,
		Indexed:     Indexed{White: true, Black: false},
	}
	back, err := DecodeGameInfo(g.Encode())
	require.NoError(t, err)
	assert.Equal(t, g.WhiteName, back.WhiteName)
	assert.Equal(t, g.Rated, back.Rated)
	assert.Equal(t, g.Indexed, back.Indexed)
	require.NotNil(t, back.Winner)
	assert.Equal(t, Black, *back.Winner)
}

func TestMasterGameEncodeDecodeRoundtripAndPGN(t *testing.T) {
	w := White
	g := MasterGame{
		WhiteName:   "carlsen",
		BlackName:   "caruana",
		WhiteRating: 2830,
		BlackRating: 2820,
		Winner:      &w,
		Year:        2018,
		Month:       11,
		Event:       "World Championship",
		Site:        "London",
		Moves:       []string{"e4", "e5", "Nf3", "Nc6"},
	}
	back, err := DecodeMasterGame(g.Encode())
	require.NoError(t, err)
	assert.Equal(t, g.Moves, back.Moves)
	assert.Equal(t, g.Event, back.Event)

	pgn := g.PGN(mustGameId(t, "iiiiiiii"))
	assert.Contains(t, pgn, "[White \"carlsen\"]")
	assert.Contains(t, pgn, "1. e4")
	assert.Contains(t, pgn, "1-0")
}
