package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-explorer/openingexplorer/api"
	"github.com/lichess-explorer/openingexplorer/importer"
	"github.com/lichess-explorer/openingexplorer/keys"
	"github.com/lichess-explorer/openingexplorer/model"
	"github.com/lichess-explorer/openingexplorer/store"
)

func openTestAssembler(t *testing.T) (*Assembler, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, nil), s
}

func mustPos(t *testing.T, variant model.Variant, play []string) *Position {
	t.Helper()
	pos, err := ResolvePosition(variant, "", play)
	require.NoError(t, err)
	return pos
}

func TestPersonalAggregatesAcrossYearsAndFiltersIllegalMoves(t *testing.T) {
	a, s := openTestAssembler(t)
	player := model.NewUserId("alice")
	variant := model.VariantStandard
	pos := mustPos(t, variant, nil)
	posHash := pos.pos.Zobrist()

	white := model.White
	id1, _ := model.ParseGameId("aaaaaaaa")
	id2, _ := model.ParseGameId("bbbbbbbb")

	entry1 := model.NewPersonalSingle("e2e4", id1, &white, 2000)
	key1 := keys.PersonalKey(player, model.White, variant, posHash, model.YearToAnno(2019))
	require.NoError(t, s.Merge(store.KeyspacePersonal, key1, entry1.Encode()))

	entry2 := model.NewPersonalSingle("e2e4", id2, nil, 2100)
	key2 := keys.PersonalKey(player, model.White, variant, posHash, model.YearToAnno(2021))
	require.NoError(t, s.Merge(store.KeyspacePersonal, key2, entry2.Encode()))

	// An illegal move recorded under the same key must never surface.
	bogus := model.NewPersonalSingle("a1a8", id1, &white, 2000)
	require.NoError(t, s.Merge(store.KeyspacePersonal, key1, bogus.Encode()))

	resp, err := a.Personal(PersonalQuery{
		Player: player,
		Color:  model.White,
		Pos:    pos,
		Filter: PersonalFilter{Since: 0, Until: model.AnnoLichessMax},
		Limits: api.DefaultLimits(),
	})
	require.NoError(t, err)

	require.Len(t, resp.Moves, 1)
	assert.Equal(t, "e2e4", resp.Moves[0].UCI)
	assert.Equal(t, "e4", resp.Moves[0].SAN)
	assert.EqualValues(t, 2, resp.Moves[0].Total)
	// resp.Total sums every folded move including the illegal one filtered
	// out of resp.Moves: it describes the raw fold, not the legal subset.
	assert.Equal(t, int64(3), resp.Total.Total)
}

func TestPersonalFilterExcludesYearsOutsideRange(t *testing.T) {
	a, s := openTestAssembler(t)
	player := model.NewUserId("bob")
	variant := model.VariantStandard
	pos := mustPos(t, variant, nil)
	posHash := pos.pos.Zobrist()

	white := model.White
	id, _ := model.ParseGameId("cccccccc")
	entry := model.NewPersonalSingle("e2e4", id, &white, 2000)
	key := keys.PersonalKey(player, model.White, variant, posHash, model.YearToAnno(2015))
	require.NoError(t, s.Merge(store.KeyspacePersonal, key, entry.Encode()))

	resp, err := a.Personal(PersonalQuery{
		Player: player,
		Color:  model.White,
		Pos:    pos,
		Filter: PersonalFilter{Since: model.YearToAnno(2020), Until: model.AnnoLichessMax},
		Limits: api.DefaultLimits(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Total.Total)
}

func TestMasterAnswersQueryAfterImport(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	im := importer.New(s)
	a := New(s, nil)

	white := model.White
	gid, _ := model.ParseGameId("dddddddd")
	require.NoError(t, im.Import(importer.Game{
		Id:          gid,
		WhiteName:   "carlsen",
		BlackName:   "nepo",
		WhiteRating: 2500,
		BlackRating: 2500,
		Winner:      &white,
		Year:        2022,
		Month:       1,
		Variant:     model.VariantStandard,
		Moves:       []string{"e2e4", "e7e5"},
	}))

	pos := mustPos(t, model.VariantStandard, nil)
	resp, err := a.Master(MasterQuery{
		Pos:    pos,
		Since:  0,
		Until:  model.AnnoLichessMax,
		Limits: api.DefaultLimits(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Moves, 1)
	assert.Equal(t, "e4", resp.Moves[0].SAN)
	require.NotNil(t, resp.Moves[0].Game)
	assert.Equal(t, gid.String(), resp.Moves[0].Game.Id)
}
