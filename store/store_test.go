package store

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-explorer/openingexplorer/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPersonalMergeIsOrderIndependent(t *testing.T) {
	s := openTestStore(t)
	key := []byte("pos-key-1")
	white := model.White

	a := model.NewPersonalSingle("e2e4", mustId(t, "aaaaaaaa"), &white, 2000).Encode()
	b := model.NewPersonalSingle("e2e4", mustId(t, "bbbbbbbb"), nil, 2200).Encode()
	c := model.NewPersonalSingle("d2d4", mustId(t, "cccccccc"), &white, 1800).Encode()

	require.NoError(t, s.Merge(KeyspacePersonal, key, a))
	require.NoError(t, s.Merge(KeyspacePersonal, key, b))
	require.NoError(t, s.Merge(KeyspacePersonal, key, c))
	forward, err := s.Get(KeyspacePersonal, key)
	require.NoError(t, err)

	key2 := []byte("pos-key-2")
	require.NoError(t, s.Merge(KeyspacePersonal, key2, c))
	require.NoError(t, s.Merge(KeyspacePersonal, key2, b))
	require.NoError(t, s.Merge(KeyspacePersonal, key2, a))
	reversed, err := s.Get(KeyspacePersonal, key2)
	require.NoError(t, err)

	entryForward, err := model.DecodePersonalEntry(forward)
	require.NoError(t, err)
	entryReversed, err := model.DecodePersonalEntry(reversed)
	require.NoError(t, err)
	assert.Equal(t, entryForward.Total(), entryReversed.Total())
	assert.Equal(t, entryForward.Moves["e2e4"].Total(), entryReversed.Moves["e2e4"].Total())
}

func TestPersonalMergeTruncatesRecentGames(t *testing.T) {
	s := openTestStore(t)
	key := []byte("busy-position")
	white := model.White

	for i := 0; i < model.DefaultRecentGamesCap+10; i++ {
		id := mustId(t, idFromIndex(i))
		op := model.NewPersonalSingle("e2e4", id, &white, 2000).Encode()
		require.NoError(t, s.Merge(KeyspacePersonal, key, op))
	}
	raw, err := s.Get(KeyspacePersonal, key)
	require.NoError(t, err)
	entry, err := model.DecodePersonalEntry(raw)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entry.RecentGames), model.DefaultRecentGamesCap)
}

func TestGameMergeIndexedFlagsAreMonotonic(t *testing.T) {
	s := openTestStore(t)
	key := []byte("game-1")

	white := model.GameInfo{WhiteName: "a", BlackName: "b", Indexed: model.Indexed{White: true}}
	black := model.GameInfo{WhiteName: "a", BlackName: "b", Indexed: model.Indexed{Black: true}}

	require.NoError(t, s.Merge(KeyspacePersonalGame, key, white.Encode()))
	require.NoError(t, s.Merge(KeyspacePersonalGame, key, black.Encode()))

	raw, err := s.Get(KeyspacePersonalGame, key)
	require.NoError(t, err)
	info, err := model.DecodeGameInfo(raw)
	require.NoError(t, err)
	assert.True(t, info.Indexed.White)
	assert.True(t, info.Indexed.Black)

	// Re-merging the white contribution must never clear the black flag.
	require.NoError(t, s.Merge(KeyspacePersonalGame, key, white.Encode()))
	raw, err = s.Get(KeyspacePersonalGame, key)
	require.NoError(t, err)
	info, err = model.DecodeGameInfo(raw)
	require.NoError(t, err)
	assert.True(t, info.Indexed.Black)
}

func TestMasterGameIsPutOnlyAndRejectsMerge(t *testing.T) {
	s := openTestStore(t)
	key := []byte("mg-1")
	require.NoError(t, s.Put(KeyspaceMasterGame, key, []byte("payload")))

	err := s.Merge(KeyspaceMasterGame, key, []byte("operand"))
	assert.Error(t, err)
}

func TestScanReturnsKeysWithoutKeyspaceByte(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(KeyspaceMaster, []byte("aaa"), []byte("1")))
	require.NoError(t, s.Put(KeyspaceMaster, []byte("aab"), []byte("2")))
	require.NoError(t, s.Put(KeyspaceMaster, []byte("abb"), []byte("3")))

	it, err := s.Scan(KeyspaceMaster, []byte("aaa"), []byte("aac"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for {
		k, _, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, string(k))
	}
	assert.Equal(t, []string{"aaa", "aab"}, keys)
}

func mustId(t *testing.T, s string) model.GameId {
	t.Helper()
	id, err := model.ParseGameId(s)
	require.NoError(t, err)
	return id
}

func idFromIndex(i int) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	b := []byte("aaaaaaaa")
	b[7] = alphabet[i%len(alphabet)]
	b[6] = alphabet[(i/len(alphabet))%len(alphabet)]
	return string(b)
}
