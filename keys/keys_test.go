package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-explorer/openingexplorer/model"
)

func TestPersonalKeyFallsWithinItsScanRange(t *testing.T) {
	user := model.NewUserId("DrNykterstein")
	var pos model.PositionHash
	copy(pos[:], "0123456789abcdef")

	for _, year := range []model.AnnoLichess{0, 10, 200, model.AnnoLichessMax} {
		key := PersonalKey(user, model.White, model.VariantStandard, pos, year)
		start, end := PersonalScanRange(user, model.White, model.VariantStandard, pos)
		assert.True(t, bytes.Compare(start, key) <= 0, "key must not precede range start")
		assert.True(t, bytes.Compare(key, end) < 0, "key must precede exclusive range end")
	}
}

func TestPersonalScanRangeSinceExcludesEarlierYears(t *testing.T) {
	user := model.NewUserId("thibault")
	var pos model.PositionHash
	copy(pos[:], "fedcba9876543210")

	early := PersonalKey(user, model.Black, model.VariantStandard, pos, 5)
	late := PersonalKey(user, model.Black, model.VariantStandard, pos, 15)

	start, end := PersonalScanRangeSince(user, model.Black, model.VariantStandard, pos, 10)
	assert.True(t, bytes.Compare(early, start) < 0, "year before since must fall before range start")
	assert.True(t, bytes.Compare(start, late) <= 0 && bytes.Compare(late, end) < 0)
}

func TestDifferentUsersNeverShareAPersonalPrefix(t *testing.T) {
	var pos model.PositionHash
	p1 := PersonalKeyPrefix(model.NewUserId("ab"), model.White, model.VariantStandard, pos)
	p2 := PersonalKeyPrefix(model.NewUserId("abc"), model.White, model.VariantStandard, pos)
	assert.False(t, bytes.Equal(p1, p2))
	assert.False(t, bytes.HasPrefix(p2, p1), "zero-padding must not let a shorter id prefix a longer one")
}

func TestMasterKeyFallsWithinItsScanRange(t *testing.T) {
	var pos model.PositionHash
	copy(pos[:], "aaaaaaaaaaaaaaaa")

	key := MasterKey(model.VariantStandard, pos, 42)
	start, end := MasterScanRangeSince(model.VariantStandard, pos, 0)
	assert.True(t, bytes.Compare(start, key) <= 0)
	assert.True(t, bytes.Compare(key, end) < 0)
}

func TestKeyWidths(t *testing.T) {
	require.Equal(t, PersonalKeyPrefixLen+1, PersonalKeyLen)
	require.Equal(t, MasterKeyPrefixLen+1, MasterKeyLen)
	require.Len(t, MasterKey(model.VariantStandard, model.PositionHash{}, 0), MasterKeyLen)
	require.Len(t, PersonalKey(model.NewUserId("x"), model.White, model.VariantStandard, model.PositionHash{}, 0), PersonalKeyLen)
}
