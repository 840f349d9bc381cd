// Package keys builds the fixed-width composite keys used by the position
// store. Every key is laid out so that lexicographic byte order equals the
// intended scan order: identity prefix first, then position hash, then year
// ascending, which is what lets a range scan over a prefix enumerate a
// position's history in AnnoLichess order without a secondary sort.
package keys

import (
	"github.com/lichess-explorer/openingexplorer/model"
)

// userIdWidth is the padded width of a PersonalKey's user-id component.
// Lichess usernames are at most 20 ASCII characters; shorter ids are
// zero-padded on the right so two different ids never share a byte prefix
// (usernames never contain 0x00).
const userIdWidth = 20

// PersonalKeyPrefixLen is the length of a PersonalKey with the year
// component omitted: everything a per-(user, color, variant, position)
// range scan holds fixed.
const PersonalKeyPrefixLen = userIdWidth + 1 + 1 + 16

// PersonalKeyLen is the full width of a PersonalKey.
const PersonalKeyLen = PersonalKeyPrefixLen + 1

// MasterKeyPrefixLen is the length of a MasterKey with the year component
// omitted.
const MasterKeyPrefixLen = 1 + 16

// MasterKeyLen is the full width of a MasterKey.
const MasterKeyLen = MasterKeyPrefixLen + 1

// PersonalKeyPrefix packs everything but the year: padded user id, color,
// variant, position hash.
func PersonalKeyPrefix(user model.UserId, color model.Color, variant model.Variant, pos model.PositionHash) []byte {
	buf := make([]byte, 0, PersonalKeyPrefixLen)
	buf = appendPaddedUserId(buf, user)
	buf = append(buf, byte(color))
	buf = append(buf, byte(variant))
	buf = append(buf, pos[:]...)
	return buf
}

// PersonalKey packs the full key including the year.
func PersonalKey(user model.UserId, color model.Color, variant model.Variant, pos model.PositionHash, year model.AnnoLichess) []byte {
	buf := PersonalKeyPrefix(user, color, variant, pos)
	return append(buf, byte(year))
}

// PersonalScanRange returns the half-open [start, end) byte range a scan
// over every year for the given (user, color, variant, position) must
// cover: prefix‖0x00 through prefix‖0xFF inclusive, expressed as an
// exclusive upper bound by appending one more 0x00 byte past the max year.
func PersonalScanRange(user model.UserId, color model.Color, variant model.Variant, pos model.PositionHash) (start, end []byte) {
	prefix := PersonalKeyPrefix(user, color, variant, pos)
	start = append(append([]byte{}, prefix...), 0x00)
	end = append(append([]byte{}, prefix...), byte(model.AnnoLichessMax), 0x00)
	return start, end
}

// PersonalScanRangeSince is like PersonalScanRange but starts at the given
// year instead of the beginning of history (the since query parameter).
func PersonalScanRangeSince(user model.UserId, color model.Color, variant model.Variant, pos model.PositionHash, since model.AnnoLichess) (start, end []byte) {
	prefix := PersonalKeyPrefix(user, color, variant, pos)
	start = append(append([]byte{}, prefix...), byte(since))
	end = append(append([]byte{}, prefix...), byte(model.AnnoLichessMax), 0x00)
	return start, end
}

// PersonalScanRangeBetween bounds the scan to years in [since, until]
// inclusive, the filter.since/filter.until query parameters.
func PersonalScanRangeBetween(user model.UserId, color model.Color, variant model.Variant, pos model.PositionHash, since, until model.AnnoLichess) (start, end []byte) {
	prefix := PersonalKeyPrefix(user, color, variant, pos)
	start = append(append([]byte{}, prefix...), byte(since))
	end = exclusiveYearBound(prefix, until)
	return start, end
}

// MasterScanRangeBetween is the MasterKey analogue of
// PersonalScanRangeBetween.
func MasterScanRangeBetween(variant model.Variant, pos model.PositionHash, since, until model.AnnoLichess) (start, end []byte) {
	prefix := MasterKeyPrefix(variant, pos)
	start = append(append([]byte{}, prefix...), byte(since))
	end = exclusiveYearBound(prefix, until)
	return start, end
}

// exclusiveYearBound builds the smallest key strictly greater than every
// key with year <= until sharing prefix, without overflowing a byte when
// until is AnnoLichessMax.
func exclusiveYearBound(prefix []byte, until model.AnnoLichess) []byte {
	if until == model.AnnoLichessMax {
		return append(append([]byte{}, prefix...), byte(until), 0x00)
	}
	return append(append([]byte{}, prefix...), byte(until)+1)
}

func appendPaddedUserId(buf []byte, user model.UserId) []byte {
	var padded [userIdWidth]byte
	copy(padded[:], user)
	return append(buf, padded[:]...)
}

// MasterKeyPrefix packs everything but the year: variant, position hash.
func MasterKeyPrefix(variant model.Variant, pos model.PositionHash) []byte {
	buf := make([]byte, 0, MasterKeyPrefixLen)
	buf = append(buf, byte(variant))
	buf = append(buf, pos[:]...)
	return buf
}

// MasterKey packs the full key including the year.
func MasterKey(variant model.Variant, pos model.PositionHash, year model.AnnoLichess) []byte {
	buf := MasterKeyPrefix(variant, pos)
	return append(buf, byte(year))
}

// MasterScanRangeSince returns the half-open [start, end) byte range a scan
// over years >= since for the given (variant, position) must cover.
func MasterScanRangeSince(variant model.Variant, pos model.PositionHash, since model.AnnoLichess) (start, end []byte) {
	prefix := MasterKeyPrefix(variant, pos)
	start = append(append([]byte{}, prefix...), byte(since))
	end = append(append([]byte{}, prefix...), byte(model.AnnoLichessMax), 0x00)
	return start, end
}

// GameKey packs a GameId into its 6-byte on-disk key form, shared by the
// personal-game and master-game keyspaces.
func GameKey(id model.GameId) []byte {
	b := id.Bytes()
	return b[:]
}

// GameKeyLen is the width of a GameKey.
const GameKeyLen = 6
