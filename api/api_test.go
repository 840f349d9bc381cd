package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lichess-explorer/openingexplorer/model"
)

func TestStatsFromModelMapsEachBucket(t *testing.T) {
	s := model.Stats{WhiteWins: 3, Draws: 2, BlackWins: 1}
	out := StatsFromModel(s)
	assert.Equal(t, Stats{White: 3, Draws: 2, Black: 1}, out)
}

func TestHTTPStatusCoversEveryKind(t *testing.T) {
	cases := map[ErrorKind]int{
		ErrorInvalidPosition: 400,
		ErrorRejectedImport:  422,
		ErrorDuplicateGame:   409,
		ErrorNotFound:        404,
		ErrorInternal:        500,
	}
	for kind, want := range cases {
		err := NewError(kind, "x")
		assert.Equal(t, want, err.HTTPStatus(), "kind %s", kind)
	}
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	err := NewError(ErrorNotFound, "no such game")
	assert.EqualError(t, err, "NotFound: no such game")
}

func TestDefaultLimitsMatchSpecDefaults(t *testing.T) {
	l := DefaultLimits()
	assert.Equal(t, Limits{Moves: 12, TopGames: 15, RecentGames: 20}, l)
}
