package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lichess-explorer/openingexplorer/model"
)

func TestStartIsIdempotentForTheSamePlayer(t *testing.T) {
	ix := New()
	player := model.NewUserId("alice")

	ch1 := ix.Start(player)
	ch2 := ix.Start(player)
	assert.Equal(t, 1, ix.NumIndexing())

	select {
	case <-ch1:
		t.Fatal("channel closed before Finish")
	default:
	}

	ix.Finish(player)
	assert.Equal(t, 0, ix.NumIndexing())
	<-ch1
	<-ch2
}

func TestFinishWithoutStartIsANoop(t *testing.T) {
	ix := New()
	ix.Finish(model.NewUserId("nobody"))
	assert.Equal(t, 0, ix.NumIndexing())
}

func TestDifferentPlayersTrackIndependently(t *testing.T) {
	ix := New()
	a := model.NewUserId("alice")
	b := model.NewUserId("bob")

	ix.Start(a)
	ix.Start(b)
	assert.Equal(t, 2, ix.NumIndexing())
	assert.True(t, ix.InProgress(a))

	ix.Finish(a)
	assert.False(t, ix.InProgress(a))
	assert.True(t, ix.InProgress(b))
	assert.Equal(t, 1, ix.NumIndexing())
}
