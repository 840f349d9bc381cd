package opening

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLongestPrefix(t *testing.T) {
	table := Build()

	op, ok := table.Classify(nil)
	assert.False(t, ok)

	op, ok = table.Classify([]string{"e2e4"})
	assert.True(t, ok)
	assert.Equal(t, "B00", op.Eco)

	op, ok = table.Classify([]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"})
	assert.True(t, ok)
	assert.Equal(t, "Ruy Lopez", op.Name)

	// A position one ply beyond any cataloged line still classifies by its
	// longest known prefix.
	op, ok = table.Classify([]string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6"})
	assert.True(t, ok)
	assert.Equal(t, "C60", op.Eco)
}

func TestUnknownOpeningFallsBackToNoMatch(t *testing.T) {
	table := Build()
	_, ok := table.Classify([]string{"a2a3", "a7a6", "a1a2"})
	assert.False(t, ok)
}
