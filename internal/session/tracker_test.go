package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tr := NewTracker([]string{"q1", "q2", "q3"})
	assert.False(t, tr.Complete())
	assert.Equal(t, 3, tr.Total())

	assert.True(t, tr.Visit("q2"))
	assert.False(t, tr.Visit("q2"))
	assert.False(t, tr.Visit("unknown"))
	assert.Equal(t, 1, tr.Count())
	assert.True(t, tr.Visited("q2"))
	assert.False(t, tr.Visited("unknown"))

	tr.Visit("q1")
	tr.Visit("q3")
	assert.True(t, tr.Complete())
	assert.Equal(t, []string{"q2", "q1", "q3"}, tr.VisitedIDs())

	tr.Reset("q1")
	assert.Equal(t, []string{"q1"}, tr.VisitedIDs())
	assert.False(t, tr.Complete())
}

func TestTracker_EmptyPaperNeverComplete(t *testing.T) {
	tr := NewTracker(nil)
	assert.False(t, tr.Complete())
}
