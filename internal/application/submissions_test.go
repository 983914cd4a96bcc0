package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

func TestSubmissionLog(t *testing.T) {
	l := NewSubmissionLog(2)
	l.Record(domain.SubmittedEvent{OrderID: "a", RunID: "r1"})
	l.Record(domain.SubmittedEvent{OrderID: "b", RunID: "r1"})
	l.Record(domain.SubmittedEvent{OrderID: "a", RunID: "r2"})

	ev, ok := l.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "r2", ev.RunID)

	l.Record(domain.SubmittedEvent{OrderID: "c", RunID: "r3"})
	_, ok = l.Get("a")
	assert.False(t, ok, "oldest order is evicted")

	recent := l.Recent(0)
	assert.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].OrderID)
	assert.Equal(t, "b", recent[1].OrderID)
	assert.Len(t, l.Recent(1), 1)
}
