package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_BeginQueryRejectsSecond(t *testing.T) {
	s := NewSession("s-1", time.Now())

	assert.True(t, s.BeginQuery(PendingQuery{ID: "q-1", Text: "first"}))
	assert.False(t, s.BeginQuery(PendingQuery{ID: "q-2", Text: "second"}))
	assert.Equal(t, "first", s.Pending().Text)

	s.EndQuery()
	assert.Nil(t, s.Pending())
	assert.True(t, s.BeginQuery(PendingQuery{ID: "q-3", Text: "third"}))
}

func TestSession_FocusIsCopied(t *testing.T) {
	s := NewSession("s-1", time.Now())
	f := &FocusState{ElementID: "a", ElementKind: "CLASS__Class"}
	s.SetFocus(f)

	f.ElementID = "mutated"
	assert.Equal(t, "a", s.Focus().ElementID)

	s.SetFocus(nil)
	assert.Nil(t, s.Focus())
}

func TestSession_SnapshotRevisions(t *testing.T) {
	s := NewSession("s-1", time.Now())
	assert.Nil(t, s.Snapshot())

	first := s.SetSnapshot(ModelSnapshot{UML: []byte(`{}`)})
	second := s.SetSnapshot(ModelSnapshot{UML: []byte(`{"a":1}`)})

	assert.Equal(t, 1, first.Revision)
	assert.Equal(t, 2, second.Revision)
	assert.Equal(t, second, s.Snapshot())
}
