package nats

import (
	"testing"
	"time"

	"uml-nli-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRoundTrip(t *testing.T) {
	assert.Equal(t, "nli.TRANSCRIPT_READY", Subject(events.TypeTranscriptReady))
	assert.Equal(t, events.TypeTranscriptReady, EventType("nli.TRANSCRIPT_READY"))
}

func TestDecode(t *testing.T) {
	e, err := decode("nli.TRANSCRIPT_READY", []byte(`{"session_id":"s-1","text":"undo","occurred_at":"2026-01-02T03:04:05Z"}`))
	require.NoError(t, err)

	assert.Equal(t, events.TypeTranscriptReady, e.EventType())
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), e.Timestamp().UTC())
	assert.NotContains(t, e.Payload(), "occurred_at")

	tr, err := events.ParseTranscript(e)
	require.NoError(t, err)
	assert.Equal(t, "undo", tr.Text)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := decode("nli.X", []byte(`not json`))
	assert.Error(t, err)
}
