package events

import (
	"fmt"
	"time"
)

// Event is anything published on the NATS bus.
type Event interface {
	// EventType returns the subject suffix, e.g. "OPERATION_EMITTED".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const (
	TypeOperationEmitted = "OPERATION_EMITTED"
	TypeTranscriptReady  = "TRANSCRIPT_READY"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewOperationEmitted announces a message delivered to a session's editor.
// action is the encoded message body including its kind.
func NewOperationEmitted(sessionID, kind string, action interface{}, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeOperationEmitted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"kind":       kind,
			"action":     action,
		},
		OccurredAt: at,
	}
}

// Transcript is the text the speech-to-text worker produced for a recording.
type Transcript struct {
	SessionID   string
	RecordingID string
	Text        string
}

// ParseTranscript reads a TRANSCRIPT_READY payload.
func ParseTranscript(e Event) (Transcript, error) {
	if e.EventType() != TypeTranscriptReady {
		return Transcript{}, fmt.Errorf("unexpected event type %q", e.EventType())
	}
	data := e.Payload()
	t := Transcript{
		SessionID:   stringField(data, "session_id"),
		RecordingID: stringField(data, "recording_id"),
		Text:        stringField(data, "text"),
	}
	if t.SessionID == "" {
		return Transcript{}, fmt.Errorf("transcript without session_id")
	}
	return t, nil
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
