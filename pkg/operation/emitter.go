package operation

import (
	"context"
	"encoding/json"
	"fmt"
)

// Emitter delivers messages to the host editor of one session.
type Emitter interface {
	Emit(ctx context.Context, sessionID string, msg Message) error
}

// Envelope is a message addressed to a session.
type Envelope struct {
	SessionID string
	Message   Message
}

// Encode renders a message in the host's action-message format:
// {"clientId": ..., "action": {..., "kind": ...}}.
func Encode(sessionID string, msg Message) ([]byte, error) {
	action, err := EncodeAction(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		ClientID string          `json:"clientId"`
		Action   json.RawMessage `json:"action"`
	}{ClientID: sessionID, Action: action})
}

// EncodeAction renders the message body with its kind discriminator.
func EncodeAction(msg Message) (json.RawMessage, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msg.Kind(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten %s: %w", msg.Kind(), err)
	}
	kind, _ := json.Marshal(msg.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

// ChannelEmitter pushes envelopes onto a channel. The consumer owns the
// receiving side.
type ChannelEmitter struct {
	ch chan Envelope
}

func NewChannelEmitter(buffer int) *ChannelEmitter {
	return &ChannelEmitter{ch: make(chan Envelope, buffer)}
}

func (e *ChannelEmitter) Emit(ctx context.Context, sessionID string, msg Message) error {
	select {
	case e.ch <- Envelope{SessionID: sessionID, Message: msg}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *ChannelEmitter) C() <-chan Envelope {
	return e.ch
}
