package store

import (
	"encoding/json"
	"sync"
	"time"
)

// ElementRef identifies a diagram element.
type ElementRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind,omitempty"`
}

// FocusState is the currently selected element as reported by the editor.
type FocusState struct {
	ElementID   string                 `json:"element_id"`
	ElementKind string                 `json:"element_kind"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// Ref returns the focused element as an ElementRef.
func (f *FocusState) Ref() ElementRef {
	return ElementRef{ID: f.ElementID, Kind: f.ElementKind}
}

// ModelSnapshot is the diagram document content last received from the editor.
// Both parts are forwarded verbatim to the classification service.
type ModelSnapshot struct {
	UML        json.RawMessage `json:"uml_model"`
	Unotation  json.RawMessage `json:"unotation_model"`
	Revision   int             `json:"revision"`
	ReceivedAt time.Time       `json:"received_at"`
}

// PendingQuery is the single in-flight unit of work of a session.
type PendingQuery struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// QueryHistoryEntry records one submission attempt.
type QueryHistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Session represents one connected editor view in memory.
// All accessors are safe for concurrent use; a session's state is never
// shared with another session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	focus     *FocusState
	snapshot  *ModelSnapshot
	pending   *PendingQuery
	recording bool
}

func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now}
}

// BeginQuery claims the pending slot. It returns false when a query is
// already in flight; the caller must then reject the submission.
func (s *Session) BeginQuery(p PendingQuery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return false
	}
	s.pending = &p
	return true
}

// EndQuery releases the pending slot.
func (s *Session) EndQuery() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) Pending() *PendingQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// Focus returns a copy of the focus state, or nil when nothing is selected.
func (s *Session) Focus() *FocusState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus == nil {
		return nil
	}
	f := *s.focus
	return &f
}

func (s *Session) SetFocus(f *FocusState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == nil {
		s.focus = nil
		return
	}
	cp := *f
	s.focus = &cp
}

func (s *Session) Snapshot() *ModelSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// SetSnapshot stores a new snapshot and stamps it with the next revision.
func (s *Session) SetSnapshot(m ModelSnapshot) *ModelSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil {
		m.Revision = s.snapshot.Revision + 1
	} else {
		m.Revision = 1
	}
	s.snapshot = &m
	return s.snapshot
}

func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Session) SetRecording(on bool) {
	s.mu.Lock()
	s.recording = on
	s.mu.Unlock()
}
