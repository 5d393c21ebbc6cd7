package dto

import (
	"encoding/json"
	"time"

	"uml-nli-be/pkg/store"
)

type CreateSessionResponse struct {
	SessionId string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ShowSessionResponse struct {
	SessionId        string              `json:"session_id"`
	CreatedAt        time.Time           `json:"created_at"`
	Connected        bool                `json:"connected"`
	Recording        bool                `json:"recording"`
	Focus            *store.FocusState   `json:"focus"`
	SnapshotRevision int                 `json:"snapshot_revision"`
	PendingQuery     *store.PendingQuery `json:"pending_query"`
	NavigationLength int                 `json:"navigation_length"`
}

type SubmitQueryRequest struct {
	// Empty text is accepted and reported as an InputEmpty cycle.
	Text string `json:"text" validate:"max=4000"`
}

type SubmitTranscriptRequest struct {
	RecordingId string `json:"recording_id"`
	Text        string `json:"text" validate:"max=4000"`
}

type QueryOutcomeResponse struct {
	QueryId    string            `json:"query_id"`
	Intent     string            `json:"intent,omitempty"`
	States     []string          `json:"states"`
	Operations []json.RawMessage `json:"operations"`
	ErrorKind  string            `json:"error_kind,omitempty"`
}

type StartRecordingResponse struct {
	RecordingId string `json:"recording_id"`
}

type UpdateFocusRequest struct {
	ElementId   string                 `json:"element_id"`
	ElementKind string                 `json:"element_kind"`
	Properties  map[string]interface{} `json:"properties"`
}

type UpdateSnapshotRequest struct {
	UmlModel       json.RawMessage `json:"uml_model" validate:"required"`
	UnotationModel json.RawMessage `json:"unotation_model"`
}

type SnapshotResponse struct {
	Revision   int       `json:"revision"`
	ReceivedAt time.Time `json:"received_at"`
}

type HistoryEntryResponse struct {
	Id        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

type NavigationStepResponse struct {
	From *store.ElementRef `json:"from,omitempty"`
	To   store.ElementRef  `json:"to"`
}

type HealthResponse struct {
	NliServerUrl string `json:"nli_server_url"`
	NliReady     bool   `json:"nli_ready"`
	Sessions     int    `json:"sessions"`
}
