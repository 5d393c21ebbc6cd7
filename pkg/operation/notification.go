package operation

import "time"

// NliError is the single user-visible notification produced by a failed cycle.
type NliError struct {
	Message string `json:"message"`
}

type HistoryItem struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ExportHistory hands the session's query history to the host for persistence.
type ExportHistory struct {
	Entries []HistoryItem `json:"entries"`
}

// RequestModelResources asks the host for a fresh model snapshot.
type RequestModelResources struct{}

// StartRecording asks the host to start audio capture under the given id.
type StartRecording struct {
	RecordingID string `json:"recordingId"`
}

type RecordingStatus struct {
	Recording bool `json:"recording"`
}

func (NliError) Kind() string              { return "nliError" }
func (ExportHistory) Kind() string         { return "exportHistory" }
func (RequestModelResources) Kind() string { return "requestModelResources" }
func (StartRecording) Kind() string        { return "startRecording" }
func (RecordingStatus) Kind() string       { return "recordingStatus" }
