package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/pkg/dispatch"
)

// Host action kinds understood by the bridge.
const (
	ActionSetPropertyPalette     = "setPropertyPalette"
	ActionModelResourcesResponse = "modelResourcesResponse"
	ActionSubmitQuery            = "submitQuery"
	ActionStartRecording         = "startRecording"
	ActionTranscript             = "transcript"
	ActionTextInputReady         = "textInputReady"
)

type hostAction struct {
	Kind string `json:"kind"`

	// setPropertyPalette
	Palette *struct {
		ElementId   string                 `json:"elementId"`
		ElementType string                 `json:"elementType"`
		Label       string                 `json:"label"`
		Items       []interface{}          `json:"items"`
		Properties  map[string]interface{} `json:"properties"`
	} `json:"palette"`

	// modelResourcesResponse
	Resources *struct {
		Uml       json.RawMessage `json:"uml"`
		Unotation json.RawMessage `json:"unotation"`
	} `json:"resources"`

	// submitQuery, transcript
	Text        string `json:"text"`
	RecordingId string `json:"recordingId"`
}

// HostBridge turns action messages read from an editor connection into
// session service calls. Query cycles run off the read loop so the editor
// can keep reporting selection changes while a query is pending.
type HostBridge struct {
	sessions ISessionService
	logger   logger.ILogger
	wg       sync.WaitGroup
}

func NewHostBridge(sessions ISessionService, log logger.ILogger) *HostBridge {
	return &HostBridge{sessions: sessions, logger: log}
}

// HandleAction accepts either {"clientId":..., "action":{...}} or a bare action.
func (b *HostBridge) HandleAction(ctx context.Context, sessionID string, data []byte) {
	action, err := decodeHostAction(data)
	if err != nil {
		b.logger.Warn("HostBridge", "Undecodable host message", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return
	}
	details := map[string]interface{}{"session_id": sessionID, "kind": action.Kind}

	switch action.Kind {
	case ActionSetPropertyPalette:
		req := &dto.UpdateFocusRequest{}
		if p := action.Palette; p != nil {
			req.ElementId = p.ElementId
			req.ElementKind = p.ElementType
			req.Properties = p.Properties
			if req.Properties == nil && p.Label != "" {
				req.Properties = map[string]interface{}{"label": p.Label}
			}
		}
		b.report(details, b.sessions.UpdateFocus(ctx, sessionID, req))

	case ActionModelResourcesResponse:
		if action.Resources == nil || len(action.Resources.Uml) == 0 {
			b.logger.Warn("HostBridge", "Model resources without uml content", details)
			return
		}
		_, err := b.sessions.UpdateSnapshot(ctx, sessionID, &dto.UpdateSnapshotRequest{
			UmlModel:       action.Resources.Uml,
			UnotationModel: action.Resources.Unotation,
		})
		b.report(details, err)

	case ActionSubmitQuery:
		b.async(details, func(ctx context.Context) error {
			_, err := b.sessions.Submit(ctx, sessionID, &dto.SubmitQueryRequest{Text: action.Text})
			return err
		})

	case ActionTranscript:
		b.async(details, func(ctx context.Context) error {
			_, err := b.sessions.SubmitTranscript(ctx, sessionID, &dto.SubmitTranscriptRequest{
				RecordingId: action.RecordingId,
				Text:        action.Text,
			})
			return err
		})

	case ActionStartRecording:
		_, err := b.sessions.StartRecording(ctx, sessionID)
		b.report(details, err)

	case ActionTextInputReady:
		b.report(details, b.sessions.RequestSnapshot(ctx, sessionID))

	default:
		b.logger.Debug("HostBridge", "Ignoring host action", details)
	}
}

// Wait blocks until every query started by the bridge has finished.
func (b *HostBridge) Wait() {
	b.wg.Wait()
}

func (b *HostBridge) async(details map[string]interface{}, run func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.report(details, run(context.Background()))
	}()
}

// report logs failures the host was not already told about. Failed cycles
// have emitted their own nliError notification.
func (b *HostBridge) report(details map[string]interface{}, err error) {
	if err == nil {
		return
	}
	details["error"] = err.Error()
	switch {
	case errors.Is(err, dispatch.ErrQueryInFlight):
		b.logger.Warn("HostBridge", "Query rejected, another one is pending", details)
	case errors.Is(err, dispatch.ErrSessionNotFound):
		b.logger.Warn("HostBridge", "Action for unknown session", details)
	default:
		b.logger.Info("HostBridge", "Host action ended with error", details)
	}
}

func decodeHostAction(data []byte) (*hostAction, error) {
	var envelope struct {
		Action json.RawMessage `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	body := envelope.Action
	if len(body) == 0 {
		body = data
	}
	var action hostAction
	if err := json.Unmarshal(body, &action); err != nil {
		return nil, err
	}
	if action.Kind == "" {
		return nil, errors.New("action without kind")
	}
	return &action, nil
}
