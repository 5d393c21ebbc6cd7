package service

import (
	"context"
	"encoding/json"
	"time"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/pkg/dispatch"
	"uml-nli-be/pkg/operation"
	"uml-nli-be/pkg/store"

	"github.com/google/uuid"
)

// SessionArena owns the in-memory sessions.
type SessionArena interface {
	LoadOrCreate(sessionID string) (*store.Session, bool)
	Get(sessionID string) (*store.Session, bool)
	Count() int
}

type ConnectionChecker interface {
	Connected(sessionID string) bool
}

type ServiceProbe interface {
	Ping(ctx context.Context, timeout time.Duration) bool
	BaseURL() string
}

type ISessionService interface {
	Create(ctx context.Context) (*dto.CreateSessionResponse, error)
	Connect(sessionID string)
	Show(ctx context.Context, sessionID string) (*dto.ShowSessionResponse, error)
	Close(ctx context.Context, sessionID string) error
	Submit(ctx context.Context, sessionID string, req *dto.SubmitQueryRequest) (*dto.QueryOutcomeResponse, error)
	SubmitTranscript(ctx context.Context, sessionID string, req *dto.SubmitTranscriptRequest) (*dto.QueryOutcomeResponse, error)
	Resubmit(ctx context.Context, sessionID, entryID string) (*dto.QueryOutcomeResponse, error)
	StartRecording(ctx context.Context, sessionID string) (*dto.StartRecordingResponse, error)
	UpdateFocus(ctx context.Context, sessionID string, req *dto.UpdateFocusRequest) error
	UpdateSnapshot(ctx context.Context, sessionID string, req *dto.UpdateSnapshotRequest) (*dto.SnapshotResponse, error)
	RequestSnapshot(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID, pattern string) ([]dto.HistoryEntryResponse, error)
	Navigation(ctx context.Context, sessionID string) ([]dto.NavigationStepResponse, error)
	Health(ctx context.Context, timeout time.Duration) *dto.HealthResponse
}

type sessionService struct {
	dispatcher  *dispatch.Dispatcher
	sessions    SessionArena
	connections ConnectionChecker
	probe       ServiceProbe
	logger      logger.ILogger
}

func NewSessionService(
	dispatcher *dispatch.Dispatcher,
	sessions SessionArena,
	connections ConnectionChecker,
	probe ServiceProbe,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		dispatcher:  dispatcher,
		sessions:    sessions,
		connections: connections,
		probe:       probe,
		logger:      log,
	}
}

func (s *sessionService) Create(ctx context.Context) (*dto.CreateSessionResponse, error) {
	sess, _ := s.sessions.LoadOrCreate(uuid.NewString())
	s.logger.Info("SessionService", "Session created", map[string]interface{}{"session_id": sess.ID})
	return &dto.CreateSessionResponse{SessionId: sess.ID, CreatedAt: sess.CreatedAt}, nil
}

// Connect makes sure an editor connecting with its own id has a session.
func (s *sessionService) Connect(sessionID string) {
	if _, created := s.sessions.LoadOrCreate(sessionID); created {
		s.logger.Info("SessionService", "Session opened by editor", map[string]interface{}{"session_id": sessionID})
	}
}

func (s *sessionService) Show(ctx context.Context, sessionID string) (*dto.ShowSessionResponse, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, dispatch.ErrSessionNotFound
	}
	steps, err := s.dispatcher.Navigation(sessionID)
	if err != nil {
		return nil, err
	}

	res := &dto.ShowSessionResponse{
		SessionId:        sess.ID,
		CreatedAt:        sess.CreatedAt,
		Recording:        sess.Recording(),
		Focus:            sess.Focus(),
		PendingQuery:     sess.Pending(),
		NavigationLength: len(steps),
	}
	if s.connections != nil {
		res.Connected = s.connections.Connected(sessionID)
	}
	if snap := sess.Snapshot(); snap != nil {
		res.SnapshotRevision = snap.Revision
	}
	return res, nil
}

func (s *sessionService) Close(ctx context.Context, sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return dispatch.ErrSessionNotFound
	}
	s.dispatcher.CloseSession(sessionID)
	return nil
}

func (s *sessionService) Submit(ctx context.Context, sessionID string, req *dto.SubmitQueryRequest) (*dto.QueryOutcomeResponse, error) {
	out, err := s.dispatcher.Submit(ctx, sessionID, req.Text)
	return toOutcomeResponse(out), err
}

func (s *sessionService) SubmitTranscript(ctx context.Context, sessionID string, req *dto.SubmitTranscriptRequest) (*dto.QueryOutcomeResponse, error) {
	out, err := s.dispatcher.SubmitTranscript(ctx, sessionID, req.RecordingId, req.Text)
	return toOutcomeResponse(out), err
}

func (s *sessionService) Resubmit(ctx context.Context, sessionID, entryID string) (*dto.QueryOutcomeResponse, error) {
	out, err := s.dispatcher.Resubmit(ctx, sessionID, entryID)
	return toOutcomeResponse(out), err
}

func (s *sessionService) StartRecording(ctx context.Context, sessionID string) (*dto.StartRecordingResponse, error) {
	id, err := s.dispatcher.StartRecording(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.StartRecordingResponse{RecordingId: id}, nil
}

func (s *sessionService) UpdateFocus(ctx context.Context, sessionID string, req *dto.UpdateFocusRequest) error {
	return s.dispatcher.ObserveFocus(sessionID, &store.FocusState{
		ElementID:   req.ElementId,
		ElementKind: req.ElementKind,
		Properties:  req.Properties,
	})
}

func (s *sessionService) UpdateSnapshot(ctx context.Context, sessionID string, req *dto.UpdateSnapshotRequest) (*dto.SnapshotResponse, error) {
	snap, err := s.dispatcher.ObserveSnapshot(sessionID, store.ModelSnapshot{
		UML:       req.UmlModel,
		Unotation: req.UnotationModel,
	})
	if err != nil {
		return nil, err
	}
	return &dto.SnapshotResponse{Revision: snap.Revision, ReceivedAt: snap.ReceivedAt}, nil
}

func (s *sessionService) RequestSnapshot(ctx context.Context, sessionID string) error {
	return s.dispatcher.RequestSnapshot(ctx, sessionID)
}

func (s *sessionService) History(ctx context.Context, sessionID, pattern string) ([]dto.HistoryEntryResponse, error) {
	entries, err := s.dispatcher.History(ctx, sessionID, pattern)
	if err != nil {
		return nil, err
	}
	res := make([]dto.HistoryEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = dto.HistoryEntryResponse{Id: e.ID, Timestamp: e.Timestamp, Text: e.Text}
	}
	return res, nil
}

func (s *sessionService) Navigation(ctx context.Context, sessionID string) ([]dto.NavigationStepResponse, error) {
	steps, err := s.dispatcher.Navigation(sessionID)
	if err != nil {
		return nil, err
	}
	res := make([]dto.NavigationStepResponse, len(steps))
	for i, st := range steps {
		res[i] = dto.NavigationStepResponse{From: st.From, To: st.To}
	}
	return res, nil
}

func (s *sessionService) Health(ctx context.Context, timeout time.Duration) *dto.HealthResponse {
	return &dto.HealthResponse{
		NliServerUrl: s.probe.BaseURL(),
		NliReady:     s.probe.Ping(ctx, timeout),
		Sessions:     s.sessions.Count(),
	}
}

func toOutcomeResponse(out *dispatch.Outcome) *dto.QueryOutcomeResponse {
	if out == nil {
		return nil
	}
	res := &dto.QueryOutcomeResponse{
		QueryId:    out.QueryID,
		Intent:     out.Intent,
		States:     make([]string, len(out.States)),
		Operations: make([]json.RawMessage, 0, len(out.Operations)),
		ErrorKind:  string(out.ErrorKind),
	}
	for i, st := range out.States {
		res.States[i] = st.String()
	}
	for _, op := range out.Operations {
		if raw, err := operation.EncodeAction(op); err == nil {
			res.Operations = append(res.Operations, raw)
		}
	}
	return res
}
