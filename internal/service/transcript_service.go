package service

import (
	"context"
	"errors"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/pkg/dispatch"
	"uml-nli-be/pkg/events"
	pktNats "uml-nli-be/pkg/nats"
)

const transcriptDurable = "nli-transcripts"

type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// TranscriptService submits transcripts produced by the speech-to-text worker.
type TranscriptService struct {
	subscriber EventSubscriber
	sessions   ISessionService
	logger     logger.ILogger
}

func NewTranscriptService(sub EventSubscriber, sessions ISessionService, log logger.ILogger) *TranscriptService {
	return &TranscriptService{
		subscriber: sub,
		sessions:   sessions,
		logger:     log,
	}
}

func (s *TranscriptService) Start(ctx context.Context) error {
	if err := s.subscriber.Subscribe(ctx, events.TypeTranscriptReady, transcriptDurable, s.handleEvent); err != nil {
		s.logger.Error("TranscriptService", "Failed to start transcript subscriber", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("TranscriptService", "Listening for transcripts", nil)
	return nil
}

// handleEvent returns an error only when redelivery can help: the session is
// busy with another query.
func (s *TranscriptService) handleEvent(ctx context.Context, event events.Event) error {
	t, err := events.ParseTranscript(event)
	if err != nil {
		s.logger.Warn("TranscriptService", "Dropping malformed transcript", map[string]interface{}{"error": err.Error()})
		return nil
	}
	details := map[string]interface{}{"session_id": t.SessionID, "recording_id": t.RecordingID}

	_, err = s.sessions.SubmitTranscript(ctx, t.SessionID, &dto.SubmitTranscriptRequest{
		RecordingId: t.RecordingID,
		Text:        t.Text,
	})
	switch {
	case err == nil:
		s.logger.Info("TranscriptService", "Transcript submitted", details)
	case errors.Is(err, dispatch.ErrQueryInFlight):
		return err
	case errors.Is(err, dispatch.ErrSessionNotFound):
		s.logger.Warn("TranscriptService", "Transcript for unknown session", details)
	default:
		details["error"] = err.Error()
		s.logger.Info("TranscriptService", "Transcript cycle failed", details)
	}
	return nil
}
