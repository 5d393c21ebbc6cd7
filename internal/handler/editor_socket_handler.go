package handler

import (
	"time"

	"uml-nli-be/internal/pkg/logger"
	"uml-nli-be/internal/pkg/serverutils"
	"uml-nli-be/internal/service"
	internalWS "uml-nli-be/internal/websocket"
	"uml-nli-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EditorSocketHandler upgrades editor connections and lets developers inject
// transcripts onto the bus.
type EditorSocketHandler struct {
	sessions  service.ISessionService
	publisher service.EventPublisher
	hub       *internalWS.Hub
	logger    logger.ILogger
	debug     bool
}

func NewEditorSocketHandler(sessions service.ISessionService, pub service.EventPublisher, hub *internalWS.Hub, log logger.ILogger, debug bool) *EditorSocketHandler {
	return &EditorSocketHandler{
		sessions:  sessions,
		publisher: pub,
		hub:       hub,
		logger:    log,
		debug:     debug,
	}
}

func (h *EditorSocketHandler) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	r.Get("/nli/v1/ws/:id", guard, h.ServeWs)
	if h.debug && h.publisher != nil {
		r.Post("/nli/v1/debug/transcripts", guard, h.DebugPublishTranscript)
	}
}

// ServeWs attaches the editor to the session named in the path, creating the
// session on first contact.
func (h *EditorSocketHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing session id")
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	h.sessions.Connect(sessionID)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("EditorSocketHandler", "Starting editor connection", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("EditorSocketHandler", "Editor connection ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

type debugTranscriptRequest struct {
	SessionId   string `json:"session_id" validate:"required"`
	RecordingId string `json:"recording_id"`
	Text        string `json:"text"`
}

// DebugPublishTranscript plays the speech-to-text worker.
func (h *EditorSocketHandler) DebugPublishTranscript(c *fiber.Ctx) error {
	var req debugTranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	event := events.BaseEvent{
		Type: events.TypeTranscriptReady,
		Data: map[string]interface{}{
			"session_id":   req.SessionId,
			"recording_id": req.RecordingId,
			"text":         req.Text,
		},
		OccurredAt: time.Now(),
	}
	if err := h.publisher.Publish(c.UserContext(), event); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Transcript published", nil))
}
