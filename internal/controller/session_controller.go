package controller

import (
	"time"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/pkg/serverutils"
	"uml-nli-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Health(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	SubmitTranscript(ctx *fiber.Ctx) error
	Resubmit(ctx *fiber.Ctx) error
	StartRecording(ctx *fiber.Ctx) error
	UpdateFocus(ctx *fiber.Ctx) error
	UpdateSnapshot(ctx *fiber.Ctx) error
	RequestSnapshot(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Navigation(ctx *fiber.Ctx) error
}

type sessionController struct {
	service     service.ISessionService
	pingTimeout time.Duration
}

func NewSessionController(service service.ISessionService, pingTimeout time.Duration) ISessionController {
	return &sessionController{service: service, pingTimeout: pingTimeout}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/nli/v1")
	h.Get("/health", c.Health)

	s := h.Group("/sessions", guard)
	s.Post("", c.Create)
	s.Get("/:id", c.Show)
	s.Delete("/:id", c.Close)
	s.Post("/:id/queries", c.Submit)
	s.Post("/:id/queries/:entryId/resubmit", c.Resubmit)
	s.Post("/:id/recordings", c.StartRecording)
	s.Post("/:id/transcripts", c.SubmitTranscript)
	s.Put("/:id/focus", c.UpdateFocus)
	s.Put("/:id/snapshot", c.UpdateSnapshot)
	s.Post("/:id/snapshot/request", c.RequestSnapshot)
	s.Get("/:id/history", c.History)
	s.Get("/:id/navigation", c.Navigation)
}

func (c *sessionController) Health(ctx *fiber.Ctx) error {
	res := c.service.Health(ctx.Context(), c.pingTimeout)
	if !res.NliReady {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponseWithData(fiber.StatusServiceUnavailable, "NLI server not ready", res))
	}
	return ctx.JSON(serverutils.SuccessResponse("NLI server ready", res))
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res, err := c.service.Create(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) Close(ctx *fiber.Ctx) error {
	if err := c.service.Close(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close session", nil))
}

func (c *sessionController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.Context(), ctx.Params("id"), &req)
	return c.outcome(ctx, "Query processed", res, err)
}

func (c *sessionController) SubmitTranscript(ctx *fiber.Ctx) error {
	var req dto.SubmitTranscriptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SubmitTranscript(ctx.Context(), ctx.Params("id"), &req)
	return c.outcome(ctx, "Transcript processed", res, err)
}

func (c *sessionController) Resubmit(ctx *fiber.Ctx) error {
	res, err := c.service.Resubmit(ctx.Context(), ctx.Params("id"), ctx.Params("entryId"))
	return c.outcome(ctx, "Query processed", res, err)
}

// outcome renders a query cycle. A cycle that ran and failed still returns
// its outcome next to the mapped status.
func (c *sessionController) outcome(ctx *fiber.Ctx, message string, res *dto.QueryOutcomeResponse, err error) error {
	if err != nil {
		if res == nil {
			return err
		}
		status := serverutils.StatusFor(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponseWithData(status, err.Error(), res))
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *sessionController) StartRecording(ctx *fiber.Ctx) error {
	res, err := c.service.StartRecording(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Recording started", res))
}

func (c *sessionController) UpdateFocus(ctx *fiber.Ctx) error {
	var req dto.UpdateFocusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := c.service.UpdateFocus(ctx.Context(), ctx.Params("id"), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update focus", nil))
}

func (c *sessionController) UpdateSnapshot(ctx *fiber.Ctx) error {
	var req dto.UpdateSnapshotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateSnapshot(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update snapshot", res))
}

func (c *sessionController) RequestSnapshot(ctx *fiber.Ctx) error {
	if err := c.service.RequestSnapshot(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Snapshot requested", nil))
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	res, err := c.service.History(ctx.Context(), ctx.Params("id"), ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *sessionController) Navigation(ctx *fiber.Ctx) error {
	res, err := c.service.Navigation(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get navigation", res))
}
