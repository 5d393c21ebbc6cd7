package controller

import (
	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/pkg/serverutils"
	"uml-nli-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultOperationPageSize = 50

type IOperationLogController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	List(ctx *fiber.Ctx) error
}

type operationLogController struct {
	service service.IOperationLogService
}

func NewOperationLogController(service service.IOperationLogService) IOperationLogController {
	return &operationLogController{service: service}
}

func (c *operationLogController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	r.Get("/nli/v1/sessions/:id/operations", guard, c.List)
}

func (c *operationLogController) List(ctx *fiber.Ctx) error {
	req := dto.ListOperationLogsRequest{Page: 1, PageSize: defaultOperationPageSize}
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get operations", res))
}
