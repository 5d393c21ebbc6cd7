package service

import (
	"context"

	"uml-nli-be/internal/dto"
	"uml-nli-be/internal/mapper"
	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/internal/repository/specification"
)

// IOperationLogService reads the audit trail of messages sent to editors.
type IOperationLogService interface {
	List(ctx context.Context, sessionID string, req *dto.ListOperationLogsRequest) (*dto.OperationLogPageResponse, error)
}

type operationLogService struct {
	repo contract.OperationLogRepository
}

func NewOperationLogService(repo contract.OperationLogRepository) IOperationLogService {
	return &operationLogService{repo: repo}
}

func (s *operationLogService) List(ctx context.Context, sessionID string, req *dto.ListOperationLogsRequest) (*dto.OperationLogPageResponse, error) {
	filters := []specification.Specification{specification.BySession{SessionID: sessionID}}
	if req.Kind != "" {
		filters = append(filters, specification.ByKind{Kind: req.Kind})
	}

	total, err := s.repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: req.PageSize, Offset: (req.Page - 1) * req.PageSize},
	)
	rows, err := s.repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.OperationLogResponse, len(rows))
	for i, row := range rows {
		items[i] = mapper.LogToResponse(row)
	}
	return &dto.OperationLogPageResponse{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
