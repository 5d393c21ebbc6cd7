package contract

import (
	"context"

	"uml-nli-be/internal/model"
	"uml-nli-be/internal/repository/specification"
)

type OperationLogRepository interface {
	Create(ctx context.Context, entry *model.OperationLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.OperationLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
