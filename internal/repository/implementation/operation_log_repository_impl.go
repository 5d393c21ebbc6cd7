package implementation

import (
	"context"

	"uml-nli-be/internal/model"
	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/internal/repository/specification"

	"gorm.io/gorm"
)

type OperationLogRepositoryImpl struct {
	db *gorm.DB
}

func NewOperationLogRepository(db *gorm.DB) contract.OperationLogRepository {
	return &OperationLogRepositoryImpl{db: db}
}

func (r *OperationLogRepositoryImpl) Create(ctx context.Context, entry *model.OperationLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *OperationLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*model.OperationLog, error) {
	var rows []*model.OperationLog
	query := r.db.WithContext(ctx).Scopes(specification.Scopes(specs...)...)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OperationLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.OperationLog{}).Scopes(specification.Scopes(specs...)...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
