package implementation

import (
	"context"

	"uml-nli-be/internal/mapper"
	"uml-nli-be/internal/model"
	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/internal/repository/scope"
	"uml-nli-be/pkg/store"

	"gorm.io/gorm"
)

type QueryHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.QueryHistoryMapper
}

func NewQueryHistoryRepository(db *gorm.DB) contract.QueryHistoryRepository {
	return &QueryHistoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewQueryHistoryMapper(),
	}
}

func (r *QueryHistoryRepositoryImpl) Append(ctx context.Context, sessionID string, entry store.QueryHistoryEntry) error {
	return r.db.WithContext(ctx).Create(r.mapper.ToModel(sessionID, entry)).Error
}

func (r *QueryHistoryRepositoryImpl) List(ctx context.Context, sessionID string) ([]store.QueryHistoryEntry, error) {
	var rows []*model.QueryHistory
	err := r.db.WithContext(ctx).
		Scopes(scope.OrderByRecordedAsc).
		Where("session_id = ?", sessionID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntries(rows), nil
}
