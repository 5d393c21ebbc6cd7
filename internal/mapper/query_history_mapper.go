package mapper

import (
	"uml-nli-be/internal/model"
	"uml-nli-be/pkg/store"
)

type QueryHistoryMapper struct{}

func NewQueryHistoryMapper() *QueryHistoryMapper {
	return &QueryHistoryMapper{}
}

func (m *QueryHistoryMapper) ToModel(sessionID string, e store.QueryHistoryEntry) *model.QueryHistory {
	return &model.QueryHistory{
		EntryId:    e.ID,
		SessionId:  sessionID,
		Text:       e.Text,
		RecordedAt: e.Timestamp,
	}
}

func (m *QueryHistoryMapper) ToEntry(q *model.QueryHistory) store.QueryHistoryEntry {
	return store.QueryHistoryEntry{
		ID:        q.EntryId,
		Timestamp: q.RecordedAt,
		Text:      q.Text,
	}
}

func (m *QueryHistoryMapper) ToEntries(rows []*model.QueryHistory) []store.QueryHistoryEntry {
	out := make([]store.QueryHistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = m.ToEntry(r)
	}
	return out
}
