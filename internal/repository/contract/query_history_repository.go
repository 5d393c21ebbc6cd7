package contract

import (
	"context"

	"uml-nli-be/pkg/store"
)

// QueryHistoryRepository stores the append-only query history of a session.
type QueryHistoryRepository interface {
	Append(ctx context.Context, sessionID string, entry store.QueryHistoryEntry) error
	List(ctx context.Context, sessionID string) ([]store.QueryHistoryEntry, error)
}
