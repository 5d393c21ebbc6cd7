package memory

import (
	"context"
	"sync"
	"time"

	"uml-nli-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type QueryHistoryRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewQueryHistoryRepository(ttl time.Duration) *QueryHistoryRepository {
	return &QueryHistoryRepository{cache: cache.New(ttl, 10*time.Minute)}
}

func (r *QueryHistoryRepository) Append(_ context.Context, sessionID string, entry store.QueryHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []store.QueryHistoryEntry
	if x, found := r.cache.Get(sessionID); found {
		entries = x.([]store.QueryHistoryEntry)
	}
	next := make([]store.QueryHistoryEntry, len(entries), len(entries)+1)
	copy(next, entries)
	r.cache.Set(sessionID, append(next, entry), cache.DefaultExpiration)
	return nil
}

func (r *QueryHistoryRepository) List(_ context.Context, sessionID string) ([]store.QueryHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(sessionID)
	if !found {
		return []store.QueryHistoryEntry{}, nil
	}
	entries := x.([]store.QueryHistoryEntry)
	out := make([]store.QueryHistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}
