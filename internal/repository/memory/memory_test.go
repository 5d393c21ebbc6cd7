package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"uml-nli-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_LoadOrCreate(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	first, created := repo.LoadOrCreate("s-1")
	assert.True(t, created)

	again, created := repo.LoadOrCreate("s-1")
	assert.False(t, created)
	assert.Same(t, first, again)

	got, ok := repo.Get("s-1")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_ConcurrentLoadOrCreate(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	var wg sync.WaitGroup
	sessions := make([]*store.Session, 20)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = repo.LoadOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
}

func TestSessionRepository_DeleteFiresEviction(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	var evicted []string
	repo.OnEvicted(func(id string) { evicted = append(evicted, id) })

	repo.LoadOrCreate("s-1")
	repo.Delete("s-1")

	_, ok := repo.Get("s-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"s-1"}, evicted)
}

func TestQueryHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQueryHistoryRepository(time.Hour)

	empty, err := repo.List(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Append(ctx, "s-1", store.QueryHistoryEntry{ID: "1", Text: "create class A"}))
	require.NoError(t, repo.Append(ctx, "s-1", store.QueryHistoryEntry{ID: "2", Text: "undo"}))
	require.NoError(t, repo.Append(ctx, "s-2", store.QueryHistoryEntry{ID: "3", Text: "other"}))

	got, err := repo.List(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)

	got[0].Text = "mutated"
	again, _ := repo.List(ctx, "s-1")
	assert.Equal(t, "create class A", again[0].Text)
}

func TestSessionRepository_LookupsRenewTTL(t *testing.T) {
	repo := NewSessionRepository(100 * time.Millisecond)
	repo.LoadOrCreate("s-1")

	// well past the TTL in total, but never idle for longer than it
	for i := 0; i < 8; i++ {
		time.Sleep(30 * time.Millisecond)
		_, ok := repo.Get("s-1")
		require.True(t, ok, "session expired after %d lookups", i+1)
	}

	time.Sleep(150 * time.Millisecond)
	_, ok := repo.Get("s-1")
	assert.False(t, ok)
}

func TestSessionRepository_HeldSessionDoesNotExpire(t *testing.T) {
	repo := NewSessionRepository(50 * time.Millisecond)
	repo.LoadOrCreate("s-1")
	require.True(t, repo.Hold("s-1"))
	assert.False(t, repo.Hold("missing"))

	time.Sleep(120 * time.Millisecond)
	_, ok := repo.Get("s-1")
	require.True(t, ok)

	repo.Release("s-1")
	time.Sleep(120 * time.Millisecond)
	_, ok = repo.Get("s-1")
	assert.False(t, ok)
}

func TestSessionRepository_DeleteDropsHold(t *testing.T) {
	repo := NewSessionRepository(50 * time.Millisecond)
	repo.LoadOrCreate("s-1")
	require.True(t, repo.Hold("s-1"))

	repo.Delete("s-1")
	repo.LoadOrCreate("s-1")

	time.Sleep(120 * time.Millisecond)
	_, ok := repo.Get("s-1")
	assert.False(t, ok)
}
