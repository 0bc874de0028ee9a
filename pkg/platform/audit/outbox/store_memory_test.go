package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendEntry(t *testing.T, store *InMemoryStore, eventType string, createdAt time.Time) *Entry {
	t.Helper()
	entry := NewEntry("credential", "0xabc", eventType, []byte(`{}`))
	entry.CreatedAt = createdAt
	require.NoError(t, store.Append(context.Background(), entry))
	return entry
}

func TestFetchUnprocessedOrdersByCreation(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()

	second := appendEntry(t, store, "second", now.Add(time.Second))
	first := appendEntry(t, store, "first", now)

	pending, err := store.FetchUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}

func TestFetchUnprocessedHonorsLimit(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Now()
	for i := 0; i < 5; i++ {
		appendEntry(t, store, "event", now.Add(time.Duration(i)*time.Second))
	}

	pending, err := store.FetchUnprocessed(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	pending, err = store.FetchUnprocessed(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMarkProcessed(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	entry := appendEntry(t, store, "event", time.Now())

	require.NoError(t, store.MarkProcessed(ctx, entry.ID, time.Now()))

	pending, err := store.FetchUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Marking twice fails: the entry is no longer pending.
	err = store.MarkProcessed(ctx, entry.ID, time.Now())
	assert.Error(t, err)
}

func TestCountPending(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	entry := appendEntry(t, store, "event", time.Now())
	appendEntry(t, store, "event", time.Now())

	count, err = store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.MarkProcessed(ctx, entry.ID, time.Now()))

	count, err = store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteProcessedBefore(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	old := appendEntry(t, store, "old", time.Now().Add(-time.Hour))
	recent := appendEntry(t, store, "recent", time.Now())
	appendEntry(t, store, "pending", time.Now())

	require.NoError(t, store.MarkProcessed(ctx, old.ID, time.Now().Add(-30*time.Minute)))
	require.NoError(t, store.MarkProcessed(ctx, recent.ID, time.Now()))

	deleted, err := store.DeleteProcessedBefore(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// The pending entry is never garbage collected.
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
