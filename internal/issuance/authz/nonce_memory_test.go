package authz

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

func TestNonceStartsAtZero(t *testing.T) {
	store := NewInMemoryNonceStore()

	current, err := store.Current(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), current)
}

func TestConsumeAdvancesByOne(t *testing.T) {
	store := NewInMemoryNonceStore()
	ctx := context.Background()

	for expected := uint64(0); expected < 5; expected++ {
		require.NoError(t, store.Consume(ctx, testRecipient, expected))

		current, err := store.Current(ctx, testRecipient)
		require.NoError(t, err)
		assert.Equal(t, expected+1, current)
	}
}

func TestConsumeRejectsStaleNonce(t *testing.T) {
	store := NewInMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, store.Consume(ctx, testRecipient, 0))

	// Replaying the consumed nonce fails and does not advance the counter.
	err := store.Consume(ctx, testRecipient, 0)
	assert.ErrorIs(t, err, sentinel.ErrStaleNonce)

	err = store.Consume(ctx, testRecipient, 5)
	assert.ErrorIs(t, err, sentinel.ErrStaleNonce)

	current, err := store.Current(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), current)
}

func TestConsumeIsPerHolder(t *testing.T) {
	store := NewInMemoryNonceStore()
	ctx := context.Background()
	other := id.Address("0xffffffffffffffffffffffffffffffffffffffff")

	require.NoError(t, store.Consume(ctx, testRecipient, 0))

	current, err := store.Current(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), current, "other holders are unaffected")
}

func TestConcurrentConsumeAdmitsExactlyOne(t *testing.T) {
	store := NewInMemoryNonceStore()
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Consume(ctx, testRecipient, 0); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load(), "exactly one consumer may win the nonce")

	current, err := store.Current(ctx, testRecipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), current)
}
