package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MonotonicFromBaseline(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(SeqQuotation, 4500)

	peeked, err := store.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), peeked)

	var prev int64 = 4500
	for i := 0; i < 10; i++ {
		n, err := store.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		assert.Equal(t, prev+1, n)
		prev = n
	}
}

func TestMemoryStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	state := map[string]int64{}

	store := NewMemoryStoreWithState(SeqQuotation, 4500, state)
	first, err := store.Next(ctx)
	require.NoError(t, err)

	// A second store over the same durable state is a simulated restart.
	restarted := NewMemoryStoreWithState(SeqQuotation, 4500, state)
	peeked, err := restarted.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, peeked)

	second, err := restarted.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestMemoryStore_PeekDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(SeqSalesOrder, 100)

	_, err := store.Next(ctx)
	require.NoError(t, err)

	p1, err := store.Peek(ctx)
	require.NoError(t, err)
	p2, err := store.Peek(ctx)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
