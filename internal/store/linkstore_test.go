package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLinkStore(t *testing.T) (*LinkStore, *miniredis.Miniredis, *clockwork.FakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	engine, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	return NewLinkStore(engine, clock, zerolog.Nop()), mr, clock
}

func TestLinkStorePutGet(t *testing.T) {
	ls, _, clock := setupLinkStore(t)
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 7))

	record, err := ls.Get(ctx, 42, "https://a.com/x")
	require.NoError(t, err)
	assert.Equal(t, 7, record.MessageID)
	assert.True(t, record.CreatedAt.Equal(clock.Now()))
	assert.True(t, record.LastSeenAt.Equal(clock.Now()))
	assert.Empty(t, record.Reactions)
}

func TestLinkStoreGetMissing(t *testing.T) {
	ls, _, _ := setupLinkStore(t)

	_, err := ls.Get(context.Background(), 42, "https://a.com/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkStoreAtMostOneRecord(t *testing.T) {
	ls, _, _ := setupLinkStore(t)
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 1))
	require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 2))

	count, err := ls.Count(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	record, err := ls.Get(ctx, 42, "https://a.com/x")
	require.NoError(t, err)
	assert.Equal(t, 2, record.MessageID, "later write wins")
}

func TestLinkStoreChatsAreIsolated(t *testing.T) {
	ls, _, _ := setupLinkStore(t)
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 1, "https://a.com/x", 1))

	_, err := ls.Get(ctx, 2, "https://a.com/x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkStoreDeleteMany(t *testing.T) {
	ls, _, _ := setupLinkStore(t)
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 1))
	require.NoError(t, ls.Put(ctx, 42, "https://b.com/y", 2))
	require.NoError(t, ls.Put(ctx, 42, "https://c.com/z", 3))

	require.NoError(t, ls.DeleteMany(ctx, 42, []string{"https://a.com/x", "https://c.com/z"}))

	records, err := ls.ListAll(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Contains(t, records, "https://b.com/y")

	// Empty batch is a no-op.
	assert.NoError(t, ls.DeleteMany(ctx, 42, nil))
}

func TestLinkStoreAddReaction(t *testing.T) {
	ls, _, _ := setupLinkStore(t)
	ctx := context.Background()

	t.Run("missing record returns false", func(t *testing.T) {
		added, err := ls.AddReaction(ctx, 42, "https://nope.com", ReactionLike, 100, "alice")
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("vote recorded and idempotent per user", func(t *testing.T) {
		require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 1))

		added, err := ls.AddReaction(ctx, 42, "https://a.com/x", ReactionLike, 100, "alice")
		require.NoError(t, err)
		assert.True(t, added)

		// Repeat vote by the same user for the same kind overwrites.
		added, err = ls.AddReaction(ctx, 42, "https://a.com/x", ReactionLike, 100, "alice-renamed")
		require.NoError(t, err)
		assert.True(t, added)

		record, err := ls.Get(ctx, 42, "https://a.com/x")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"100": "alice-renamed"}, record.Voters(ReactionLike))
	})

	t.Run("kinds accumulate independently", func(t *testing.T) {
		_, err := ls.AddReaction(ctx, 42, "https://a.com/x", ReactionThumbsUp, 200, "bob")
		require.NoError(t, err)

		record, err := ls.Get(ctx, 42, "https://a.com/x")
		require.NoError(t, err)
		assert.Len(t, record.Voters(ReactionLike), 1)
		assert.Equal(t, map[string]string{"200": "bob"}, record.Voters(ReactionThumbsUp))
	})
}

func TestLinkStoreListAllSkipsMalformed(t *testing.T) {
	ls, mr, _ := setupLinkStore(t)
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 42, "https://a.com/x", 1))
	mr.HSet("chat:42:links", "https://poison.com", "{not json")

	records, err := ls.ListAll(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Contains(t, records, "https://a.com/x")
}

func TestLinkStoreCounter(t *testing.T) {
	ls, _, _ := setupLinkStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := ls.IncrCounter(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	require.NoError(t, ls.ResetCounter(ctx, 42))
	n, err := ls.IncrCounter(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLinkStoreDegradedMode(t *testing.T) {
	ls := NewLinkStore(nil, clockwork.NewFakeClock(), zerolog.Nop())
	ctx := context.Background()

	assert.False(t, ls.Available())

	_, err := ls.Get(ctx, 1, "https://a.com")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, ls.Put(ctx, 1, "https://a.com", 1), ErrUnavailable)
	_, err = ls.ListAll(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = ls.Count(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, ls.DeleteMany(ctx, 1, []string{"x"}), ErrUnavailable)
	_, err = ls.AddReaction(ctx, 1, "https://a.com", ReactionLike, 1, "a")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = ls.IncrCounter(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, ls.ResetCounter(ctx, 1), ErrUnavailable)
}
