package retention

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkpatrol/linkpatrol/internal/store"
)

func setup(t *testing.T) (*store.LinkStore, *clockwork.FakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	engine, err := store.NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	return store.NewLinkStore(engine, clock, zerolog.Nop()), clock
}

func TestSweepRunsExactlyAtThreshold(t *testing.T) {
	ls, clock := setup(t)
	sweeper := New(ls, DefaultThreshold, DefaultWindow, clock, zerolog.Nop())
	ctx := context.Background()

	const chatID = int64(42)

	// An old record, then advance past the retention window and add a young one.
	require.NoError(t, ls.Put(ctx, chatID, "https://old.com/a", 1))
	clock.Advance(DefaultWindow + time.Hour)
	require.NoError(t, ls.Put(ctx, chatID, "https://young.com/b", 2))

	// One message short of the threshold: nothing is swept.
	for i := 0; i < DefaultThreshold-1; i++ {
		sweeper.MaybeSweep(ctx, chatID)
	}
	records, err := ls.ListAll(ctx, chatID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// The threshold message triggers exactly one sweep.
	sweeper.MaybeSweep(ctx, chatID)
	records, err = ls.ListAll(ctx, chatID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Contains(t, records, "https://young.com/b")
}

func TestSweepCounterResets(t *testing.T) {
	ls, clock := setup(t)
	sweeper := New(ls, 3, DefaultWindow, clock, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 1, "https://old.com/a", 1))
	clock.Advance(DefaultWindow + time.Hour)

	sweeper.MaybeSweep(ctx, 1)
	sweeper.MaybeSweep(ctx, 1)
	sweeper.MaybeSweep(ctx, 1) // sweep fires here, counter resets

	require.NoError(t, ls.Put(ctx, 1, "https://fresh.com/b", 2))
	clock.Advance(DefaultWindow + time.Hour)

	// Two more messages stay below the reset counter's threshold.
	sweeper.MaybeSweep(ctx, 1)
	sweeper.MaybeSweep(ctx, 1)
	records, err := ls.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, records, "https://fresh.com/b")

	sweeper.MaybeSweep(ctx, 1)
	records, err = ls.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepBoundary(t *testing.T) {
	ls, clock := setup(t)
	sweeper := New(ls, 1, DefaultWindow, clock, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 1, "https://exact.com", 1))
	clock.Advance(DefaultWindow) // age == window is not expired yet

	sweeper.MaybeSweep(ctx, 1)
	records, err := ls.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, records, "https://exact.com")

	clock.Advance(time.Second)
	sweeper.MaybeSweep(ctx, 1)
	records, err = ls.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepDegradedModeIsNoop(t *testing.T) {
	ls := store.NewLinkStore(nil, clockwork.NewFakeClock(), zerolog.Nop())
	sweeper := New(ls, 1, DefaultWindow, clockwork.NewFakeClock(), zerolog.Nop())

	// Must not panic or error; retention is simply inert without storage.
	sweeper.MaybeSweep(context.Background(), 1)
}

func TestSweepersAreChatScoped(t *testing.T) {
	ls, clock := setup(t)
	sweeper := New(ls, 2, DefaultWindow, clock, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, ls.Put(ctx, 1, "https://old.com/a", 1))
	require.NoError(t, ls.Put(ctx, 2, "https://old.com/a", 1))
	clock.Advance(DefaultWindow + time.Hour)

	// Chat 1 reaches its threshold; chat 2 does not.
	sweeper.MaybeSweep(ctx, 1)
	sweeper.MaybeSweep(ctx, 1)
	sweeper.MaybeSweep(ctx, 2)

	records1, err := ls.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, records1)

	records2, err := ls.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records2, 1)
}
