package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bowlards/internal/game"
)

func replay(t *testing.T, userID string, playedAt time.Time, pins ...int) game.Game {
	t.Helper()
	g, err := game.Replay(userID, pins...)
	require.NoError(t, err)
	g.PlayedAt = playedAt
	return g
}

func completed(t *testing.T, userID string, playedAt time.Time, pins ...int) game.Game {
	t.Helper()
	g, err := replay(t, userID, playedAt, pins...).Finish()
	require.NoError(t, err)
	return g
}

func fill(pins, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = pins
	}
	return out
}

// testStore runs the persistence contract against any Store.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

	perfect := completed(t, "alice", base, fill(10, 12)...)
	gutter := completed(t, "alice", base.Add(time.Hour), fill(0, 20)...)
	partial := replay(t, "alice", base.Add(2*time.Hour), 10, 3)
	other := completed(t, "bob", base.Add(3*time.Hour), fill(1, 20)...)

	for _, g := range []game.Game{perfect, gutter, partial, other} {
		_, err := s.Save(ctx, g)
		require.NoError(t, err)
	}

	t.Run("get", func(t *testing.T) {
		got, err := s.Get(ctx, perfect.ID)
		require.NoError(t, err)
		assert.Equal(t, perfect.ID, got.ID)
		assert.Equal(t, "alice", got.UserID)
		assert.Equal(t, game.StatusCompleted, got.Status)
		require.NotNil(t, got.TotalScore)
		assert.Equal(t, 300, *got.TotalScore)
		assert.True(t, got.PlayedAt.Equal(base))
		require.Len(t, got.Frames, game.FrameCount)
		assert.Equal(t, []int{10, 10, 10}, got.Frames[9].Rolls)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("resumes in-progress game", func(t *testing.T) {
		got, err := s.Get(ctx, partial.ID)
		require.NoError(t, err)
		next, err := got.Roll(7)
		require.NoError(t, err)
		assert.Equal(t, 20, *next.Frames[0].Score)
	})

	t.Run("list by user newest first", func(t *testing.T) {
		page, err := s.List(ctx, Filter{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 20, page.Limit)
		require.Len(t, page.Games, 3)
		assert.Equal(t, partial.ID, page.Games[0].ID)
		assert.Equal(t, gutter.ID, page.Games[1].ID)
		assert.Equal(t, perfect.ID, page.Games[2].ID)
	})

	t.Run("list by status with paging", func(t *testing.T) {
		page, err := s.List(ctx, Filter{UserID: "alice", Status: game.StatusCompleted, Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Games, 1)
		assert.Equal(t, perfect.ID, page.Games[0].ID)
	})

	t.Run("list past the end", func(t *testing.T) {
		page, err := s.List(ctx, Filter{UserID: "bob", Offset: 5})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Empty(t, page.Games)
	})

	t.Run("save replaces", func(t *testing.T) {
		next, err := partial.Roll(7)
		require.NoError(t, err)
		_, err = s.Save(ctx, next)
		require.NoError(t, err)

		got, err := s.Get(ctx, partial.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 7}, got.Frames[1].Rolls)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, other.ID))
		_, err := s.Get(ctx, other.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, other.ID), ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryPurgeIdle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	m.now = func() time.Time { return clock }

	stale := replay(t, "alice", start, 10)
	_, err := m.Save(ctx, stale)
	require.NoError(t, err)

	clock = start.Add(2 * time.Hour)
	fresh := replay(t, "alice", clock, 7)
	_, err = m.Save(ctx, fresh)
	require.NoError(t, err)

	assert.Equal(t, 0, m.PurgeIdle(start))
	assert.Equal(t, 1, m.PurgeIdle(start.Add(time.Hour)))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestFilterNormalize(t *testing.T) {
	assert.Equal(t, Filter{Limit: 20}, Filter{}.normalize())
	assert.Equal(t, Filter{Limit: 100}, Filter{Limit: 500, Offset: -3}.normalize())
}
