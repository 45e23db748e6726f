package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bowlards/internal/game"
)

func openTestSQLite(t *testing.T, retention time.Duration) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "test.db"), retention)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	testStore(t, openTestSQLite(t, 0))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestSQLite(t, 0)
	require.NoError(t, Migrate(s.DB()))

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLiteRejectsCorruptFrames(t *testing.T) {
	s := openTestSQLite(t, 0)
	ctx := context.Background()

	g := completed(t, "alice", time.Now(), fill(0, 20)...)
	_, err := s.Save(ctx, g)
	require.NoError(t, err)

	_, err = s.DB().Exec(`UPDATE games SET frames=? WHERE id=?`,
		`[{"frameNumber":1,"rolls":[9,9],"isCompleted":true}]`, g.ID)
	require.NoError(t, err)

	_, err = s.Get(ctx, g.ID)
	var iv *game.InvariantViolation
	require.True(t, errors.As(err, &iv), "got %v", err)
}

func TestPurgeExpired(t *testing.T) {
	s := openTestSQLite(t, 90*24*time.Hour)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	old := completed(t, "alice", start, fill(0, 20)...)
	_, err := s.Save(ctx, old)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(60 * 24 * time.Hour) }
	recent := completed(t, "alice", s.now(), fill(1, 20)...)
	_, err = s.Save(ctx, recent)
	require.NoError(t, err)

	n, err := s.PurgeExpired(ctx, start.Add(100*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, recent.ID)
	assert.NoError(t, err)
}
