package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyHu951/wordle-game/internal/game"
)

func TestMemory_SaveGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Hour)

	g := game.New("CRATE")
	require.NoError(t, m.Save(ctx, g))

	got, err := m.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	_, err = m.Get(ctx, "game_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(24 * time.Hour)
	clock := time.Now()
	m.now = func() time.Time { return clock }

	fresh := game.New("CRATE")
	fresh.CreatedAt = clock.Add(-time.Hour)
	old := game.New("CRANE")
	old.CreatedAt = clock.Add(-25 * time.Hour)
	require.NoError(t, m.Save(ctx, fresh))
	require.NoError(t, m.Save(ctx, old))

	_, err := m.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound, "expired games are hidden before the sweep")
	assert.Equal(t, 2, m.Len())

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemory_NoTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)
	g := game.New("CRATE")
	g.CreatedAt = time.Now().Add(-1000 * time.Hour)
	require.NoError(t, m.Save(ctx, g))

	assert.Zero(t, m.Sweep())
	_, err := m.Get(ctx, g.ID)
	assert.NoError(t, err)
}

func TestMemory_Janitor(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(10 * time.Millisecond)
	defer m.Stop()

	require.NoError(t, m.Save(ctx, game.New("CRATE")))
	m.StartJanitor(5 * time.Millisecond)

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()
}
