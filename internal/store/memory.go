// internal/store/memory.go
//
// In-memory implementation of the Store interface for single-player games.
//
// Characteristics:
//   - Stores *game.Game objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Games expire ttl after CreatedAt: Get hides expired entries and a
//     janitor goroutine deletes them every sweep interval.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garyHu951/wordle-game/internal/game"
)

// ErrNotFound is returned by Get for unknown or expired game IDs.
var ErrNotFound = errors.New("store: game not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or updates a game state.
	Save(ctx context.Context, g *game.Game) error

	// Get retrieves a game by ID.
	// Returns ErrNotFound if the game is unknown or expired.
	Get(ctx context.Context, id string) (*game.Game, error)
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu    sync.RWMutex          // guards games map
	games map[string]*game.Game // keyed by Game.ID
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemoryStore constructs a new in-memory Store whose entries live for ttl.
// A ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *Memory {
	return &Memory{
		games: make(map[string]*game.Game),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
}

// Save adds or updates the game in the map.
func (m *Memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

// Get looks up a game by ID.
func (m *Memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok || m.expired(g) {
		return nil, ErrNotFound
	}
	return g, nil
}

// Len returns the number of stored games, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}

func (m *Memory) expired(g *game.Game) bool {
	return m.ttl > 0 && m.now().Sub(g.CreatedAt) >= m.ttl
}

// Sweep deletes every expired game and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, g := range m.games {
		if m.expired(g) {
			delete(m.games, id)
			n++
		}
	}
	return n
}

// StartJanitor runs Sweep every interval until Stop is called.
func (m *Memory) StartJanitor(interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					log.Debug().Int("evicted", n).Msg("expired solo games removed")
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (m *Memory) Stop() {
	m.once.Do(func() { close(m.stop) })
}
