// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds games while they are being recorded; state is lost when the process
// restarts.
//
// Characteristics:
//   - Stores game.Game snapshots keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Concurrent saves of the same game are last-write-wins.
//   - PurgeIdle drops sessions nobody has saved to since a cutoff.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/bowlards/internal/game"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu      sync.RWMutex         // guards games and touched
	games   map[string]game.Game // keyed by Game.ID
	touched map[string]time.Time // last Save per ID
	now     func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{
		games:   make(map[string]game.Game),
		touched: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Save adds or replaces the game in the map.
func (m *Memory) Save(ctx context.Context, g game.Game) (game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	m.touched[g.ID] = m.now()
	return g, nil
}

// Get looks up a game by ID.
func (m *Memory) Get(ctx context.Context, id string) (game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g, nil
	}
	return game.Game{}, ErrNotFound
}

// List filters, sorts by PlayedAt (newest first) and paginates.
func (m *Memory) List(ctx context.Context, f Filter) (Page, error) {
	f = f.normalize()

	m.mu.RLock()
	var all []game.Game
	for _, g := range m.games {
		if f.match(g) {
			all = append(all, g)
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].PlayedAt.After(all[j].PlayedAt) })

	page := Page{Games: []game.Game{}, Total: len(all), Limit: f.Limit, Offset: f.Offset}
	if f.Offset < len(all) {
		end := min(f.Offset+f.Limit, len(all))
		page.Games = all[f.Offset:end]
	}
	return page, nil
}

// Delete removes a game by ID.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	delete(m.touched, id)
	return nil
}

// PurgeIdle removes games last saved before cutoff and reports how many
// were removed.
func (m *Memory) PurgeIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, at := range m.touched {
		if at.Before(cutoff) {
			delete(m.games, id)
			delete(m.touched, id)
			n++
		}
	}
	return n
}

// Len reports how many games are held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
