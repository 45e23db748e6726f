// internal/store/store.go
//
// Persistence contract for bowling games.
// Two implementations live in this package:
//   - memory: in-progress sessions held while a player is recording.
//   - SQLite: durable storage of games handed over on completion.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/bowlards/internal/game"
)

// ErrNotFound is returned when no game exists for an ID.
var ErrNotFound = errors.New("game not found")

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Store defines the persistence interface for games.
type Store interface {
	// Save persists or replaces a game and returns the stored value.
	Save(ctx context.Context, g game.Game) (game.Game, error)

	// Get retrieves a game by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (game.Game, error)

	// List returns one page of games matching f, newest first.
	List(ctx context.Context, f Filter) (Page, error)

	// Delete removes a game by ID, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Filter selects games for List. Zero fields match everything.
type Filter struct {
	UserID string
	Status game.Status
	Limit  int // 1..100, defaults to 20
	Offset int
}

// Page is one slice of a List result.
type Page struct {
	Games  []game.Game `json:"games"`
	Total  int         `json:"total"` // matches before pagination
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// normalize clamps Limit and Offset into range.
func (f Filter) normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) match(g game.Game) bool {
	if f.UserID != "" && g.UserID != f.UserID {
		return false
	}
	if f.Status != "" && g.Status != f.Status {
		return false
	}
	return true
}
