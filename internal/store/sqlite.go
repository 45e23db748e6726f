// internal/store/sqlite.go
//
// SQLite-backed Store for saved games.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Storing games as one row each, frames encoded as JSON.
//   - Purging games past their retention period.
//
// Every game read back goes through game.Restore, so a corrupted row surfaces
// as *game.InvariantViolation instead of a wrong score.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bowlards/assets"
	"github.com/robalobadob/bowlards/internal/game"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z"

var _ Store = (*SQLite)(nil)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db        *sql.DB
	retention time.Duration // zero keeps games forever
	now       func() time.Time
}

// OpenSQLite opens (and creates if missing) the database at dsn and applies
// migrations. Games expire retention after they are first saved.
func OpenSQLite(dsn string, retention time.Duration) (*SQLite, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, retention: retention, now: time.Now}, nil
}

// DB exposes the handle so the user directory can share the database.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

// openDB ensures the parent directory exists for relative DSNs
// (e.g. ./data/bowlards.db) and configures busy timeout and WAL journaling.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies embedded SQL migrations in lexical order, each inside its
// own transaction. Already-applied files are skipped.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	migrations, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, m.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", m.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		log.Info().Str("migration", m.Name).Msg("applied")
	}
	return nil
}

// Save inserts the game or replaces the stored rolls, status and score.
// The expiry is fixed when the game is first inserted.
func (s *SQLite) Save(ctx context.Context, g game.Game) (game.Game, error) {
	frames, err := json.Marshal(g.Frames)
	if err != nil {
		return game.Game{}, fmt.Errorf("encode frames: %w", err)
	}
	now := s.now().UTC()
	var expire any
	if s.retention > 0 {
		expire = now.Add(s.retention).Format(timeLayout)
	}
	var total any
	if g.TotalScore != nil {
		total = *g.TotalScore
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (id, user_id, status, total_score, played_at, frames, created_at, updated_at, expire_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status      = excluded.status,
            total_score = excluded.total_score,
            frames      = excluded.frames,
            updated_at  = excluded.updated_at`,
		g.ID, g.UserID, string(g.Status), total, g.PlayedAt.UTC().Format(timeLayout),
		string(frames), now.Format(timeLayout), now.Format(timeLayout), expire,
	)
	if err != nil {
		return game.Game{}, fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return g, nil
}

// Get loads and restores a game by ID.
func (s *SQLite) Get(ctx context.Context, id string) (game.Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, played_at, frames FROM games WHERE id=?`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Game{}, ErrNotFound
	}
	if err != nil {
		return game.Game{}, fmt.Errorf("load game %s: %w", id, err)
	}
	return g, nil
}

// List returns games matching f ordered by played_at DESC.
func (s *SQLite) List(ctx context.Context, f Filter) (Page, error) {
	f = f.normalize()

	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(f.Status))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := Page{Games: []game.Game{}, Limit: f.Limit, Offset: f.Offset}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games`+clause, args...).Scan(&page.Total); err != nil {
		return Page{}, fmt.Errorf("count games: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, status, played_at, frames FROM games`+clause+
			` ORDER BY played_at DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...,
	)
	if err != nil {
		return Page{}, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return Page{}, err
		}
		page.Games = append(page.Games, g)
	}
	return page, rows.Err()
}

// Delete removes a game by ID.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired deletes games whose expiry is before now and reports how many
// were removed.
func (s *SQLite) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM games WHERE expire_at IS NOT NULL AND expire_at < ?`,
		now.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purge games: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (game.Game, error) {
	var (
		g        game.Game
		status   string
		playedAt string
		frames   string
	)
	if err := row.Scan(&g.ID, &g.UserID, &status, &playedAt, &frames); err != nil {
		return game.Game{}, err
	}
	g.Status = game.Status(status)
	t, err := time.Parse(timeLayout, playedAt)
	if err != nil {
		return game.Game{}, fmt.Errorf("parse played_at %q: %w", playedAt, err)
	}
	g.PlayedAt = t
	if err := json.Unmarshal([]byte(frames), &g.Frames); err != nil {
		return game.Game{}, fmt.Errorf("decode frames of %s: %w", g.ID, err)
	}
	return game.Restore(g)
}
