// internal/httpserver/routes_games.go
//
// Game endpoints. Every route requires auth and only ever touches games
// owned by the caller; another user's game answers 404.
//
// Lifecycle:
//   - POST /games/create opens a session (in-progress game).
//   - POST /games/{id}/roll records pins into the session.
//   - POST /games/{id}/finish moves the game from sessions to saved games.
//   - POST /games/ uploads an already completed game straight to saved games.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/bowlards/internal/game"
	"github.com/robalobadob/bowlards/internal/store"
)

// mountGameRoutes registers /games/*.
func (s *Server) mountGameRoutes() {
	s.r.Route("/games", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/create", s.handleCreate)
		r.Post("/", s.handleUpload)
		r.Get("/history", s.handleHistory)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/{id}", s.handleGetGame)
		r.Delete("/{id}", s.handleDeleteGame)
		r.Post("/{id}/roll", s.handleRoll)
		r.Post("/{id}/finish", s.handleFinish)
		r.Get("/{id}/frames/{n}", s.handleFrame)
	})
}

// gameLocks serializes mutations of one game. An entry lives only while
// some request holds or waits for it.
type gameLocks struct {
	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	sync.Mutex
	refs int // holders plus waiters; guarded by gameLocks.mu
}

// lock blocks until id is free and returns its release func.
func (l *gameLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*gameLock)
	}
	e, ok := l.locks[id]
	if !ok {
		e = &gameLock{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		l.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many game IDs currently have a lock entry.
func (l *gameLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// load finds a caller-owned game in sessions, then in saved games. live
// reports whether it came from sessions.
func (s *Server) load(ctx context.Context, id, userID string) (g game.Game, live bool, err error) {
	g, err = s.sessions.Get(ctx, id)
	if err == nil {
		live = true
	} else if errors.Is(err, store.ErrNotFound) {
		g, err = s.saved.Get(ctx, id)
	}
	if err != nil {
		return game.Game{}, false, err
	}
	if g.UserID != userID {
		return game.Game{}, false, store.ErrNotFound
	}
	return g, live, nil
}

// handleCreate opens a new in-progress game for the caller.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	g, err := s.sessions.Save(r.Context(), game.New(me.ID))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.metrics.gamesStarted.Inc()
	hlog.FromRequest(r).Info().Str("game", g.ID).Str("user", me.ID).Msg("game created")
	writeCreated(w, viewOf(g))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, _, err := s.load(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, viewOf(g), nil)
}

// rollReq is the body of POST /games/{id}/roll. FrameNumber, when set, must
// name the frame the cursor is on.
type rollReq struct {
	Pins        *int `json:"pins"`
	FrameNumber int  `json:"frameNumber,omitempty"`
}

// handleRoll records one roll into a live game.
func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req rollReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Pins == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "pins is required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	defer s.locks.lock(id)()

	g, live, err := s.load(r.Context(), id, currentUser(r).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !live {
		writeErr(w, r, game.ErrGameCompleted)
		return
	}
	if n, roll, ok := g.Cursor(); ok && req.FrameNumber != 0 && req.FrameNumber != n {
		s.metrics.rolls.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "INVALID_ROLL",
			"frame "+strconv.Itoa(req.FrameNumber)+" is not the current frame",
			map[string]int{"frame": n, "roll": roll})
		return
	}

	next, err := g.Roll(*req.Pins)
	if err != nil {
		s.metrics.rolls.WithLabelValues("rejected").Inc()
		writeErr(w, r, err)
		return
	}
	if next, err = s.sessions.Save(r.Context(), next); err != nil {
		writeErr(w, r, err)
		return
	}
	s.metrics.rolls.WithLabelValues("accepted").Inc()
	writeOK(w, viewOf(next), nil)
}

// frameView is the review payload for one frame.
type frameView struct {
	Frame      wireFrame `json:"frame"`
	Bonus      string    `json:"bonus"`
	CanAdvance bool      `json:"canAdvance"`
	CanGoBack  bool      `json:"canGoBack"`
}

// handleFrame returns one frame for review navigation.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > game.FrameCount {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "frame must be 1-10", nil)
		return
	}
	g, _, err := s.load(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	f, err := g.Frame(n)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, frameView{
		Frame:      toWire(f),
		Bonus:      game.Classify(g.Frames, n-1).String(),
		CanAdvance: g.CanAdvance(n),
		CanGoBack:  n > 1,
	}, nil)
}

// handleFinish completes a live game and moves it to saved games.
func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	defer s.locks.lock(id)()

	g, live, err := s.load(r.Context(), id, currentUser(r).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !live {
		writeErr(w, r, game.ErrGameCompleted)
		return
	}
	done, err := g.Finish()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if done, err = s.saved.Save(r.Context(), done); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		hlog.FromRequest(r).Warn().Err(err).Str("game", id).Msg("drop finished session")
	}
	s.metrics.finished(done.TotalScore)
	hlog.FromRequest(r).Info().Str("game", id).Interface("score", done.TotalScore).Msg("game finished")
	writeOK(w, viewOf(done), nil)
}

// uploadReq is a completed game recorded elsewhere.
type uploadReq struct {
	GameDate   *time.Time  `json:"gameDate"`
	TotalScore *int        `json:"totalScore"`
	Frames     []wireFrame `json:"frames"`
}

// handleUpload validates and stores a completed game. Scores are
// recomputed; a totalScore that disagrees with the frames is rejected.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadReq
	if !decodeJSON(w, r, &req) {
		return
	}
	frames := make([]game.Frame, len(req.Frames))
	for i, wf := range req.Frames {
		f, err := fromWire(wf)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		frames[i] = f
	}
	playedAt := time.Now().UTC()
	if req.GameDate != nil {
		playedAt = req.GameDate.UTC()
	}
	g, err := game.Restore(game.Game{
		ID:       uuid.NewString(),
		UserID:   currentUser(r).ID,
		PlayedAt: playedAt,
		Status:   game.StatusCompleted,
		Frames:   frames,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if req.TotalScore != nil && g.TotalScore != nil && *req.TotalScore != *g.TotalScore {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "totalScore does not match frames",
			map[string]int{"computed": *g.TotalScore})
		return
	}
	if g, err = s.saved.Save(r.Context(), g); err != nil {
		writeErr(w, r, err)
		return
	}
	s.metrics.finished(g.TotalScore)
	writeCreated(w, viewOf(g))
}

// handleHistory pages through the caller's saved games, newest first.
// status=in_progress lists live sessions instead.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{UserID: currentUser(r).ID}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a non-negative integer", nil)
				return
			}
			*dst = n
		}
	}

	src := s.saved
	switch st := game.Status(q.Get("status")); st {
	case "":
	case game.StatusCompleted:
		f.Status = st
	case game.StatusInProgress:
		f.Status, src = st, s.sessions
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "status must be in_progress or completed", nil)
		return
	}

	page, err := src.List(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, viewsOf(page.Games), &pageMeta{
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.Offset+len(page.Games) < page.Total,
	})
}

// handleStatistics aggregates every completed game of the caller.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me := currentUser(r)

	var games []game.Game
	f := store.Filter{UserID: me.ID, Status: game.StatusCompleted, Limit: 100}
	for {
		page, err := s.saved.List(ctx, f)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		games = append(games, page.Games...)
		f.Offset += len(page.Games)
		if len(page.Games) == 0 || f.Offset >= page.Total {
			break
		}
	}
	st := game.Summarize(games)

	live, err := s.sessions.List(ctx, store.Filter{UserID: me.ID, Limit: 1})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	st.TotalGames += live.Total
	writeOK(w, st, nil)
}

// handleDeleteGame removes a game from sessions or saved games.
func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	defer s.locks.lock(id)()

	_, live, err := s.load(r.Context(), id, currentUser(r).ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	src := s.saved
	if live {
		src = s.sessions
	}
	if err := src.Delete(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, map[string]string{"id": id}, nil)
}
