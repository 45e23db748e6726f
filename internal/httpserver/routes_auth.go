package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/bowlards/internal/auth"
	"github.com/robalobadob/bowlards/internal/store"
)

// ctxUserKey is the context key used to store the authenticated user.
type ctxUserKey struct{}

// credentials is the body of signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeOK(w, currentUser(r), nil)
		})
		r.Put("/auth/me", s.handleUpdateMe)
		r.Delete("/auth/me", s.handleDeleteMe)
	})
}

// handleSignup creates a new user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeErr(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	hlog.FromRequest(r).Info().Str("user", u.ID).Msg("signup")
	writeCreated(w, u)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeOK(w, u, nil)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setAuthCookie(w, "", time.Unix(0, 0))
	writeOK(w, map[string]bool{"ok": true}, nil)
}

// handleUpdateMe sets the caller's display name and photo URL.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var body auth.Profile
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := auth.ValidateProfile(body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	u, err := s.users.UpdateProfile(r.Context(), currentUser(r).ID, body)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, u, nil)
}

// handleDeleteMe removes the caller's games, then the account, and clears
// the auth cookie.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	deleted := 0
	for _, src := range []store.Store{s.sessions, s.saved} {
		n, err := deleteGamesOf(r.Context(), src, me.ID)
		deleted += n
		if err != nil {
			writeErr(w, r, err)
			return
		}
	}
	if err := s.users.Delete(r.Context(), me.ID); err != nil {
		writeErr(w, r, err)
		return
	}
	s.setAuthCookie(w, "", time.Unix(0, 0))
	hlog.FromRequest(r).Info().Str("user", me.ID).Int("games", deleted).Msg("account deleted")
	writeOK(w, map[string]int{"deletedGames": deleted}, nil)
}

// deleteGamesOf deletes every game userID owns in src, a page at a time.
func deleteGamesOf(ctx context.Context, src store.Store, userID string) (int, error) {
	n := 0
	for {
		page, err := src.List(ctx, store.Filter{UserID: userID, Limit: 100})
		if err != nil {
			return n, err
		}
		if len(page.Games) == 0 {
			return n, nil
		}
		for _, g := range page.Games {
			if err := src.Delete(ctx, g.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return n, err
			}
			n++
		}
	}
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.users.Sign(u)
	if err != nil {
		writeErr(w, r, err)
		return false
	}
	s.setAuthCookie(w, tok, exp)
	return true
}

// setAuthCookie writes the auth token cookie. An expiry in the past clears it.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	}
	if token == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// requireAuth rejects requests without a valid bearer token or cookie and
// stores the user in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := auth.BearerOrCookie(r, s.cfg.CookieName)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		u, err := s.users.Verify(r.Context(), tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user placed by requireAuth.
func currentUser(r *http.Request) *auth.User {
	u, _ := r.Context().Value(ctxUserKey{}).(*auth.User)
	return u
}
