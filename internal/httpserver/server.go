// internal/httpserver/server.go
//
// HTTP server wiring for the bowling score backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access logs, per-client rate limiting).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Auth endpoints: /auth/*.
//   - Game endpoints (require auth): mounted under /games.
//
// Notes:
//   - In-progress games live in the session store; a game moves to the saved
//     store when the player finishes it.
//   - All JSON bodies use the {success, data, error, meta} envelope.

package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bowlards/internal/auth"
	"github.com/robalobadob/bowlards/internal/config"
	"github.com/robalobadob/bowlards/internal/store"
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Config   config.Config
	Sessions store.Store // in-progress games
	Saved    store.Store // finished and uploaded games
	Users    *auth.Directory
	Registry *prometheus.Registry
}

// Server bundles router, stores and user directory.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	sessions store.Store
	saved    store.Store
	users    *auth.Directory
	metrics  *metrics
	locks    gameLocks
	limiter  *rateLimiter
	http     *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      d.Config,
		sessions: d.Sessions,
		saved:    d.Saved,
		users:    d.Users,
		metrics:  newMetrics(reg),
		limiter:  newRateLimiter(d.Config.RateLimitCalls, d.Config.RateLimitPeriod),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(chimw.RequestSize(maxBodyBytes)) // bound request bodies
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFor(s.cfg.ClientOrigin))     // credentials-friendly CORS
	s.r.Use(s.limiter.middleware)            // per-client request budget

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]any{
			"message":   "Scoring Bowlards API",
			"endpoints": []string{"/health", "/auth/*", "/games/*"},
		}, nil)
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{"status": "healthy"}, nil)
	})
	s.r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.mountAuthRoutes()
	s.mountGameRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path, nil)
	})
	return s
}

// Start begins serving HTTP on addr and blocks until Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// idlePurger is implemented by session stores that can drop abandoned games.
type idlePurger interface {
	PurgeIdle(cutoff time.Time) int
}

// Sweep drops sessions idle longer than the configured TTL and forgets
// rate-limit state for clients quiet for a full period.
func (s *Server) Sweep(now time.Time) {
	if p, ok := s.sessions.(idlePurger); ok && s.cfg.SessionIdleTTL > 0 {
		if n := p.PurgeIdle(now.Add(-s.cfg.SessionIdleTTL)); n > 0 {
			log.Info().Int("sessions", n).Msg("dropped idle sessions")
		}
	}
	if n := s.limiter.sweep(now.Add(-s.cfg.RateLimitPeriod)); n > 0 {
		log.Debug().Int("clients", n).Msg("forgot idle rate-limit clients")
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }
