// internal/httpserver/server.go
//
// HTTP server wiring for the wordle-game backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, JSON, CORS).
//   - Public endpoints: "/", "/api/health".
//   - Single-player endpoints under /api (words, game/new, game/{id}/guess).
//   - Live and historical statistics: /api/stats.
//   - Competitive mode WebSocket upgrade: /ws.
//
// Notes:
//   - CORS is origin-aware (CLIENT_ORIGIN) and credentials-enabled.
//   - The handler timeout applies to the REST group only; /ws connections are
//     long-lived.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/garyHu951/wordle-game/internal/duel"
	"github.com/garyHu951/wordle-game/internal/game"
	"github.com/garyHu951/wordle-game/internal/history"
	"github.com/garyHu951/wordle-game/internal/store"
)

// WordStore is the word-list surface the REST handlers use.
type WordStore interface {
	WordsOfLength(n int) ([]string, error)
	PickRandom(n int) string
	IsValid(word string) bool
}

// History is the optional statistics log.
type History interface {
	RecordSolo(ctx context.Context, g *game.Game) error
	Summary(ctx context.Context) (history.Summary, error)
	RecentMatches(ctx context.Context, limit int) ([]history.MatchRow, error)
}

// RoomStats reports live competitive-mode counters.
type RoomStats interface {
	Stats() duel.Stats
}

// Deps are the collaborators a Server routes to. History may be nil.
type Deps struct {
	Words        WordStore
	Games        store.Store
	History      History
	Rooms        RoomStats
	WS           http.Handler
	ClientOrigin string
}

// Server bundles the router and its collaborators.
type Server struct {
	r       *chi.Mux
	words   WordStore
	games   store.Store
	history History
	rooms   RoomStats

	// guessMu serializes guesses; the store hands out shared *game.Game values.
	guessMu sync.Mutex
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		words:   d.Words,
		games:   d.Games,
		history: d.History,
		rooms:   d.Rooms,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger)) // request-scoped logger
	s.r.Use(accessLog)                   // one line per request
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(cors(d.ClientOrigin))        // credentials-friendly CORS

	// --- competitive mode ---
	if d.WS != nil {
		s.r.Handle("/ws", d.WS)
	}

	// --- REST ---
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"wordle-game","endpoints":["/api/health","/api/words/{length}","POST /api/game/new","POST /api/game/{id}/guess","/api/stats","/ws"]}`))
		})
		r.Route("/api", func(r chi.Router) {
			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			})
			s.mountSolo(r)
			r.Get("/stats", s.handleStats)
		})
	})
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (used by main and tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// accessLog writes one structured line per request through the hlog logger.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// fail writes the {success:false, error} body used by every REST error.
func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// ------------------------------ STATS --------------------------------------

type statsRes struct {
	duel.Stats
	history.Summary
	RecentMatches []history.MatchRow `json:"recentMatches"`
}

// handleStats merges live room counters with the history log.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res := statsRes{RecentMatches: []history.MatchRow{}}
	if s.rooms != nil {
		res.Stats = s.rooms.Stats()
	}
	if s.history != nil {
		sum, err := s.history.Summary(r.Context())
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("history summary")
		}
		res.Summary = sum
		if recent, err := s.history.RecentMatches(r.Context(), 10); err == nil {
			res.RecentMatches = recent
		} else {
			hlog.FromRequest(r).Warn().Err(err).Msg("recent matches")
		}
	}
	writeJSON(w, http.StatusOK, res)
}
