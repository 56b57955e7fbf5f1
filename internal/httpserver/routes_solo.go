// internal/httpserver/routes_solo.go
//
// HTTP routes for single-player mode.
//   - GET  /api/words/{length}     → the full word list for a length
//   - POST /api/game/new           → start a game ({length}, default 5)
//   - POST /api/game/{id}/guess    → submit a guess
//
// Games live in the in-memory store; a finished game is appended to the
// history log when one is configured.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/garyHu951/wordle-game/internal/game"
	"github.com/garyHu951/wordle-game/internal/store"
	"github.com/garyHu951/wordle-game/internal/words"
)

const defaultLength = 5

// mountSolo registers the single-player routes on r.
func (s *Server) mountSolo(r chi.Router) {
	r.Get("/words/{length}", s.handleWords)
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/{id}/guess", s.handleGuess)
	})
}

// -----------------------------------------------------------------------------
// /api/words/{length}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "length"))
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid word length")
		return
	}
	list, err := s.words.WordsOfLength(n)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid word length")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "words": list})
}

// -----------------------------------------------------------------------------
// /api/game/new

// lengthParam accepts 5, "5" or nothing.
type lengthParam int

func (l *lengthParam) UnmarshalJSON(b []byte) error {
	n, err := strconv.Atoi(strings.Trim(string(b), `"`))
	if err != nil {
		*l = 0
		return nil
	}
	*l = lengthParam(n)
	return nil
}

type newGameReq struct {
	Length lengthParam `json:"length"`
}

type newGameRes struct {
	Success    bool   `json:"success"`
	GameID     string `json:"gameId"`
	WordLength int    `json:"wordLength"`
	MaxGuesses int    `json:"maxGuesses"`
}

// handleNewGame creates a game; unsupported or missing lengths fall back to 5.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	length := int(req.Length)
	if !words.Supported(length) {
		length = defaultLength
	}

	g := game.New(s.words.PickRandom(length))
	if err := s.games.Save(r.Context(), g); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save game")
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}
	hlog.FromRequest(r).Debug().Str("game", g.ID).Int("length", length).Msg("solo game created")

	writeJSON(w, http.StatusOK, newGameRes{
		Success:    true,
		GameID:     g.ID,
		WordLength: g.WordLength,
		MaxGuesses: g.MaxGuesses,
	})
}

// -----------------------------------------------------------------------------
// /api/game/{id}/guess

type guessReq struct {
	Guess string `json:"guess"`
}

type guessRes struct {
	Success          bool            `json:"success"`
	Result           []game.Feedback `json:"result"`
	Guesses          []game.Guess    `json:"guesses"`
	GameOver         bool            `json:"gameOver"`
	Won              bool            `json:"won"`
	Answer           *string         `json:"answer"`
	RemainingGuesses int             `json:"remainingGuesses"`
	Message          string          `json:"message"`
}

// handleGuess applies a guess and, when the game ends, records it.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	s.guessMu.Lock()
	defer s.guessMu.Unlock()

	g, err := s.games.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, http.StatusNotFound, "Game not found")
			return
		}
		fail(w, http.StatusInternalServerError, "load_failed")
		return
	}

	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "bad_json")
		return
	}

	result, err := g.ApplyGuess(req.Guess, s.words)
	switch {
	case errors.Is(err, game.ErrGameOver):
		fail(w, http.StatusConflict, "Game is already over")
		return
	case errors.Is(err, game.ErrNotInWordList):
		fail(w, http.StatusBadRequest, "Not in word list!")
		return
	case errors.Is(err, game.ErrInvalidGuess):
		fail(w, http.StatusBadRequest, "Guess must be "+strconv.Itoa(g.WordLength)+" letters")
		return
	case err != nil:
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.games.Save(r.Context(), g); err != nil {
		fail(w, http.StatusInternalServerError, "save_failed")
		return
	}

	res := guessRes{
		Success:          true,
		Result:           result,
		Guesses:          g.Guesses,
		GameOver:         g.Over,
		Won:              g.Won,
		RemainingGuesses: g.Remaining(),
	}
	if g.Over {
		answer := g.Answer
		res.Answer = &answer
		s.recordSolo(g)
	}
	if g.Won {
		res.Message = "You Won!"
	}
	writeJSON(w, http.StatusOK, res)
}

// recordSolo appends a finished game to the history log without blocking the
// response.
func (s *Server) recordSolo(g *game.Game) {
	if s.history == nil {
		return
	}
	snapshot := *g
	snapshot.Guesses = append([]game.Guess(nil), g.Guesses...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.RecordSolo(ctx, &snapshot); err != nil {
			log.Warn().Err(err).Str("game", snapshot.ID).Msg("record solo game")
		}
	}()
}
