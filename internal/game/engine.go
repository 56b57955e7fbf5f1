// internal/game/engine.go
//
// Guess evaluation and the single-player game engine.
// Responsibilities:
//   - Evaluate a guess against a target with the two-pass Wordle algorithm.
//   - Create single-player games with a per-length guess budget.
//   - Validate and apply guesses (length, dictionary), tracking won/over.
//
// Notes:
//   - Evaluate is shared with competitive mode (internal/duel).
//   - Words are uppercase throughout; callers normalize input with Normalize.
package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGameOver      = errors.New("game over")
	ErrInvalidGuess  = errors.New("invalid guess")
	ErrNotInWordList = errors.New("not in word list")
)

// maxGuessesByLength is the single-player guess budget per word length.
var maxGuessesByLength = map[int]int{4: 4, 5: 6, 6: 8, 7: 10}

// MaxGuessesFor returns the single-player guess budget for a word length.
func MaxGuessesFor(length int) int {
	if n, ok := maxGuessesByLength[length]; ok {
		return n
	}
	return 6
}

// Normalize uppercases and trims raw guess input.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// New constructs a single-player game for answer.
func New(answer string) *Game {
	answer = Normalize(answer)
	return &Game{
		ID:         "game_" + uuid.NewString(),
		Answer:     answer,
		WordLength: len(answer),
		Guesses:    []Guess{},
		MaxGuesses: MaxGuessesFor(len(answer)),
		CreatedAt:  time.Now(),
	}
}

// ApplyGuess validates and scores a guess, mutating the game state.
//
// Validation rules:
//   - Game must not be over.
//   - Guess must have exactly WordLength letters.
//   - Guess must be in dict.
//
// State transitions:
//   - Guess equals the answer → Won, Over.
//   - Else if the number of guesses reaches MaxGuesses → Over (loss).
func (g *Game) ApplyGuess(raw string, dict Dictionary) ([]Feedback, error) {
	if g.Over {
		return nil, ErrGameOver
	}
	guess := Normalize(raw)
	if len(guess) != g.WordLength {
		return nil, fmt.Errorf("%w: want %d letters", ErrInvalidGuess, g.WordLength)
	}
	if !dict.IsValid(guess) {
		return nil, ErrNotInWordList
	}

	result := Evaluate(guess, g.Answer)
	g.Guesses = append(g.Guesses, Guess{Word: guess, Result: result})

	if guess == g.Answer {
		g.Won, g.Over = true, true
	} else if len(g.Guesses) >= g.MaxGuesses {
		g.Over = true
	}
	return result, nil
}

// Remaining reports how many guesses are left.
func (g *Game) Remaining() int {
	return g.MaxGuesses - len(g.Guesses)
}

// State reports a coarse string representation of the game state.
func (g *Game) State() string {
	if g.Over {
		if g.Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

// Evaluate implements the two-pass Wordle feedback algorithm.
//
// Pass 1:
//   - Mark exact matches Correct and consume that target position.
//
// Pass 2:
//   - For each unmarked position, find the leftmost unconsumed target position
//     holding the same letter. If found mark Present and consume it,
//     otherwise mark Absent.
//
// A repeated guess letter is therefore credited at most as many times as it
// occurs in the target. guess and target must have the same length; a
// mismatch is a programming error and panics.
func Evaluate(guess, target string) []Feedback {
	if len(guess) != len(target) {
		panic(fmt.Sprintf("game.Evaluate: length mismatch %d != %d", len(guess), len(target)))
	}
	n := len(guess)
	res := make([]Feedback, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			res[i] = Correct
			used[i] = true
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == Correct {
			continue
		}
		res[i] = Absent
		for j := 0; j < n; j++ {
			if !used[j] && target[j] == guess[i] {
				res[i] = Present
				used[j] = true
				break
			}
		}
	}
	return res
}
