// internal/game/types.go
//
// Core type definitions shared by both game modes.
// Defines:
//   - Feedback: per-letter result of a guess (correct/present/absent).
//   - Guess: one submitted word with its feedback.
//   - Game: state for a single-player puzzle.

package game

import "time"

// Feedback represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is in the target at this position.
//   - "present": letter is in the target at another, not yet credited position.
//   - "absent":  letter has no uncredited occurrence left in the target.
type Feedback string

const (
	Correct Feedback = "correct"
	Present Feedback = "present"
	Absent  Feedback = "absent"
)

// Guess is one row of a single-player board.
type Guess struct {
	Word   string     `json:"word"`
	Result []Feedback `json:"result"`
}

// Game holds the state of a single-player puzzle.
type Game struct {
	ID         string    // Unique game identifier.
	Answer     string    // The solution word (uppercase).
	WordLength int       // Letters per word (4–7).
	Guesses    []Guess   // Guesses made so far, in order.
	MaxGuesses int       // Guess budget for this length.
	Won        bool      // True once the answer was guessed.
	Over       bool      // True once the game is won or the budget is spent.
	CreatedAt  time.Time // Used for expiry by the game store.
}

// Dictionary answers whether a normalized word may be guessed.
type Dictionary interface {
	IsValid(word string) bool
}
