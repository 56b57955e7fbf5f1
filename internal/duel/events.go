package duel

import (
	"context"
	"time"

	"github.com/garyHu951/wordle-game/internal/game"
)

// Outbound event names. Inbound names live in the gateway.
const (
	EventRoomCreated      = "room_created"
	EventErrorMessage     = "error_message"
	EventGameStart        = "game_start"
	EventNewRound         = "new_round"
	EventGuessResult      = "guess_result"
	EventGuessError       = "guess_error"
	EventOpponentWonRound = "opponent_won_round"
	EventRoundWinner      = "round_winner"
	EventGameOver         = "game_over"
	EventPlayerLeft       = "player_left"
	EventCurrentAnswer    = "current_answer"
)

// Event is one outbound notification. It marshals to the wire envelope
// {"event": ..., "data": ...}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Notifier delivers events to a single connection. Send is called while a
// room lock is held and must not block.
type Notifier interface {
	Send(connID string, ev Event)
}

// WordSource is the part of the word store a room needs.
type WordSource interface {
	PickRandom(length int) string
	IsValid(word string) bool
}

// PlayerView is the public projection of a room member.
type PlayerView struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	Name  string `json:"name"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type GameStart struct {
	WordLength int                   `json:"wordLength"`
	Players    map[string]PlayerView `json:"players"`
}

type NewRound struct {
	MyRound         int `json:"myRound"`
	OpponentRound   int `json:"opponentRound"`
	PotentialPoints int `json:"potentialPoints"`
}

type GuessResult struct {
	Guess     string          `json:"guess"`
	Result    []game.Feedback `json:"result"`
	IsCorrect bool            `json:"isCorrect"`
	GameOver  bool            `json:"gameOver"`
}

type OpponentWonRound struct {
	OpponentName string `json:"opponentName"`
	Word         string `json:"word"`
	Points       int    `json:"points"`
}

type RoundWinner struct {
	WinnerID       string                `json:"winnerId"`
	Word           string                `json:"word"`
	Points         int                   `json:"points"`
	UpdatedPlayers map[string]PlayerView `json:"updatedPlayers"`
}

type GameOver struct {
	Players map[string]PlayerView `json:"players"`
	Winner  string                `json:"winner"`
}

type PlayerLeft struct {
	Message string `json:"message"`
}

type CurrentAnswer struct {
	Word  string `json:"word"`
	Round int    `json:"round"`
}

// MatchRecord summarizes a completed match for the history log.
type MatchRecord struct {
	RoomCode   string
	WordLength int
	Players    []PlayerView
	Rounds     map[string]int // rounds started per connection
	Winner     string         // connection id or "draw"
	StartedAt  time.Time
	EndedAt    time.Time
}

// Recorder persists completed matches. Calls are best-effort.
type Recorder interface {
	RecordMatch(ctx context.Context, m MatchRecord) error
}
