package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyHu951/wordle-game/internal/duel"
	"github.com/garyHu951/wordle-game/internal/game"
)

// Store appends finished matches and solo games to SQLite and answers the
// aggregate queries behind GET /api/stats.
type Store struct{ db *sql.DB }

// Open opens the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RecordMatch stores a completed match and its players.
func (s *Store) RecordMatch(ctx context.Context, m duel.MatchRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO matches (room_code, word_length, winner, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.RoomCode, m.WordLength, m.Winner, stamp(m.StartedAt), stamp(m.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, p := range m.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_players (match_id, conn_id, name, score, rounds) VALUES (?, ?, ?, ?, ?)`,
			id, p.ID, p.Name, p.Score, m.Rounds[p.ID],
		); err != nil {
			return fmt.Errorf("insert match player: %w", err)
		}
	}
	return tx.Commit()
}

// RecordSolo stores a finished single-player game. Recording the same game
// twice is a no-op.
func (s *Store) RecordSolo(ctx context.Context, g *game.Game) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO solo_games (id, word_length, answer, guesses, won, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.WordLength, g.Answer, len(g.Guesses), g.Won, stamp(g.CreatedAt), stamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert solo game: %w", err)
	}
	return nil
}

// Summary holds the all-time counters.
type Summary struct {
	Matches   int `json:"matches"`
	SoloGames int `json:"soloGames"`
	SoloWins  int `json:"soloWins"`
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM matches`).Scan(&out.Matches); err != nil {
		return out, err
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(won), 0) FROM solo_games`,
	).Scan(&out.SoloGames, &out.SoloWins)
	return out, err
}

// MatchRow is one entry of RecentMatches.
type MatchRow struct {
	RoomCode   string            `json:"roomCode"`
	WordLength int               `json:"wordLength"`
	Winner     string            `json:"winner"`
	EndedAt    string            `json:"endedAt"`
	Players    []duel.PlayerView `json:"players"`
}

// RecentMatches returns the latest matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_code, word_length, winner, ended_at
		 FROM matches ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	out := make([]MatchRow, 0, limit)
	for rows.Next() {
		var id int64
		var m MatchRow
		if err := rows.Scan(&id, &m.RoomCode, &m.WordLength, &m.Winner, &m.EndedAt); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		players, err := s.matchPlayers(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i].Players = players
	}
	return out, nil
}

func (s *Store) matchPlayers(ctx context.Context, matchID int64) ([]duel.PlayerView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conn_id, name, score FROM match_players WHERE match_id=? ORDER BY name`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []duel.PlayerView
	for rows.Next() {
		var p duel.PlayerView
		if err := rows.Scan(&p.ID, &p.Name, &p.Score); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
