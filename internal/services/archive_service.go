package services

import (
	"database/sql"
	"time"

	"github.com/highcard/backend/internal/game"
	"github.com/highcard/backend/internal/models"
)

// GameArchiveService persists settled games and their ledger movements. The
// in-memory session stays authoritative; these rows are history for
// integrators and the /games/history endpoint.
type GameArchiveService struct {
	db *sql.DB
}

// NewGameArchiveService returns nil when no database is configured so
// callers can treat the archive as optional.
func NewGameArchiveService(db *sql.DB) *GameArchiveService {
	if db == nil {
		return nil
	}
	return &GameArchiveService{db: db}
}

// RecordSettlement writes one settled game and its per-participant entries
// in a single transaction: a STAKE debit per participant, then either a
// PAYOUT to the winner or a REFUND to each side on a tie.
func (s *GameArchiveService) RecordSettlement(gameID string, g *game.Game, outcome *game.Outcome) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bet := int64(g.BetAmount)
	settledAt := time.Now()

	_, err = tx.Exec(`
		INSERT INTO games (id, creator, opponent, bet_amount, creator_card, opponent_card, winner, tie, pot, started_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		gameID, outcome.Creator, outcome.Opponent, bet,
		int16(outcome.CreatorCard), int16(outcome.OpponentCard),
		outcome.Winner, outcome.Tie, int64(outcome.Pot),
		time.Unix(g.StartTime, 0), settledAt)
	if err != nil {
		return err
	}

	if err := s.createEntry(tx, gameID, outcome.Creator, -bet, "STAKE", settledAt); err != nil {
		return err
	}
	if err := s.createEntry(tx, gameID, outcome.Opponent, -bet, "STAKE", settledAt); err != nil {
		return err
	}

	if outcome.Tie {
		if err := s.createEntry(tx, gameID, outcome.Creator, bet, "REFUND", settledAt); err != nil {
			return err
		}
		if err := s.createEntry(tx, gameID, outcome.Opponent, bet, "REFUND", settledAt); err != nil {
			return err
		}
	} else {
		if err := s.createEntry(tx, gameID, outcome.Winner, int64(outcome.Pot), "PAYOUT", settledAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *GameArchiveService) createEntry(tx *sql.Tx, gameID, identity string, amount int64, entryType string, createdAt time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO game_entries (game_id, identity, amount, entry_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		gameID, identity, amount, entryType, createdAt)
	return err
}

// ListRecent returns the most recently settled games.
func (s *GameArchiveService) ListRecent(limit int) ([]models.GameRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, creator, opponent, bet_amount, creator_card, opponent_card, winner, tie, pot, started_at, settled_at
		FROM games
		ORDER BY settled_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.GameRecord{}
	for rows.Next() {
		var rec models.GameRecord
		err := rows.Scan(
			&rec.ID, &rec.Creator, &rec.Opponent, &rec.BetAmount,
			&rec.CreatorCard, &rec.OpponentCard, &rec.Winner, &rec.Tie,
			&rec.Pot, &rec.StartedAt, &rec.SettledAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListEntries returns the ledger movements recorded for one game.
func (s *GameArchiveService) ListEntries(gameID string) ([]models.GameEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, game_id, identity, amount, entry_type, created_at
		FROM game_entries
		WHERE game_id = $1
		ORDER BY id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.GameEntry{}
	for rows.Next() {
		var e models.GameEntry
		if err := rows.Scan(&e.ID, &e.GameID, &e.Identity, &e.Amount, &e.EntryType, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
