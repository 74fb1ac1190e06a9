package models

import (
	"time"
)

// GameRecord is the archived form of a settled game. The in-memory session
// stays authoritative; these rows are a write-behind history.
type GameRecord struct {
	ID           string    `json:"id" db:"id"`
	Creator      string    `json:"creator" db:"creator"`
	Opponent     string    `json:"opponent" db:"opponent"`
	BetAmount    int64     `json:"bet_amount" db:"bet_amount"`
	CreatorCard  int16     `json:"creator_card" db:"creator_card"`
	OpponentCard int16     `json:"opponent_card" db:"opponent_card"`
	Winner       string    `json:"winner,omitempty" db:"winner"`
	Tie          bool      `json:"tie" db:"tie"`
	Pot          int64     `json:"pot" db:"pot"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	SettledAt    time.Time `json:"settled_at" db:"settled_at"`
}
