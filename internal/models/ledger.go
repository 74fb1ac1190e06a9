package models

import (
	"time"
)

type GameEntry struct {
	ID        int       `json:"id" db:"id"`
	GameID    string    `json:"game_id" db:"game_id"`
	Identity  string    `json:"identity" db:"identity"`
	Amount    int64     `json:"amount" db:"amount"` // negative for stakes, positive for payouts/refunds
	EntryType string    `json:"entry_type" db:"entry_type"` // STAKE, PAYOUT or REFUND
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
