package models

import "time"

type User struct {
	ID         int    `json:"id" example:"1"`                   // User ID
	Email      string `json:"email" example:"user@example.com"` // User email
	ScreenName string `json:"screenName" example:"alice"`       // Display name, also usable as a ledger identity
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
