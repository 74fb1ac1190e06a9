package services

import (
	"errors"
	"net/http"

	"github.com/highcard/backend/internal/game"
)

// statusForGameError maps a core error kind to an HTTP status. The kind is
// part of the API contract; the mapping keeps every core error recoverable
// for HTTP callers.
func statusForGameError(err error) int {
	switch {
	case errors.Is(err, game.ErrGameInProgress),
		errors.Is(err, game.ErrAlreadyJoined),
		errors.Is(err, game.ErrAlreadySettled),
		errors.Is(err, game.ErrReentrancyDetected):
		return http.StatusConflict
	case errors.Is(err, game.ErrNoActiveGame),
		errors.Is(err, game.ErrUnknownIdentity):
		return http.StatusNotFound
	case errors.Is(err, game.ErrExpired):
		return http.StatusGone
	case errors.Is(err, game.ErrSelfJoin),
		errors.Is(err, game.ErrInsufficientStake),
		errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
