package game

import "errors"

// Every failure mode of the session manager and the stake ledger is a
// recoverable error; nothing in this package panics on caller input.
var (
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNoActiveGame       = errors.New("no active game")
	ErrAlreadyJoined      = errors.New("game already joined")
	ErrSelfJoin           = errors.New("cannot join your own game")
	ErrAlreadySettled     = errors.New("game already settled")
	ErrExpired            = errors.New("game expired")
	ErrInsufficientStake  = errors.New("insufficient stake")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUnknownIdentity    = errors.New("unknown identity")
	ErrOverflow           = errors.New("balance overflow")
	ErrReentrancyDetected = errors.New("reentrancy detected")
)
