package game

import "math"

// Ledger maps a participant identity to its available stake balance.
// Entries are created on first deposit and never deleted; balances persist
// across games. All arithmetic is checked — an operation that would wrap
// fails instead. The Ledger itself is not goroutine-safe; the Session
// serializes access to it together with the game slot.
type Ledger struct {
	balances map[string]uint64
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// Deposit credits amount to the identity's balance, creating the entry if it
// does not exist. A zero amount succeeds. There is no check binding the
// caller to the identity — any caller may fund any identity.
func (l *Ledger) Deposit(identity string, amount uint64) error {
	current := l.balances[identity]
	if amount > math.MaxUint64-current {
		return ErrOverflow
	}
	l.balances[identity] = current + amount
	return nil
}

// debit removes amount held into a game. Unlike Withdraw, a missing entry
// reads as zero and is created by the debit, so a zero-bet game opened by a
// never-funded identity succeeds and leaves a zero entry behind.
func (l *Ledger) debit(identity string, amount uint64) error {
	current := l.balances[identity]
	if current < amount {
		return ErrInsufficientFunds
	}
	l.balances[identity] = current - amount
	return nil
}

// hasRoom reports whether a deposit of amount would stay within range.
func (l *Ledger) hasRoom(identity string, amount uint64) bool {
	return amount <= math.MaxUint64-l.balances[identity]
}

// Withdraw debits amount from the identity's balance. It fails with
// ErrUnknownIdentity if the identity has never deposited and with
// ErrInsufficientFunds if the balance is short. A zero amount succeeds
// trivially, including against a zero balance.
func (l *Ledger) Withdraw(identity string, amount uint64) error {
	current, ok := l.balances[identity]
	if !ok {
		return ErrUnknownIdentity
	}
	if current < amount {
		return ErrInsufficientFunds
	}
	l.balances[identity] = current - amount
	return nil
}

// Balance returns the identity's available balance, zero for unknown
// identities.
func (l *Ledger) Balance(identity string) uint64 {
	return l.balances[identity]
}

// Snapshot returns a copy of every balance. The copy is informational; it is
// what a Game records at creation time and never feeds back into settlement.
func (l *Ledger) Snapshot() map[string]uint64 {
	snap := make(map[string]uint64, len(l.balances))
	for id, bal := range l.balances {
		snap[id] = bal
	}
	return snap
}
