// Package game implements the wagering core: a stake ledger and a
// single-slot game session manager. Two participants each lock a bet from a
// pre-funded balance, draw a card, and the higher card takes the pot; a tie
// refunds both stakes.
//
// Several behaviors are deliberate, documented defects kept for parity with
// the contract this models: Reset is callable by anyone in any state, an
// expired game forfeits both stakes, the opponent's card is drawn at join
// time (before the creator's), and the winner payout lands before the
// settled flag is committed. Do not "fix" these without flagging the change.
package game

import (
	"sync"
	"time"
)

// ExpirySeconds is how long a game stays revealable after start.
const ExpirySeconds = 600

// Game is one wagering round. A zero Opponent means nobody has joined yet;
// a zero card means that side has not drawn.
type Game struct {
	Creator        string            `json:"creator"`
	BetAmount      uint64            `json:"betAmount"`
	Opponent       string            `json:"opponent,omitempty"`
	CreatorCard    uint8             `json:"creatorCard,omitempty"`
	OpponentCard   uint8             `json:"opponentCard,omitempty"`
	IsSettled      bool              `json:"isSettled"`
	StartTime      int64             `json:"startTime"`
	LedgerSnapshot map[string]uint64 `json:"ledgerSnapshot"`
}

// Outcome describes a completed settlement. Winner is empty on a tie.
type Outcome struct {
	Creator      string `json:"creator"`
	Opponent     string `json:"opponent"`
	CreatorCard  uint8  `json:"creatorCard"`
	OpponentCard uint8  `json:"opponentCard"`
	Winner       string `json:"winner,omitempty"`
	Tie          bool   `json:"tie"`
	Pot          uint64 `json:"pot"`
}

// Session owns the ledger and the single game slot. One mutex covers both:
// a debit and its game-state update are never separately visible, and each
// operation either fully applies or fully fails. At most one unsettled game
// exists process-wide.
type Session struct {
	mu      sync.Mutex
	ledger  *Ledger
	current *Game

	// payouts marks identities with an in-flight winner transfer. The
	// marker exists because settlement credits the winner before the
	// settled flag is set; a second settlement attempt racing through that
	// window must fail with ErrReentrancyDetected, not pay twice.
	payouts map[string]bool

	now  func() int64
	draw func() uint8
}

func NewSession(ledger *Ledger) *Session {
	return &Session{
		ledger:  ledger,
		payouts: make(map[string]bool),
		now:     func() int64 { return time.Now().Unix() },
		draw:    drawCard,
	}
}

// DepositStake credits a participant's balance. Exposed through the Session
// so ledger mutations share the game slot's ordering discipline.
func (s *Session) DepositStake(identity string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Deposit(identity, amount)
}

// WithdrawStake debits a participant's balance.
func (s *Session) WithdrawStake(identity string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Withdraw(identity, amount)
}

// Balance reports a participant's available balance.
func (s *Session) Balance(identity string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance(identity)
}

// StartGame opens a new round. The bet is debited from the creator
// immediately; the funds are held in the game, not in a separate escrow. A
// settled game still occupying the slot is discarded by a successful start.
func (s *Session) StartGame(creator string, bet uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && !s.current.IsSettled {
		return ErrGameInProgress
	}
	// A zero bet from a never-funded identity opens the entry and succeeds.
	if err := s.ledger.debit(creator, bet); err != nil {
		return ErrInsufficientStake
	}

	s.current = &Game{
		Creator:        creator,
		BetAmount:      bet,
		StartTime:      s.now(),
		LedgerSnapshot: s.ledger.Snapshot(),
	}
	return nil
}

// JoinGame enters the open round as the opponent and returns a copy of the
// joined round. The opponent's card is drawn here, before the creator's — a
// creator who can read intermediate state gets to peek and Reset out of a
// losing round. Kept as-is. Callers must use the returned copy rather than
// re-reading the slot: an unconditional Reset can clear it at any moment.
func (s *Session) JoinGame(opponent string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.current
	if g == nil {
		return nil, ErrNoActiveGame
	}
	if g.Opponent != "" {
		return nil, ErrAlreadyJoined
	}
	if g.Creator == opponent {
		return nil, ErrSelfJoin
	}
	if err := s.ledger.debit(opponent, g.BetAmount); err != nil {
		return nil, ErrInsufficientStake
	}

	g.Opponent = opponent
	g.OpponentCard = s.draw()
	return s.copyCurrent(), nil
}

// RevealAndSettle draws the creator's card and resolves the round. A tie
// refunds both bets; otherwise the whole pot goes to the higher card. An
// expired game settles nothing and refunds nothing.
func (s *Session) RevealAndSettle() (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.current
	if g == nil || g.Opponent == "" {
		return nil, ErrNoActiveGame
	}
	if g.IsSettled {
		return nil, ErrAlreadySettled
	}
	if s.now()-g.StartTime > ExpirySeconds {
		// Both bets stay debited. Known defect, preserved.
		return nil, ErrExpired
	}

	g.CreatorCard = s.draw()

	outcome := &Outcome{
		Creator:      g.Creator,
		Opponent:     g.Opponent,
		CreatorCard:  g.CreatorCard,
		OpponentCard: g.OpponentCard,
		Pot:          2 * g.BetAmount,
	}

	if g.CreatorCard == g.OpponentCard {
		// Refund both sides or neither; a one-sided refund must never land.
		if !s.ledger.hasRoom(g.Creator, g.BetAmount) || !s.ledger.hasRoom(g.Opponent, g.BetAmount) {
			return nil, ErrOverflow
		}
		if err := s.ledger.Deposit(g.Creator, g.BetAmount); err != nil {
			return nil, err
		}
		if err := s.ledger.Deposit(g.Opponent, g.BetAmount); err != nil {
			return nil, err
		}
		g.IsSettled = true
		outcome.Tie = true
		outcome.Pot = 0
		return outcome, nil
	}

	winner := g.Creator
	if g.OpponentCard > g.CreatorCard {
		winner = g.Opponent
	}
	if err := s.payWinner(winner, 2*g.BetAmount); err != nil {
		return nil, err
	}

	// Settled flag lands after the transfer. The payout marker above is
	// what keeps a concurrent second reveal from paying twice.
	g.IsSettled = true
	outcome.Winner = winner
	return outcome, nil
}

func (s *Session) payWinner(winner string, amount uint64) error {
	if s.payouts[winner] {
		return ErrReentrancyDetected
	}
	s.payouts[winner] = true
	err := s.ledger.Deposit(winner, amount)
	delete(s.payouts, winner)
	return err
}

// Reset unconditionally clears the game slot. No preconditions, no caller
// check, no refund of bets already held in the cleared game — the flagged
// DoS defect. Ledger entries are untouched; balances persist across games.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// CurrentGame returns a copy of the game occupying the slot, or nil when the
// slot is empty. The copy includes drawn cards; exposing them pre-settlement
// is part of the peek defect documented on JoinGame.
func (s *Session) CurrentGame() *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyCurrent()
}

// copyCurrent deep-copies the slot. Callers must hold s.mu.
func (s *Session) copyCurrent() *Game {
	if s.current == nil {
		return nil
	}
	g := *s.current
	g.LedgerSnapshot = make(map[string]uint64, len(s.current.LedgerSnapshot))
	for id, bal := range s.current.LedgerSnapshot {
		g.LedgerSnapshot[id] = bal
	}
	return &g
}
