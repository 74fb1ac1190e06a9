package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession returns a session with a controllable clock and a rigged
// deck. Cards are dealt from the front of deal in draw order: the opponent's
// card comes off first (drawn at join), then the creator's (drawn at reveal).
func newTestSession(t *testing.T, deal ...uint8) *Session {
	t.Helper()
	s := NewSession(NewLedger())
	s.now = func() int64 { return 1_000_000 }
	s.draw = func() uint8 {
		require.NotEmpty(t, deal, "rigged deck exhausted")
		card := deal[0]
		deal = deal[1:]
		return card
	}
	return s
}

func fund(t *testing.T, s *Session, balances map[string]uint64) {
	t.Helper()
	for id, amount := range balances {
		require.NoError(t, s.DepositStake(id, amount))
	}
}

func mustJoin(t *testing.T, s *Session, opponent string) {
	t.Helper()
	_, err := s.JoinGame(opponent)
	require.NoError(t, err)
}

func TestSession_StartGame(t *testing.T) {
	t.Run("debits creator and opens slot", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100})

		assert.NoError(t, s.StartGame("alice", 10))
		assert.Equal(t, uint64(90), s.Balance("alice"))

		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.Equal(t, "alice", g.Creator)
		assert.Equal(t, uint64(10), g.BetAmount)
		assert.Empty(t, g.Opponent)
		assert.Zero(t, g.OpponentCard)
		assert.False(t, g.IsSettled)
		assert.Equal(t, int64(1_000_000), g.StartTime)
	})

	t.Run("exclusivity", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 100})

		require.NoError(t, s.StartGame("alice", 10))

		err := s.StartGame("bob", 10)
		assert.ErrorIs(t, err, ErrGameInProgress)
		assert.Equal(t, uint64(100), s.Balance("bob"))
	})

	t.Run("insufficient stake", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 5})

		err := s.StartGame("alice", 10)
		assert.ErrorIs(t, err, ErrInsufficientStake)
		assert.Equal(t, uint64(5), s.Balance("alice"))
		assert.Nil(t, s.CurrentGame())
	})

	t.Run("unfunded creator", func(t *testing.T) {
		s := newTestSession(t)

		err := s.StartGame("alice", 10)
		assert.ErrorIs(t, err, ErrInsufficientStake)
	})

	t.Run("zero bet is legal", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 0})

		assert.NoError(t, s.StartGame("alice", 0))
		require.NotNil(t, s.CurrentGame())
	})

	t.Run("zero bet without any prior deposit", func(t *testing.T) {
		s := newTestSession(t)

		// A zero bet holds nothing, so a creator the ledger has never seen
		// can still open a round. The debit leaves a zero entry behind.
		assert.NoError(t, s.StartGame("alice", 0))
		require.NotNil(t, s.CurrentGame())
		assert.Equal(t, uint64(0), s.Balance("alice"))
		assert.NoError(t, s.WithdrawStake("alice", 0))
	})

	t.Run("settled game frees the slot", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 100})

		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")
		_, err := s.RevealAndSettle()
		require.NoError(t, err)

		assert.NoError(t, s.StartGame("bob", 10))
		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.Equal(t, "bob", g.Creator)
	})

	t.Run("snapshot records post-debit balances", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})

		require.NoError(t, s.StartGame("alice", 10))

		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.Equal(t, uint64(90), g.LedgerSnapshot["alice"])
		assert.Equal(t, uint64(200), g.LedgerSnapshot["bob"])
	})
}

func TestSession_JoinGame(t *testing.T) {
	t.Run("no active game", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"bob": 100})

		_, err := s.JoinGame("bob")
		assert.ErrorIs(t, err, ErrNoActiveGame)
		assert.Equal(t, uint64(100), s.Balance("bob"))
	})

	t.Run("debits opponent and draws their card immediately", func(t *testing.T) {
		s := newTestSession(t, 7)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 100})
		require.NoError(t, s.StartGame("alice", 10))

		g, err := s.JoinGame("bob")
		assert.NoError(t, err)
		assert.Equal(t, uint64(90), s.Balance("bob"))

		require.NotNil(t, g)
		assert.Equal(t, "bob", g.Opponent)
		assert.Equal(t, uint8(7), g.OpponentCard)
		// The creator's card is not drawn until reveal.
		assert.Zero(t, g.CreatorCard)
		assert.False(t, g.IsSettled)
	})

	t.Run("returns a detached copy of the round", func(t *testing.T) {
		s := newTestSession(t, 7)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 100})
		require.NoError(t, s.StartGame("alice", 10))

		g, err := s.JoinGame("bob")
		require.NoError(t, err)
		require.NotNil(t, g)

		// The copy stays valid and unchanged even after the slot is cleared.
		s.Reset()
		assert.Equal(t, "alice", g.Creator)
		assert.Equal(t, "bob", g.Opponent)
		assert.Equal(t, uint64(10), g.BetAmount)

		g.Opponent = "mallory"
		assert.Nil(t, s.CurrentGame())
	})

	t.Run("already joined", func(t *testing.T) {
		s := newTestSession(t, 7)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 100, "carol": 100})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		_, err := s.JoinGame("carol")
		assert.ErrorIs(t, err, ErrAlreadyJoined)
		assert.Equal(t, uint64(100), s.Balance("carol"))
	})

	t.Run("self join", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100})
		require.NoError(t, s.StartGame("alice", 10))

		_, err := s.JoinGame("alice")
		assert.ErrorIs(t, err, ErrSelfJoin)
		assert.Equal(t, uint64(90), s.Balance("alice"))
	})

	t.Run("never-funded opponent can join a zero-bet round", func(t *testing.T) {
		s := newTestSession(t, 7, 11)

		require.NoError(t, s.StartGame("alice", 0))
		g, err := s.JoinGame("bob")
		assert.NoError(t, err)
		require.NotNil(t, g)
		assert.Equal(t, uint8(7), g.OpponentCard)

		// The round plays out for nothing.
		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Equal(t, "alice", out.Winner)
		assert.Zero(t, out.Pot)
		assert.Equal(t, uint64(0), s.Balance("alice"))
		assert.Equal(t, uint64(0), s.Balance("bob"))
	})

	t.Run("insufficient stake", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 5})
		require.NoError(t, s.StartGame("alice", 10))

		_, err := s.JoinGame("bob")
		assert.ErrorIs(t, err, ErrInsufficientStake)
		assert.Equal(t, uint64(5), s.Balance("bob"))

		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.Empty(t, g.Opponent)
		assert.Zero(t, g.OpponentCard)
	})
}

func TestSession_RevealAndSettle(t *testing.T) {
	t.Run("creator wins the pot", func(t *testing.T) {
		// Bob draws 4 at join, Alice draws 9 at reveal.
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Equal(t, "alice", out.Winner)
		assert.False(t, out.Tie)
		assert.Equal(t, uint8(9), out.CreatorCard)
		assert.Equal(t, uint8(4), out.OpponentCard)
		assert.Equal(t, uint64(20), out.Pot)

		assert.Equal(t, uint64(110), s.Balance("alice"))
		assert.Equal(t, uint64(190), s.Balance("bob"))
	})

	t.Run("opponent wins the pot", func(t *testing.T) {
		s := newTestSession(t, 12, 3)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Equal(t, "bob", out.Winner)

		assert.Equal(t, uint64(90), s.Balance("alice"))
		assert.Equal(t, uint64(210), s.Balance("bob"))
	})

	t.Run("tie refunds both stakes", func(t *testing.T) {
		s := newTestSession(t, 8, 8)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.True(t, out.Tie)
		assert.Empty(t, out.Winner)
		assert.Zero(t, out.Pot)

		assert.Equal(t, uint64(100), s.Balance("alice"))
		assert.Equal(t, uint64(200), s.Balance("bob"))

		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.True(t, g.IsSettled)
	})

	t.Run("tie refund is all-or-nothing at the balance ceiling", func(t *testing.T) {
		s := newTestSession(t, 8, 8)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 10})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		// Fill bob to the ceiling after his bet is held: his refund would
		// overflow, so neither side may be refunded.
		require.NoError(t, s.DepositStake("bob", math.MaxUint64))

		_, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrOverflow)

		assert.Equal(t, uint64(90), s.Balance("alice"))
		assert.Equal(t, uint64(math.MaxUint64), s.Balance("bob"))
		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.False(t, g.IsSettled)
	})

	t.Run("settlement is one-shot", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		_, err := s.RevealAndSettle()
		require.NoError(t, err)

		out, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrAlreadySettled)
		assert.Nil(t, out)

		// No ledger change from the second attempt.
		assert.Equal(t, uint64(110), s.Balance("alice"))
		assert.Equal(t, uint64(190), s.Balance("bob"))
	})

	t.Run("no game to reveal", func(t *testing.T) {
		s := newTestSession(t)

		_, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrNoActiveGame)
	})

	t.Run("reveal before anyone joins", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100})
		require.NoError(t, s.StartGame("alice", 10))

		_, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrNoActiveGame)
		assert.Equal(t, uint64(90), s.Balance("alice"))
	})

	t.Run("expired game forfeits both stakes", func(t *testing.T) {
		s := newTestSession(t, 4)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		s.now = func() int64 { return 1_000_000 + ExpirySeconds + 1 }

		_, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrExpired)

		// Documented defect: the debited bets are not refunded.
		assert.Equal(t, uint64(90), s.Balance("alice"))
		assert.Equal(t, uint64(190), s.Balance("bob"))

		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.False(t, g.IsSettled)
	})

	t.Run("reveal exactly at the expiry bound still settles", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		s.now = func() int64 { return 1_000_000 + ExpirySeconds }

		_, err := s.RevealAndSettle()
		assert.NoError(t, err)
	})

	t.Run("payout marker blocks a nested transfer", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		s.payouts["alice"] = true

		_, err := s.RevealAndSettle()
		assert.ErrorIs(t, err, ErrReentrancyDetected)

		// The blocked payout pays nothing and commits no settled flag, so
		// clearing the marker lets settlement proceed.
		assert.Equal(t, uint64(90), s.Balance("alice"))
		g := s.CurrentGame()
		require.NotNil(t, g)
		assert.False(t, g.IsSettled)

		delete(s.payouts, "alice")
		s.draw = func() uint8 { return 9 }
		_, err = s.RevealAndSettle()
		assert.NoError(t, err)
		assert.Equal(t, uint64(110), s.Balance("alice"))
	})

	t.Run("marker is cleared after a successful payout", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		_, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Empty(t, s.payouts)
	})
}

func TestSession_Reset(t *testing.T) {
	t.Run("clears the slot from any state", func(t *testing.T) {
		s := newTestSession(t, 7)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		s.Reset()
		assert.Nil(t, s.CurrentGame())

		// Held bets are forfeited, balances otherwise untouched.
		assert.Equal(t, uint64(90), s.Balance("alice"))
		assert.Equal(t, uint64(190), s.Balance("bob"))
	})

	t.Run("empty slot reset is a no-op", func(t *testing.T) {
		s := newTestSession(t)
		s.Reset()
		assert.Nil(t, s.CurrentGame())
	})

	t.Run("allows a fresh start mid-round", func(t *testing.T) {
		s := newTestSession(t)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))

		s.Reset()
		assert.NoError(t, s.StartGame("bob", 10))
	})
}

// Conservation: outside the expiry and reset defects, deposits minus
// withdrawals always equals the sum of balances plus bets held in an open
// game.
func TestSession_Conservation(t *testing.T) {
	heldInGame := func(s *Session) uint64 {
		g := s.CurrentGame()
		if g == nil || g.IsSettled {
			return 0
		}
		held := g.BetAmount
		if g.Opponent != "" {
			held += g.BetAmount
		}
		return held
	}
	total := func(s *Session) uint64 {
		return s.Balance("alice") + s.Balance("bob") + heldInGame(s)
	}

	t.Run("through a won game", func(t *testing.T) {
		s := newTestSession(t, 4, 9)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		assert.Equal(t, uint64(300), total(s))

		require.NoError(t, s.StartGame("alice", 10))
		assert.Equal(t, uint64(300), total(s))

		mustJoin(t, s, "bob")
		assert.Equal(t, uint64(300), total(s))

		_, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Equal(t, uint64(300), total(s))
	})

	t.Run("through a tie and withdrawals", func(t *testing.T) {
		s := newTestSession(t, 8, 8)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})
		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")
		_, err := s.RevealAndSettle()
		require.NoError(t, err)

		require.NoError(t, s.WithdrawStake("bob", 50))
		assert.Equal(t, uint64(250), total(s))
	})
}

// End-to-end scenario from the driver's point of view: deposit, start, join,
// reveal, check final balances for each outcome.
func TestSession_EndToEnd(t *testing.T) {
	t.Run("creator draws higher", func(t *testing.T) {
		s := newTestSession(t, 2, 11)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})

		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")
		assert.Equal(t, uint64(190), s.Balance("bob"))

		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.Equal(t, "alice", out.Winner)
		assert.Equal(t, uint64(110), s.Balance("alice"))
		assert.Equal(t, uint64(190), s.Balance("bob"))
	})

	t.Run("equal draw", func(t *testing.T) {
		s := newTestSession(t, 6, 6)
		fund(t, s, map[string]uint64{"alice": 100, "bob": 200})

		require.NoError(t, s.StartGame("alice", 10))
		mustJoin(t, s, "bob")

		out, err := s.RevealAndSettle()
		require.NoError(t, err)
		assert.True(t, out.Tie)
		assert.Equal(t, uint64(100), s.Balance("alice"))
		assert.Equal(t, uint64(200), s.Balance("bob"))
	})
}

func TestDrawCard_Range(t *testing.T) {
	seen := make(map[uint8]bool)
	for i := 0; i < 5000; i++ {
		card := drawCard()
		assert.GreaterOrEqual(t, card, uint8(MinCard))
		assert.LessOrEqual(t, card, uint8(MaxCard))
		seen[card] = true
	}
	// 5000 draws over 13 ranks: every rank should show up.
	assert.Len(t, seen, MaxCard-MinCard+1)
}
