package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	GameID    string    `json:"game_id,omitempty"`
	Identity  string    `json:"identity,omitempty"`
	Amount    uint64    `json:"amount"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogStake(operation, identity string, amount uint64, status string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		Identity:  identity,
		Amount:    amount,
		Status:    status,
	})
}

func (a *Logger) LogGame(event, creator, opponent string, bet uint64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: event,
		Identity:  creator,
		Amount:    bet,
		Status:    "SUCCESS",
		Details: map[string]string{
			"creator":  creator,
			"opponent": opponent,
		},
	})
}

func (a *Logger) LogSettlement(gameID, winner string, pot uint64, tie bool) {
	status := "WON"
	if tie {
		status = "TIE"
	}
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "SETTLEMENT",
		GameID:    gameID,
		Identity:  winner,
		Amount:    pot,
		Status:    status,
	})
}

func (a *Logger) LogError(operation, identity string, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		Identity:  identity,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
