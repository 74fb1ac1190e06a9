package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/highcard/backend/internal/audit"
	"github.com/highcard/backend/internal/config"
	"github.com/highcard/backend/internal/game"
)

// GameService exposes the session manager over HTTP. Like the stake
// endpoints, the game endpoints are unauthenticated by design: any caller
// may start a game as any identity, and reset is callable by anyone at any
// time.
type GameService struct {
	session   *game.Session
	archive   *GameArchiveService
	redis     *redis.Client
	cfg       *config.GameConfig
	audit     *audit.Logger
	validator *ValidationHelper
}

type startGameRequest struct {
	Creator string `json:"creator" validate:"required"`
	// A zero bet is legal; the round is then played for nothing.
	Bet uint64 `json:"bet"`
}

type joinGameRequest struct {
	Opponent string `json:"opponent" validate:"required"`
}

func NewGameService(session *game.Session, archive *GameArchiveService, redisClient *redis.Client, cfg *config.GameConfig) *GameService {
	return &GameService{
		session:   session,
		archive:   archive,
		redis:     redisClient,
		cfg:       cfg,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// StartGame opens a new wagering round
// @Summary Start a game
// @Description Open a new round, locking the bet from the creator's stake
// @Tags games
// @Accept json
// @Produce json
// @Param request body startGameRequest true "Start request"
// @Success 201 {object} game.Game
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /games [post]
func (gs *GameService) StartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if !gs.decodeBody(w, r, &req) {
		return
	}

	if err := gs.session.StartGame(req.Creator, req.Bet); err != nil {
		log.Printf("[GAME] Start failed for %s: %v", req.Creator, err)
		gs.audit.LogError("GAME_START", req.Creator, err)
		SendErrorResponse(w, err.Error(), statusForGameError(err), nil)
		return
	}

	gs.audit.LogGame("GAME_START", req.Creator, "", req.Bet)
	log.Printf("[GAME] Started by %s, bet %d", req.Creator, req.Bet)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"game":    gs.session.CurrentGame(),
	})
}

// JoinGame enters the open round as the opponent
// @Summary Join the open game
// @Description Lock the bet from the opponent's stake and draw their card
// @Tags games
// @Accept json
// @Produce json
// @Param request body joinGameRequest true "Join request"
// @Success 200 {object} game.Game
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /games/join [post]
func (gs *GameService) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if !gs.decodeBody(w, r, &req) {
		return
	}

	// Use the round returned by the join itself; re-reading the slot here
	// races an unauthenticated DELETE /games clearing it.
	g, err := gs.session.JoinGame(req.Opponent)
	if err != nil {
		log.Printf("[GAME] Join failed for %s: %v", req.Opponent, err)
		gs.audit.LogError("GAME_JOIN", req.Opponent, err)
		SendErrorResponse(w, err.Error(), statusForGameError(err), nil)
		return
	}

	gs.audit.LogGame("GAME_JOIN", g.Creator, req.Opponent, g.BetAmount)
	log.Printf("[GAME] %s joined game started by %s", req.Opponent, g.Creator)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"game":    g,
	})
}

// RevealAndSettle resolves the open round
// @Summary Reveal and settle
// @Description Draw the creator's card, compare, and pay out or refund
// @Tags games
// @Produce json
// @Success 200 {object} game.Outcome
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /games/reveal [post]
func (gs *GameService) RevealAndSettle(w http.ResponseWriter, r *http.Request) {
	g := gs.session.CurrentGame()

	outcome, err := gs.session.RevealAndSettle()
	if err != nil {
		log.Printf("[GAME] Settlement failed: %v", err)
		gs.audit.LogError("GAME_SETTLE", "", err)
		SendErrorResponse(w, err.Error(), statusForGameError(err), nil)
		return
	}

	gameID := uuid.NewString()
	gs.audit.LogSettlement(gameID, outcome.Winner, outcome.Pot, outcome.Tie)
	log.Printf("[GAME] Settled %s: creator %d vs opponent %d", gameID, outcome.CreatorCard, outcome.OpponentCard)

	// Archive and queue are write-behind; a failure there never unwinds the
	// settlement the core already committed.
	if gs.archive != nil && g != nil {
		if err := gs.archive.RecordSettlement(gameID, g, outcome); err != nil {
			log.Printf("[GAME] Failed to archive settlement %s: %v", gameID, err)
		}
	}
	if err := gs.queueResult(r.Context(), gameID, outcome); err != nil {
		log.Printf("[GAME] Failed to queue settlement %s: %v", gameID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"gameId":  gameID,
		"outcome": outcome,
	})
}

// ResetGame unconditionally clears the game slot
// @Summary Reset the game slot
// @Description Clear the current game regardless of state; held bets are forfeited
// @Tags games
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /games [delete]
func (gs *GameService) ResetGame(w http.ResponseWriter, r *http.Request) {
	gs.session.Reset()
	gs.audit.LogStake("GAME_RESET", "", 0, "SUCCESS")
	log.Printf("[GAME] Slot reset from %s", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
}

// CurrentGame returns the game occupying the slot
// @Summary Get current game
// @Description Retrieve the game occupying the slot, drawn cards included
// @Tags games
// @Produce json
// @Success 200 {object} game.Game
// @Failure 404 {object} ErrorResponse
// @Router /games/current [get]
func (gs *GameService) CurrentGame(w http.ResponseWriter, r *http.Request) {
	g := gs.session.CurrentGame()
	if g == nil {
		SendErrorResponse(w, "no active game", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(g)
}

// GameHistory lists archived settlements
// @Summary List settled games
// @Description Retrieve recently settled games from the archive
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of games to return"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /games/history [get]
func (gs *GameService) GameHistory(w http.ResponseWriter, r *http.Request) {
	if gs.archive == nil {
		SendErrorResponse(w, "Archive unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	limit := gs.cfg.HistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > gs.cfg.HistoryMaxLimit {
		limit = gs.cfg.HistoryMaxLimit
	}

	records, err := gs.archive.ListRecent(limit)
	if err != nil {
		log.Printf("[GAME] Failed to fetch history: %v", err)
		SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"games": records,
		"count": len(records),
	})
}

func (gs *GameService) queueResult(ctx context.Context, gameID string, outcome *game.Outcome) error {
	if gs.redis == nil {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"gameId":    gameID,
		"outcome":   outcome,
		"settledAt": time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	return gs.redis.RPush(ctx, gs.cfg.ResultQueue, payload).Err()
}

func (gs *GameService) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := gs.validator.ValidateStruct(dst); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}

	return true
}
