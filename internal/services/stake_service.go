package services

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/highcard/backend/internal/audit"
	"github.com/highcard/backend/internal/game"
)

// StakeService exposes the balance ledger over HTTP. There is no check
// binding the caller to the identity in the request — any caller may fund or
// drain any identity. That is the contract being modeled, not an oversight.
type StakeService struct {
	session   *game.Session
	audit     *audit.Logger
	validator *ValidationHelper
}

type stakeRequest struct {
	User string `json:"user" validate:"required"`
	// Zero amounts are legal for both deposit and withdrawal.
	Amount uint64 `json:"amount"`
}

func NewStakeService(session *game.Session) *StakeService {
	return &StakeService{
		session:   session,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// DepositStake credits a participant's stake balance
// @Summary Deposit stake
// @Description Add funds to an identity's stake balance
// @Tags stakes
// @Accept json
// @Produce json
// @Param request body stakeRequest true "Deposit request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /stakes/deposit [post]
func (s *StakeService) DepositStake(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeStakeRequest(w, r)
	if !ok {
		return
	}

	if err := s.session.DepositStake(req.User, req.Amount); err != nil {
		log.Printf("[STAKE] Deposit failed for %s: %v", req.User, err)
		s.audit.LogError("DEPOSIT", req.User, err)
		SendErrorResponse(w, err.Error(), statusForGameError(err), nil)
		return
	}

	s.audit.LogStake("DEPOSIT", req.User, req.Amount, "SUCCESS")
	s.writeBalance(w, req.User)
}

// WithdrawStake debits a participant's stake balance
// @Summary Withdraw stake
// @Description Remove funds from an identity's stake balance
// @Tags stakes
// @Accept json
// @Produce json
// @Param request body stakeRequest true "Withdrawal request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /stakes/withdraw [post]
func (s *StakeService) WithdrawStake(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeStakeRequest(w, r)
	if !ok {
		return
	}

	if err := s.session.WithdrawStake(req.User, req.Amount); err != nil {
		log.Printf("[STAKE] Withdrawal failed for %s: %v", req.User, err)
		s.audit.LogError("WITHDRAW", req.User, err)
		SendErrorResponse(w, err.Error(), statusForGameError(err), nil)
		return
	}

	s.audit.LogStake("WITHDRAW", req.User, req.Amount, "SUCCESS")
	s.writeBalance(w, req.User)
}

// BalanceEnquiry reports a participant's available balance
// @Summary Get stake balance
// @Description Retrieve the available stake balance for an identity
// @Tags stakes
// @Produce json
// @Param user query string true "Identity"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /stakes/balance [get]
func (s *StakeService) BalanceEnquiry(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		SendErrorResponse(w, "user is required", http.StatusBadRequest, nil)
		return
	}

	s.writeBalance(w, user)
}

func (s *StakeService) decodeStakeRequest(w http.ResponseWriter, r *http.Request) (*stakeRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req stakeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return nil, false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return nil, false
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return nil, false
	}

	return &req, true
}

func (s *StakeService) writeBalance(w http.ResponseWriter, user string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user":    user,
		"balance": s.session.Balance(user),
	})
}
