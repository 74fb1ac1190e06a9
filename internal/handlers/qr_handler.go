package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/highcard/backend/internal/game"
	"github.com/highcard/backend/internal/services"
)

type QRHandler struct {
	service   *services.QRService
	session   *game.Session
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.QRService, session *game.Session) *QRHandler {
	return &QRHandler{
		service:   service,
		session:   session,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQR issues a join challenge for the open game
// @Summary Generate join QR code
// @Description Generate a scannable join challenge for the current open game
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{qrCode=string,qrImage=string}
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /qr/generate [post]
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	g := h.session.CurrentGame()
	if g == nil {
		services.SendErrorResponse(w, "no active game", http.StatusNotFound, nil)
		return
	}
	if g.Opponent != "" {
		services.SendErrorResponse(w, "game already joined", http.StatusConflict, nil)
		return
	}

	qrCode, qrImage, err := h.service.GenerateJoinCode(r.Context(), g)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"qrCode":  qrCode,
		"qrImage": qrImage,
	})
}

// ProcessQR redeems a scanned join challenge
// @Summary Process join QR code
// @Description Redeem a scanned join challenge and return the open game's terms
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{qrData=string} true "QR processing request"
// @Success 200 {object} object{creator=string,bet=int64}
// @Failure 400 {object} services.ErrorResponse
// @Router /qr/process [post]
func (h *QRHandler) ProcessQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRData string `json:"qrData" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.RedeemJoinCode(r.Context(), req.QRData)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    result,
	})
}
