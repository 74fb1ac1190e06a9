package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the JSON error envelope every handler in this package
// writes, for core game errors and request validation failures alike.
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Per-field validation failures
}

// ValidationHelper wraps a shared validator instance for the stake, game and
// QR request structs.
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct runs the struct's validate tags and returns the raw
// validator error so callers can pass it to SendErrorResponse.
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse writes an ErrorResponse with the given status. When
// validationErr carries validator.ValidationErrors, each failing field is
// reported under Details keyed by field name.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("failed '%s' validation", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}
