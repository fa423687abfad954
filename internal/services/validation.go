package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/classpoints/backend/internal/ledger"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Code    string            `json:"code,omitempty"`    // Machine-readable error kind
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	writeError(w, message, "", statusCode, validationErr)
}

// ErrorStatus maps a ledger error kind onto an HTTP status and error code.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidDelta):
		return http.StatusBadRequest, "invalid_delta"
	case errors.Is(err, ledger.ErrInvalidCriterion):
		return http.StatusBadRequest, "invalid_criterion"
	case errors.Is(err, ledger.ErrInvalidLimit):
		return http.StatusBadRequest, "invalid_limit"
	case errors.Is(err, ledger.ErrUnknownStudent):
		return http.StatusNotFound, "unknown_student"
	case errors.Is(err, ledger.ErrUnknownPrize):
		return http.StatusNotFound, "unknown_prize"
	case errors.Is(err, ledger.ErrUnknownRedemption):
		return http.StatusNotFound, "unknown_redemption"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusConflict, "insufficient_balance"
	case errors.Is(err, ledger.ErrAccountArchived):
		return http.StatusConflict, "account_archived"
	case errors.Is(err, ledger.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable, "concurrency_conflict"
	}
	return http.StatusInternalServerError, "internal"
}

// SendLedgerError writes err using the ledger error mapping. Internal errors
// are not echoed back to the caller.
func SendLedgerError(w http.ResponseWriter, err error) {
	status, code := ErrorStatus(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = "Internal server error"
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, message, code, status, err)
}

func writeError(w http.ResponseWriter, message, code string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message, Code: code}
	var verrs validator.ValidationErrors
	if validationErr != nil && errors.As(validationErr, &verrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range verrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}
