package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/diagnosis/villa-bookings/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteErrorWithDetails(w, statusCode, message, code, "")
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Common error codes
const (
	CodeInvalidInput  = domain.CodeInvalidInput
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = domain.CodeNotFound
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = domain.CodeInternal
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeBadSignature  = "INVALID_SIGNATURE"
)

// StatusFor maps a booking failure to its HTTP status. Unknown errors are
// internal.
func StatusFor(err error) int {
	be, ok := domain.AsBookingError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	return statusForKind(be.Kind, be.Code)
}

// StatusForCode maps a result code from a tagged service result.
func StatusForCode(code string) int {
	switch code {
	case domain.CodeInvalidInput, domain.CodePastDate, domain.CodeInvalidRange,
		domain.CodeMinNights, domain.CodeMaxNights, domain.CodeInvalidCoupon,
		domain.CodeInvalidTransition, domain.CodeHoldExpired, domain.CodeHoldTokenMismatch:
		return http.StatusBadRequest
	case domain.CodePropertyNotFound, domain.CodeUserNotFound, domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeBlocked, domain.CodeBooked, domain.CodeNotAvailable, domain.CodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func statusForKind(kind domain.ErrorKind, code string) int {
	switch kind {
	case domain.KindValidation:
		if code == domain.CodeDuplicate {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case domain.KindReference:
		if code == domain.CodeInvalidCoupon {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case domain.KindAvailability:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as a JSON error. Booking errors keep their message;
// anything else is reported with fallback so storage details never leak.
func FromError(w http.ResponseWriter, err error, fallback string) {
	if be, ok := domain.AsBookingError(err); ok {
		WriteErrorWithDetails(w, statusForKind(be.Kind, be.Code), be.Message, be.Code, be.Details)
		return
	}
	WriteError(w, http.StatusInternalServerError, fallback, CodeInternalError)
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}
