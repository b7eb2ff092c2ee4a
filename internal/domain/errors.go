package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindAvailability ErrorKind = "availability"
	KindReference    ErrorKind = "reference"
	KindInternal     ErrorKind = "internal"
)

const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodePastDate          = "PAST_DATE"
	CodeInvalidRange      = "INVALID_RANGE"
	CodeMinNights         = "MIN_NIGHTS"
	CodeMaxNights         = "MAX_NIGHTS"
	CodeBlocked           = "DATES_BLOCKED"
	CodeBooked            = "DATES_BOOKED"
	CodeNotAvailable      = "NOT_AVAILABLE"
	CodePropertyNotFound  = "PROPERTY_NOT_FOUND"
	CodeInvalidCoupon     = "INVALID_COUPON"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeHoldExpired       = "HOLD_EXPIRED"
	CodeHoldTokenMismatch = "HOLD_TOKEN_MISMATCH"
	CodeDuplicate         = "DUPLICATE"
	CodeInternal          = "INTERNAL_ERROR"
)

// BookingError is a failure the caller can act on. Message is safe to show
// to guests; infrastructure errors never become a BookingError verbatim.
type BookingError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details string
}

func (e *BookingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func NewValidationError(code, message, details string) *BookingError {
	return &BookingError{Kind: KindValidation, Code: code, Message: message, Details: details}
}

func NewAvailabilityError(code, message, details string) *BookingError {
	return &BookingError{Kind: KindAvailability, Code: code, Message: message, Details: details}
}

func NewReferenceError(code, message, details string) *BookingError {
	return &BookingError{Kind: KindReference, Code: code, Message: message, Details: details}
}

// AsBookingError unwraps err to a *BookingError when it is one.
func AsBookingError(err error) (*BookingError, bool) {
	var be *BookingError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

var (
	ErrPropertyNotFound = NewReferenceError(CodePropertyNotFound, "Property not found", "")
	ErrInvalidCoupon    = NewReferenceError(CodeInvalidCoupon, "Invalid or expired coupon code", "")
)
