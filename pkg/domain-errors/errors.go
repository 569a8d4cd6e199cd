// Package domainerrors provides coded errors for the trust core. Services
// wrap store and infrastructure failures into coded errors; handlers map
// codes to HTTP statuses and JSON envelopes without inspecting internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Generic codes.
const (
	CodeBadRequest         = "bad_request"
	CodeValidation         = "validation_failed"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeForbidden          = "forbidden"
	CodeUnauthorized       = "unauthorized"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
	CodeInvariantViolation = "invariant_violation"
)

// Compliance decision codes. These travel into audit entries and API
// responses, so their spelling is part of the contract.
const (
	CodeUnknownJurisdiction = "unknown_jurisdiction"
	CodeSellerUnverified    = "seller_unverified"
	CodeColdChainMismatch   = "cold_chain_mismatch"
	CodeAlreadyPending      = "already_pending"
	CodeExpiredLicense      = "expired_license_on_approval"
	CodeNotRxGated          = "not_rx_gated"
	CodeInvalidTransition   = "invalid_transition"
)

// Error is a coded domain error.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. If err is
// already coded, the original code is preserved and only context is added.
func Wrap(err error, code, message string) *Error {
	var coded *Error
	if errors.As(err, &coded) {
		code = coded.Code
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of err, or "" when err is not coded.
func CodeOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// MessageOf returns the message of err, or its Error() string when err is
// not coded.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ToHTTPStatus maps a coded error to its HTTP status.
func ToHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeSellerUnverified:
		return http.StatusForbidden
	case CodeNotFound, CodeUnknownJurisdiction:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyPending, CodeInvalidTransition:
		return http.StatusConflict
	case CodeExpiredLicense, CodeColdChainMismatch, CodeNotRxGated, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
