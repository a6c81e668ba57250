package protocol

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures of the authentication engine and failures
// reported by the identity service.
type ErrorCode string

// Error codes.
const (
	// ErrCodeInvalidEncoding indicates malformed hex or base64 input. Local,
	// reported immediately, never retried.
	ErrCodeInvalidEncoding ErrorCode = "INVALID_ENCODING"
	// ErrCodeDegenerateExchange indicates an ephemeral or server public value
	// reduced to zero mod N, or a zero scrambler. Fatal after the bounded
	// regeneration attempts.
	ErrCodeDegenerateExchange ErrorCode = "DEGENERATE_EXCHANGE"
	// ErrCodeLengthTooLarge indicates an HKDF expand request beyond the
	// 255-block RFC 5869 limit.
	ErrCodeLengthTooLarge ErrorCode = "LENGTH_TOO_LARGE"
	// ErrCodeChallengeMismatch indicates the service rejected a claim, or a
	// challenge arrived that the engine has no material to answer.
	ErrCodeChallengeMismatch ErrorCode = "CHALLENGE_MISMATCH"
	// ErrCodeCodeMismatch indicates the service rejected an MFA code. The
	// caller may re-prompt and retry within the coordinator's budget.
	ErrCodeCodeMismatch ErrorCode = "CODE_MISMATCH"
	// ErrCodeMFAAttemptsExceeded indicates the MFA retry budget ran out.
	ErrCodeMFAAttemptsExceeded ErrorCode = "MFA_ATTEMPTS_EXCEEDED"
	// ErrCodeProtocolViolation indicates tokens or a challenge arrived in a
	// state that must not accept them. Always fatal and never retried.
	ErrCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	// ErrCodeNotAuthorized indicates the service refused the credentials.
	ErrCodeNotAuthorized ErrorCode = "NOT_AUTHORIZED"
	// ErrCodeSessionExpired indicates the in-flight authentication session
	// expired service-side.
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	// ErrCodeEntropyFailure indicates the secure random source failed.
	ErrCodeEntropyFailure ErrorCode = "ENTROPY_FAILURE"
)

// Error is the engine's error type. Code carries the classification, Message
// a stable description, Details the failure-specific context.
type Error struct {
	Code    ErrorCode
	Message string
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new Error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithDetails creates a new Error with details.
func NewErrorWithDetails(code ErrorCode, message, details string) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// CodeOf returns the error code carried by err, or an empty code if err is
// not (wrapping) a protocol Error.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether the caller may retry the failed step. Only a
// rejected MFA code is retryable; every cryptographic or protocol failure is
// terminal for the attempt.
func IsRetryable(err error) bool {
	return IsCode(err, ErrCodeCodeMismatch)
}

// Common error constructors

// NewInvalidEncodingError creates an invalid encoding error.
func NewInvalidEncodingError(details string) *Error {
	return NewErrorWithDetails(ErrCodeInvalidEncoding, "Malformed protocol value", details)
}

// NewDegenerateExchangeError creates a degenerate exchange error.
func NewDegenerateExchangeError(details string) *Error {
	return NewErrorWithDetails(ErrCodeDegenerateExchange, "Degenerate key exchange", details)
}

// NewLengthTooLargeError creates a length too large error.
func NewLengthTooLargeError(requested, limit int) *Error {
	return NewErrorWithDetails(ErrCodeLengthTooLarge, "Requested key length exceeds HKDF limit",
		fmt.Sprintf("%d bytes exceeds maximum of %d bytes", requested, limit))
}

// NewChallengeMismatchError creates a challenge mismatch error.
func NewChallengeMismatchError(details string) *Error {
	return NewErrorWithDetails(ErrCodeChallengeMismatch, "Challenge cannot be answered", details)
}

// NewCodeMismatchError creates a code mismatch error.
func NewCodeMismatchError(details string) *Error {
	return NewErrorWithDetails(ErrCodeCodeMismatch, "MFA code rejected", details)
}

// NewMFAAttemptsExceededError creates an MFA attempts exceeded error.
func NewMFAAttemptsExceededError(attempts int) *Error {
	return NewErrorWithDetails(ErrCodeMFAAttemptsExceeded, "MFA retry budget exhausted",
		fmt.Sprintf("%d attempts rejected", attempts))
}

// NewProtocolViolationError creates a protocol violation error.
func NewProtocolViolationError(details string) *Error {
	return NewErrorWithDetails(ErrCodeProtocolViolation, "Protocol violation", details)
}

// NewNotAuthorizedError creates a not authorized error.
func NewNotAuthorizedError(details string) *Error {
	return NewErrorWithDetails(ErrCodeNotAuthorized, "Not authorized", details)
}

// NewEntropyFailureError creates an entropy failure error.
func NewEntropyFailureError(details string) *Error {
	return NewErrorWithDetails(ErrCodeEntropyFailure, "Secure random source failed", details)
}
