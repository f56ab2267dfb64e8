package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes follow the format FG-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "FG-TOKN-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenNotFound indicates no token record exists for the user.
	ErrTokenNotFound = NewDomainError("FG-TOKN-4040", "token not found")

	// ErrTokenInvalid indicates a presented token is unknown or already claimed.
	ErrTokenInvalid = NewDomainError("FG-TOKN-4010", "invalid token")
)

// ============================================================================
// Link Errors (LINK)
// ============================================================================

var (
	// ErrLinkMalformed indicates a deep-link payload could not be decoded.
	ErrLinkMalformed = NewDomainError("FG-LINK-4000", "malformed link")

	// ErrLinkRangeTooLarge indicates a range payload addresses too many messages.
	ErrLinkRangeTooLarge = NewDomainError("FG-LINK-4130", "link range too large")
)

// ============================================================================
// User Errors (USER)
// ============================================================================

var (
	// ErrUserNotFound indicates the user is not known to the bot.
	ErrUserNotFound = NewDomainError("FG-USER-4040", "user not found")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal error.
	ErrInternalServer = NewDomainError("FG-SYS-5000", "internal error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("FG-SYS-5001", "storage error")

	// ErrMessagingError indicates the messaging platform rejected a call.
	ErrMessagingError = NewDomainError("FG-SYS-5020", "messaging error")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("FG-ARG-1001", "invalid argument")

	// ErrPermissionDenied indicates the caller is not an admin.
	ErrPermissionDenied = NewDomainError("FG-AUTH-4030", "permission denied")
)

// ============================================================================
// Configuration Errors (CFG)
// ============================================================================

var (
	// ErrConfigInvalid indicates the configuration failed verification.
	ErrConfigInvalid = NewDomainError("FG-CFG-1001", "invalid configuration")
)
