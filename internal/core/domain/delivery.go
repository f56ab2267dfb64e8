package domain

import (
	"errors"
	"fmt"
	"time"
)

// DeliveryKind classifies a failed send to a recipient.
type DeliveryKind int

const (
	// DeliveryFailed is any failure without a specific policy.
	DeliveryFailed DeliveryKind = iota

	// DeliveryFloodWait is a transient rate-limit signal carrying RetryAfter.
	DeliveryFloodWait

	// DeliveryBlocked means the recipient blocked the bot.
	DeliveryBlocked

	// DeliveryDeactivated means the recipient's account no longer exists.
	DeliveryDeactivated
)

// String returns the kind name.
func (k DeliveryKind) String() string {
	switch k {
	case DeliveryFloodWait:
		return "flood_wait"
	case DeliveryBlocked:
		return "blocked"
	case DeliveryDeactivated:
		return "deactivated"
	default:
		return "failed"
	}
}

// Permanent reports whether the recipient is unreachable for good.
func (k DeliveryKind) Permanent() bool {
	return k == DeliveryBlocked || k == DeliveryDeactivated
}

// DeliveryError is a classified messaging failure.
type DeliveryError struct {
	Kind       DeliveryKind
	RetryAfter time.Duration
	Cause      error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Kind == DeliveryFloodWait {
		return fmt.Sprintf("delivery %s (retry after %s): %v", e.Kind, e.RetryAfter, e.Cause)
	}
	return fmt.Sprintf("delivery %s: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// NewDeliveryError creates a DeliveryError of the given kind.
func NewDeliveryError(kind DeliveryKind, cause error) *DeliveryError {
	return &DeliveryError{Kind: kind, Cause: cause}
}

// NewFloodWait creates a flood-wait DeliveryError.
func NewFloodWait(retryAfter time.Duration, cause error) *DeliveryError {
	return &DeliveryError{Kind: DeliveryFloodWait, RetryAfter: retryAfter, Cause: cause}
}

// DeliveryKindOf returns the kind of err. Errors that are not a
// DeliveryError are DeliveryFailed.
func DeliveryKindOf(err error) (DeliveryKind, time.Duration) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind, de.RetryAfter
	}
	return DeliveryFailed, 0
}
