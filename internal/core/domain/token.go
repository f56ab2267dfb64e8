package domain

import "time"

// TokenState is the derived lifecycle state of a user's token.
type TokenState int

const (
	// StateNew means no token record exists for the user.
	StateNew TokenState = iota

	// StateIssued means the token is valid at the evaluated instant.
	StateIssued

	// StateExpired means the expiry time has passed.
	StateExpired

	// StateReset means the record exists but its expiry was cleared,
	// either explicitly or because the window never started.
	StateReset
)

// String returns the state name.
func (s TokenState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateIssued:
		return "issued"
	case StateExpired:
		return "expired"
	case StateReset:
		return "reset"
	default:
		return "unknown"
	}
}

// TokenRecord is the verification token held for one user.
// There is at most one record per user; issuing a new token overwrites it.
type TokenRecord struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`

	// ExpiresAt is nil when the window has not started or was reset.
	ExpiresAt *time.Time `json:"expiration_time"`
}

// Clone returns a deep copy of the record.
func (r *TokenRecord) Clone() *TokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// ValidAt reports whether the token is valid at now.
// A nil ExpiresAt is never valid, and an expiry equal to now is already expired.
func (r *TokenRecord) ValidAt(now time.Time) bool {
	return r != nil && r.ExpiresAt != nil && r.ExpiresAt.After(now)
}

// Remaining returns the time left before expiry, or zero.
func (r *TokenRecord) Remaining(now time.Time) time.Duration {
	if !r.ValidAt(now) {
		return 0
	}
	return r.ExpiresAt.Sub(now)
}

// StateOf derives the lifecycle state of rec at now. A nil record is StateNew.
func StateOf(rec *TokenRecord, now time.Time) TokenState {
	switch {
	case rec == nil:
		return StateNew
	case rec.ExpiresAt == nil:
		return StateReset
	case rec.ExpiresAt.After(now):
		return StateIssued
	default:
		return StateExpired
	}
}
