package service

import (
	"context"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
)

// TokenRepository defines the storage interface for token records.
// Single-record operations are atomic; there are no cross-record transactions.
type TokenRepository interface {
	// GetToken returns the user's record, or domain.ErrTokenNotFound.
	GetToken(ctx context.Context, userID int64) (*domain.TokenRecord, error)

	// UpsertToken creates or overwrites the record keyed by rec.UserID.
	UpsertToken(ctx context.Context, rec *domain.TokenRecord) error

	// ResetExpiration clears the expiry of the user's record.
	// It is a no-op when no record exists.
	ResetExpiration(ctx context.Context, userID int64) error

	// ClaimToken attaches an unclaimed token to the user and sets its expiry.
	// Unknown or already claimed tokens give domain.ErrTokenInvalid.
	ClaimToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error

	// AddUnclaimedToken stores a token not yet attached to any user.
	AddUnclaimedToken(ctx context.Context, token string) error
}

// UserRepository defines the storage interface for the user registry.
type UserRepository interface {
	// AddUser registers the user. Registering a known user is a no-op.
	AddUser(ctx context.Context, userID int64) error

	// HasUser reports whether the user is known.
	HasUser(ctx context.Context, userID int64) (bool, error)

	// DeleteUser removes the user. Removing an unknown user is a no-op.
	DeleteUser(ctx context.Context, userID int64) error

	// ListUsers returns the ids of all known users.
	ListUsers(ctx context.Context) ([]int64, error)

	// CountUsers returns the number of known users.
	CountUsers(ctx context.Context) (int64, error)
}

// MembershipChecker answers whether a user belongs to a channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
}

// ContentFetcher reads messages from the database channel.
// Ids that do not resolve to a message are skipped.
type ContentFetcher interface {
	FetchMessages(ctx context.Context, channelID int64, ids []int64) ([]domain.ChannelMessage, error)
}

// MessageCopier copies an existing message into a chat.
// Failures are reported as *domain.DeliveryError.
type MessageCopier interface {
	CopyMessage(ctx context.Context, toChatID int64, src domain.MessageRef, opts domain.CopyOptions) (int64, error)
}

// storageErr wraps a repository failure as domain.ErrStorageError unless it
// already carries a domain code.
func storageErr(err error) error {
	if err == nil || domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
