package memory

import (
	"context"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/pkg/cmap"
)

// Store provides in-memory token and user storage.
type Store struct {
	// UserID -> token record
	tokens *cmap.Map[int64, *domain.TokenRecord]

	// Tokens minted but not yet attached to a user
	unclaimed *cmap.Map[string, struct{}]

	// UserID -> registration time
	users *cmap.Map[int64, time.Time]

	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the number of shards per map.
func WithShards(n int) Option {
	return func(s *Store) {
		s.tokens = cmap.NewWithShards[int64, *domain.TokenRecord](n)
		s.unclaimed = cmap.NewWithShards[string, struct{}](n)
		s.users = cmap.NewWithShards[int64, time.Time](n)
	}
}

// WithClock sets the clock used for user registration times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		tokens:    cmap.New[int64, *domain.TokenRecord](),
		unclaimed: cmap.New[string, struct{}](),
		users:     cmap.New[int64, time.Time](),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetToken returns a copy of the user's token record.
func (s *Store) GetToken(_ context.Context, userID int64) (*domain.TokenRecord, error) {
	rec, ok := s.tokens.Get(userID)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return rec.Clone(), nil
}

// UpsertToken creates or overwrites the user's token record.
func (s *Store) UpsertToken(_ context.Context, rec *domain.TokenRecord) error {
	s.tokens.Set(rec.UserID, rec.Clone())
	return nil
}

// ResetExpiration clears the expiry of an existing record.
func (s *Store) ResetExpiration(_ context.Context, userID int64) error {
	s.tokens.UpdateIfPresent(userID, func(rec *domain.TokenRecord) *domain.TokenRecord {
		c := rec.Clone()
		c.ExpiresAt = nil
		return c
	})
	return nil
}

// ClaimToken attaches an unclaimed token to the user.
func (s *Store) ClaimToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	if _, ok := s.unclaimed.Pop(token); !ok {
		return domain.ErrTokenInvalid
	}
	s.tokens.Set(userID, &domain.TokenRecord{
		UserID:    userID,
		Token:     token,
		ExpiresAt: &expiresAt,
	})
	return nil
}

// AddUnclaimedToken stores a token without an owner.
func (s *Store) AddUnclaimedToken(_ context.Context, token string) error {
	s.unclaimed.Set(token, struct{}{})
	return nil
}

// AddUser registers the user, keeping the first registration time.
func (s *Store) AddUser(_ context.Context, userID int64) error {
	s.users.SetIfAbsent(userID, s.now())
	return nil
}

// HasUser reports whether the user is registered.
func (s *Store) HasUser(_ context.Context, userID int64) (bool, error) {
	return s.users.Has(userID), nil
}

// DeleteUser removes the user.
func (s *Store) DeleteUser(_ context.Context, userID int64) error {
	s.users.Delete(userID)
	return nil
}

// ListUsers returns the ids of all registered users in no particular order.
func (s *Store) ListUsers(_ context.Context) ([]int64, error) {
	return s.users.Keys(), nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(_ context.Context) (int64, error) {
	return int64(s.users.Count()), nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases nothing; it exists to satisfy the storage interface.
func (s *Store) Close() error {
	return nil
}
