package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/pkg/token"
)

// DefaultTokenTTL is the default verification window.
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues, validates and expires verification tokens.
//
// Writes for the same user are last-writer-wins: two concurrent
// Generate calls both succeed and either token may be the one stored.
type TokenService struct {
	repo     TokenRepository
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// TokenServiceConfig holds configuration for TokenService.
type TokenServiceConfig struct {
	// TTL is the token expiration period (default: 24h).
	TTL time.Duration

	// Now is the clock used for expiry (default: time.Now).
	Now func() time.Time
}

// DefaultTokenServiceConfig returns default configuration.
func DefaultTokenServiceConfig() *TokenServiceConfig {
	return &TokenServiceConfig{
		TTL: DefaultTokenTTL,
		Now: time.Now,
	}
}

// NewTokenService creates a new TokenService with the given repository and config.
func NewTokenService(repo TokenRepository, config *TokenServiceConfig) *TokenService {
	if config == nil {
		config = DefaultTokenServiceConfig()
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		repo:     repo,
		ttl:      ttl,
		now:      now,
		generate: token.Generate,
	}
}

// TTL returns the configured expiration period.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Now returns the current time on the service clock.
func (s *TokenService) Now() time.Time {
	return s.now()
}

// Generate issues a fresh token for the user, valid for TTL from now.
// Any existing record for the user is overwritten.
func (s *TokenService) Generate(ctx context.Context, userID int64) (string, error) {
	// 1. Create the random value
	tok, err := s.generate()
	if err != nil {
		return "", domain.ErrInternalServer.WithCause(err)
	}

	// 2. Start the expiry window
	exp := s.now().Add(s.ttl)

	// 3. Upsert keyed by user
	rec := &domain.TokenRecord{
		UserID:    userID,
		Token:     tok,
		ExpiresAt: &exp,
	}
	if err := s.repo.UpsertToken(ctx, rec); err != nil {
		return "", storageErr(err)
	}
	return tok, nil
}

// HasValid reports whether the user holds a token whose expiry is set and
// lies in the future. A missing record is not an error.
func (s *TokenService) HasValid(ctx context.Context, userID int64) (bool, error) {
	rec, err := s.lookup(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.ValidAt(s.now()), nil
}

// Stored returns the user's token regardless of its validity.
// The boolean is false when no record exists.
func (s *TokenService) Stored(ctx context.Context, userID int64) (string, bool, error) {
	rec, err := s.lookup(ctx, userID)
	if err != nil || rec == nil {
		return "", false, err
	}
	return rec.Token, true, nil
}

// Reset clears the expiry of the user's token, keeping the token value.
func (s *TokenService) Reset(ctx context.Context, userID int64) error {
	if err := s.repo.ResetExpiration(ctx, userID); err != nil {
		return storageErr(err)
	}
	return nil
}

// Status returns the user's record (nil if none) and its derived state.
func (s *TokenService) Status(ctx context.Context, userID int64) (*domain.TokenRecord, domain.TokenState, error) {
	rec, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, domain.StateNew, err
	}
	return rec, domain.StateOf(rec, s.now()), nil
}

// Claim attaches a previously minted, unclaimed token to the user and
// starts its expiry window.
func (s *TokenService) Claim(ctx context.Context, userID int64, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.ErrInvalidArgument.WithDetails("token is required")
	}

	err := s.repo.ClaimToken(ctx, value, userID, s.now().Add(s.ttl))
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// Mint stores n new unclaimed tokens and returns them.
func (s *TokenService) Mint(ctx context.Context, n int) ([]string, error) {
	if n < 1 {
		return nil, domain.ErrInvalidArgument.WithDetails("count must be positive")
	}

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tok, err := s.generate()
		if err != nil {
			return out, domain.ErrInternalServer.WithCause(err)
		}
		if err := s.repo.AddUnclaimedToken(ctx, tok); err != nil {
			return out, storageErr(err)
		}
		out = append(out, tok)
	}
	return out, nil
}

// lookup returns the record or nil when the user has none.
func (s *TokenService) lookup(ctx context.Context, userID int64) (*domain.TokenRecord, error) {
	rec, err := s.repo.GetToken(ctx, userID)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return rec, nil
}
