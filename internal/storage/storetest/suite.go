// Package storetest provides a contract test suite shared by every
// storage backend.
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/core/service"
)

// Store is the behaviour every backend must provide.
type Store interface {
	service.TokenRepository
	service.UserRepository
}

// Factory returns an empty store. The factory registers its own cleanup.
type Factory func(t *testing.T) Store

// Run executes the contract suite against stores created by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("TokenUpsertAndGet", func(t *testing.T) { testTokenUpsertAndGet(t, newStore(t)) })
	t.Run("TokenNotFound", func(t *testing.T) { testTokenNotFound(t, newStore(t)) })
	t.Run("TokenReset", func(t *testing.T) { testTokenReset(t, newStore(t)) })
	t.Run("TokenClaim", func(t *testing.T) { testTokenClaim(t, newStore(t)) })
	t.Run("TokenClaimConcurrent", func(t *testing.T) { testTokenClaimConcurrent(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func ts(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func testTokenUpsertAndGet(t *testing.T, s Store) {
	ctx := context.Background()

	rec := &domain.TokenRecord{UserID: 42, Token: "0123456789abcdef0123456789abcdef", ExpiresAt: ts(1700000000)}
	if err := s.UpsertToken(ctx, rec); err != nil {
		t.Fatalf("UpsertToken() error = %v", err)
	}

	got, err := s.GetToken(ctx, 42)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if got.UserID != 42 || got.Token != rec.Token || !sameInstant(got.ExpiresAt, rec.ExpiresAt) {
		t.Errorf("GetToken() = %+v, want %+v", got, rec)
	}

	// Overwrite keeps one record per user.
	next := &domain.TokenRecord{UserID: 42, Token: "ffffffffffffffffffffffffffffffff", ExpiresAt: ts(1700000500)}
	if err := s.UpsertToken(ctx, next); err != nil {
		t.Fatalf("UpsertToken() overwrite error = %v", err)
	}
	got, err = s.GetToken(ctx, 42)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if got.Token != next.Token || !sameInstant(got.ExpiresAt, next.ExpiresAt) {
		t.Errorf("GetToken() after overwrite = %+v, want %+v", got, next)
	}

	// Mutating the returned record must not reach the store.
	got.Token = "mutated"
	again, _ := s.GetToken(ctx, 42)
	if again.Token != next.Token {
		t.Errorf("store returned a shared record: %q", again.Token)
	}
}

func testTokenNotFound(t *testing.T, s Store) {
	_, err := s.GetToken(context.Background(), 7)
	if !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("GetToken() error = %v, want ErrTokenNotFound", err)
	}
}

func testTokenReset(t *testing.T, s Store) {
	ctx := context.Background()

	rec := &domain.TokenRecord{UserID: 5, Token: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ExpiresAt: ts(1700000000)}
	if err := s.UpsertToken(ctx, rec); err != nil {
		t.Fatalf("UpsertToken() error = %v", err)
	}
	if err := s.ResetExpiration(ctx, 5); err != nil {
		t.Fatalf("ResetExpiration() error = %v", err)
	}

	got, err := s.GetToken(ctx, 5)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if got.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v after reset, want nil", got.ExpiresAt)
	}
	if got.Token != rec.Token {
		t.Errorf("Token = %q after reset, want %q", got.Token, rec.Token)
	}

	// Resetting an unknown user creates nothing.
	if err := s.ResetExpiration(ctx, 6); err != nil {
		t.Fatalf("ResetExpiration(unknown) error = %v", err)
	}
	if _, err := s.GetToken(ctx, 6); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("GetToken() after reset of unknown user error = %v, want ErrTokenNotFound", err)
	}
}

func testTokenClaim(t *testing.T, s Store) {
	ctx := context.Background()
	const tok = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	exp := time.Unix(1700000000, 0).UTC()

	if err := s.ClaimToken(ctx, tok, 9, exp); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("ClaimToken() before mint error = %v, want ErrTokenInvalid", err)
	}

	if err := s.AddUnclaimedToken(ctx, tok); err != nil {
		t.Fatalf("AddUnclaimedToken() error = %v", err)
	}
	if _, err := s.GetToken(ctx, 9); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("an unclaimed token should not belong to a user, got %v", err)
	}

	if err := s.ClaimToken(ctx, tok, 9, exp); err != nil {
		t.Fatalf("ClaimToken() error = %v", err)
	}
	got, err := s.GetToken(ctx, 9)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if got.Token != tok || !sameInstant(got.ExpiresAt, &exp) {
		t.Errorf("GetToken() = %+v, want token %q expiring %v", got, tok, exp)
	}

	if err := s.ClaimToken(ctx, tok, 10, exp); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("second ClaimToken() error = %v, want ErrTokenInvalid", err)
	}
}

func testTokenClaimConcurrent(t *testing.T, s Store) {
	ctx := context.Background()
	const tok = "cccccccccccccccccccccccccccccccc"
	if err := s.AddUnclaimedToken(ctx, tok); err != nil {
		t.Fatalf("AddUnclaimedToken() error = %v", err)
	}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			err := s.ClaimToken(ctx, tok, uid, time.Unix(1700000000, 0))
			switch {
			case err == nil:
				mu.Lock()
				winners++
				mu.Unlock()
			case !errors.Is(err, domain.ErrTokenInvalid):
				t.Errorf("ClaimToken() error = %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("%d concurrent claims succeeded, want 1", winners)
	}
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()

	if n, err := s.CountUsers(ctx); err != nil || n != 0 {
		t.Fatalf("CountUsers() = %d, %v; want 0, nil", n, err)
	}

	for _, id := range []int64{3, 1, 2, 1} {
		if err := s.AddUser(ctx, id); err != nil {
			t.Fatalf("AddUser(%d) error = %v", id, err)
		}
	}

	if ok, err := s.HasUser(ctx, 2); err != nil || !ok {
		t.Errorf("HasUser(2) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := s.HasUser(ctx, 99); err != nil || ok {
		t.Errorf("HasUser(99) = %v, %v; want false, nil", ok, err)
	}
	if n, _ := s.CountUsers(ctx); n != 3 {
		t.Errorf("CountUsers() = %d, want 3", n)
	}

	ids, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if diff := cmp.Diff([]int64{1, 2, 3}, ids); diff != "" {
		t.Errorf("ListUsers() mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteUser(ctx, 2); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := s.DeleteUser(ctx, 2); err != nil {
		t.Errorf("DeleteUser() of a removed user error = %v", err)
	}
	if ok, _ := s.HasUser(ctx, 2); ok {
		t.Error("HasUser(2) = true after DeleteUser")
	}
	if n, _ := s.CountUsers(ctx); n != 2 {
		t.Errorf("CountUsers() = %d, want 2", n)
	}
}
