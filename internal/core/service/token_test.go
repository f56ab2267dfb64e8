package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/pkg/token"
)

func newTestTokenService(store *mockStore, clock *fakeClock, ttl time.Duration) *TokenService {
	return NewTokenService(store, &TokenServiceConfig{TTL: ttl, Now: clock.Now})
}

func TestNewTokenService_Defaults(t *testing.T) {
	svc := NewTokenService(newMockStore(), nil)
	if svc.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", svc.TTL(), DefaultTokenTTL)
	}

	svc = NewTokenService(newMockStore(), &TokenServiceConfig{TTL: -time.Second})
	if svc.TTL() != DefaultTokenTTL {
		t.Errorf("TTL() with negative config = %v, want %v", svc.TTL(), DefaultTokenTTL)
	}
}

func TestTokenService_GenerateThenValid(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(newMockStore(), newFakeClock(), 86*time.Second)

	for _, userID := range []int64{1, 42, 987654321, -5} {
		tok, err := svc.Generate(ctx, userID)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", userID, err)
		}
		if !token.IsHex(tok) {
			t.Errorf("Generate(%d) = %q, want 32 hex chars", userID, tok)
		}

		ok, err := svc.HasValid(ctx, userID)
		if err != nil {
			t.Fatalf("HasValid(%d) error = %v", userID, err)
		}
		if !ok {
			t.Errorf("HasValid(%d) = false right after Generate", userID)
		}
	}
}

func TestTokenService_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestTokenService(newMockStore(), clock, 86*time.Second)

	if _, err := svc.Generate(ctx, 7); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	clock.Advance(85 * time.Second)
	if ok, _ := svc.HasValid(ctx, 7); !ok {
		t.Error("HasValid() = false before expiry")
	}

	clock.Advance(time.Second)
	if ok, _ := svc.HasValid(ctx, 7); ok {
		t.Error("HasValid() = true at the expiry instant")
	}

	_, state, err := svc.Status(ctx, 7)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if state != domain.StateExpired {
		t.Errorf("Status() state = %v, want %v", state, domain.StateExpired)
	}
}

func TestTokenService_Reset(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(newMockStore(), newFakeClock(), time.Hour)

	tok, err := svc.Generate(ctx, 7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := svc.Reset(ctx, 7); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	if ok, _ := svc.HasValid(ctx, 7); ok {
		t.Error("HasValid() = true after Reset")
	}
	stored, found, err := svc.Stored(ctx, 7)
	if err != nil {
		t.Fatalf("Stored() error = %v", err)
	}
	if !found || stored != tok {
		t.Errorf("Stored() = %q, %v; want %q, true", stored, found, tok)
	}

	_, state, _ := svc.Status(ctx, 7)
	if state != domain.StateReset {
		t.Errorf("Status() state = %v, want %v", state, domain.StateReset)
	}

	// Reset of an unknown user is a no-op.
	if err := svc.Reset(ctx, 999); err != nil {
		t.Errorf("Reset(unknown) error = %v", err)
	}
}

func TestTokenService_ReissueAfterExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	svc := newTestTokenService(newMockStore(), clock, time.Minute)

	first, _ := svc.Generate(ctx, 7)
	clock.Advance(2 * time.Minute)

	second, err := svc.Generate(ctx, 7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if second == first {
		t.Error("reissued token equals the expired one")
	}
	stored, _, _ := svc.Stored(ctx, 7)
	if stored != second {
		t.Errorf("Stored() = %q, want the reissued %q", stored, second)
	}
	if ok, _ := svc.HasValid(ctx, 7); !ok {
		t.Error("HasValid() = false after reissue")
	}
}

func TestTokenService_Missing(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(newMockStore(), newFakeClock(), time.Minute)

	ok, err := svc.HasValid(ctx, 1)
	if err != nil || ok {
		t.Errorf("HasValid(missing) = %v, %v; want false, nil", ok, err)
	}
	tok, found, err := svc.Stored(ctx, 1)
	if err != nil || found || tok != "" {
		t.Errorf("Stored(missing) = %q, %v, %v; want \"\", false, nil", tok, found, err)
	}
	rec, state, err := svc.Status(ctx, 1)
	if err != nil || rec != nil || state != domain.StateNew {
		t.Errorf("Status(missing) = %v, %v, %v; want nil, new, nil", rec, state, err)
	}
}

func TestTokenService_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.failGet = errStoreDown
	svc := newTestTokenService(store, newFakeClock(), time.Minute)

	if _, err := svc.HasValid(ctx, 1); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("HasValid() error = %v, want ErrStorageError", err)
	}
	if _, _, err := svc.Stored(ctx, 1); !errors.Is(err, errStoreDown) {
		t.Errorf("Stored() error = %v, want cause %v", err, errStoreDown)
	}
}

func TestTokenService_Claim(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMockStore()
	svc := newTestTokenService(store, clock, time.Hour)

	minted, err := svc.Mint(ctx, 2)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if len(minted) != 2 || minted[0] == minted[1] {
		t.Fatalf("Mint() = %v, want two distinct tokens", minted)
	}

	tests := []struct {
		name    string
		userID  int64
		value   string
		wantErr error
	}{
		{"claim minted", 10, minted[0], nil},
		{"claim again", 11, minted[0], domain.ErrTokenInvalid},
		{"unknown token", 11, "deadbeef", domain.ErrTokenInvalid},
		{"empty token", 11, "  ", domain.ErrInvalidArgument},
		{"claim second", 11, " " + minted[1] + " ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Claim(ctx, tt.userID, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Claim() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	for _, userID := range []int64{10, 11} {
		if ok, _ := svc.HasValid(ctx, userID); !ok {
			t.Errorf("HasValid(%d) = false after Claim", userID)
		}
	}
	if _, err := svc.Mint(ctx, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Mint(0) error = %v, want ErrInvalidArgument", err)
	}
}

// TestTokenService_ConcurrentGenerate documents the last-writer-wins race:
// the final stored token is one of the issued values, without guarantee of which.
func TestTokenService_ConcurrentGenerate(t *testing.T) {
	ctx := context.Background()
	svc := newTestTokenService(newMockStore(), newFakeClock(), time.Hour)

	const n = 16
	issued := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := svc.Generate(ctx, 7)
			if err != nil {
				t.Errorf("Generate() error = %v", err)
				return
			}
			issued <- tok
		}()
	}
	wg.Wait()
	close(issued)

	seen := make(map[string]bool)
	for tok := range issued {
		seen[tok] = true
	}
	stored, _, _ := svc.Stored(ctx, 7)
	if !seen[stored] {
		t.Errorf("Stored() = %q, not one of the issued tokens", stored)
	}
	if ok, _ := svc.HasValid(ctx, 7); !ok {
		t.Error("HasValid() = false after concurrent issuance")
	}
}
