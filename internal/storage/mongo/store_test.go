package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/storage/storetest"
)

// These tests need a real server: FILEGATE_TEST_MONGO_URI=mongodb://localhost:27017
func testURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("FILEGATE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FILEGATE_TEST_MONGO_URI not set")
	}
	return uri
}

var dbSeq atomic.Int64

func newTestStore(t *testing.T, uri string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, Config{
		URI:            uri,
		Database:       fmt.Sprintf("filegate_test_%d_%d", time.Now().UnixNano(), dbSeq.Add(1)),
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		s.Drop(context.Background())
		s.Close()
	})
	return s
}

func TestStore_Contract(t *testing.T) {
	uri := testURI(t)
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return newTestStore(t, uri)
	})
}

func TestStore_ClaimWriteFailureKeepsToken(t *testing.T) {
	s := newTestStore(t, testURI(t))
	ctx := context.Background()

	if err := s.AddUnclaimedToken(ctx, "abc"); err != nil {
		t.Fatalf("AddUnclaimedToken() error = %v", err)
	}
	errWrite := errors.New("write failed")
	s.upsert = func(context.Context, *domain.TokenRecord) error { return errWrite }

	if err := s.ClaimToken(ctx, "abc", 12, time.Now().Add(time.Hour)); !errors.Is(err, errWrite) {
		t.Fatalf("ClaimToken() error = %v, want %v", err, errWrite)
	}

	s.upsert = s.UpsertToken
	if err := s.ClaimToken(ctx, "abc", 12, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("ClaimToken() retry error = %v", err)
	}
	rec, err := s.GetToken(ctx, 12)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if rec.Token != "abc" {
		t.Errorf("GetToken().Token = %q, want abc", rec.Token)
	}
}

func TestNew_RequiresDatabase(t *testing.T) {
	if _, err := New(context.Background(), Config{URI: "mongodb://localhost:27017"}); err == nil {
		t.Error("New() without a database name succeeded")
	}
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(context.Background(), Config{
		URI:            "mongodb://127.0.0.1:1",
		Database:       "filegate",
		ConnectTimeout: 200 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("New() against a closed port succeeded")
	}
	if !strings.Contains(err.Error(), "mongo: ping") {
		t.Errorf("New() error = %v, want the ping failure", err)
	}
}
