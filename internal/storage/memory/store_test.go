package memory

import (
	"context"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/storage/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return New(WithShards(4))
	})
}

func TestStore_AddUserKeepsFirstRegistration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return now }))

	if err := s.AddUser(ctx, 1); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	now = now.Add(time.Hour)
	if err := s.AddUser(ctx, 1); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	got, _ := s.users.Get(1)
	if !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("registration time = %v, want the first one", got)
	}
}

func TestStore_PingClose(t *testing.T) {
	s := New()
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
