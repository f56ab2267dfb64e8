package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
)

// mockStore is an in-memory TokenRepository and UserRepository.
type mockStore struct {
	mu        sync.Mutex
	tokens    map[int64]*domain.TokenRecord
	unclaimed map[string]bool
	users     map[int64]bool

	failGet    error
	failDelete error
}

func newMockStore() *mockStore {
	return &mockStore{
		tokens:    make(map[int64]*domain.TokenRecord),
		unclaimed: make(map[string]bool),
		users:     make(map[int64]bool),
	}
}

func (m *mockStore) GetToken(ctx context.Context, userID int64) (*domain.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	rec, ok := m.tokens[userID]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return rec.Clone(), nil
}

func (m *mockStore) UpsertToken(ctx context.Context, rec *domain.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[rec.UserID] = rec.Clone()
	return nil
}

func (m *mockStore) ResetExpiration(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.tokens[userID]; ok {
		rec.ExpiresAt = nil
	}
	return nil
}

func (m *mockStore) ClaimToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.unclaimed[token] {
		return domain.ErrTokenInvalid
	}
	delete(m.unclaimed, token)
	m.tokens[userID] = &domain.TokenRecord{UserID: userID, Token: token, ExpiresAt: &expiresAt}
	return nil
}

func (m *mockStore) AddUnclaimedToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unclaimed[token] = true
	return nil
}

func (m *mockStore) AddUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = true
	return nil
}

func (m *mockStore) HasUser(ctx context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID], nil
}

func (m *mockStore) DeleteUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	delete(m.users, userID)
	return nil
}

func (m *mockStore) ListUsers(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockStore) CountUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// copyCall records one CopyMessage invocation.
type copyCall struct {
	ChatID int64
	Src    domain.MessageRef
	Opts   domain.CopyOptions
}

// mockCopier replays scripted errors per recipient, one per call.
type mockCopier struct {
	mu     sync.Mutex
	calls  []copyCall
	script map[int64][]error
}

func newMockCopier() *mockCopier {
	return &mockCopier{script: make(map[int64][]error)}
}

func (m *mockCopier) fail(chatID int64, errs ...error) {
	m.script[chatID] = append(m.script[chatID], errs...)
}

func (m *mockCopier) CopyMessage(ctx context.Context, toChatID int64, src domain.MessageRef, opts domain.CopyOptions) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, copyCall{ChatID: toChatID, Src: src, Opts: opts})
	if errs := m.script[toChatID]; len(errs) > 0 {
		m.script[toChatID] = errs[1:]
		if errs[0] != nil {
			return 0, errs[0]
		}
	}
	return int64(len(m.calls)), nil
}

// mockMembers answers membership from a fixed set.
type mockMembers struct {
	members map[int64]bool
	err     error
	calls   int
}

func (m *mockMembers) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.members[userID], nil
}

// mockFetcher returns channel messages by id.
type mockFetcher struct {
	messages map[int64]domain.ChannelMessage
	err      error
}

func (m *mockFetcher) FetchMessages(ctx context.Context, channelID int64, ids []int64) ([]domain.ChannelMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ChannelMessage
	for _, id := range ids {
		if msg, ok := m.messages[id]; ok {
			out = append(out, msg)
		}
	}
	return out, nil
}

var errStoreDown = errors.New("connection refused")

// noSleep records requested delays without waiting.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (n *noSleep) Sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delays = append(n.delays, d)
	return ctx.Err()
}
