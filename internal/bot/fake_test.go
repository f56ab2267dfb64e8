package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/storage/memory"
	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
	"github.com/yndnr/filegate/pkg/deeplink"
)

const (
	testAdmin    int64 = 1
	testChannel  int64 = -1001234567890
	forceChannel int64 = -1009876543210
	testInvite         = "https://t.me/+invite"
	testUnlock         = "https://unlock.example/abc"
)

type sent struct {
	ChatID int64
	Text   string
	Opts   domain.SendOptions
}

type edited struct {
	Ref  domain.MessageRef
	Text string
	Opts domain.SendOptions
}

// fakeMessenger records everything the bot sends.
type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int64
	sent     []sent
	edited   []edited
	deleted  []domain.MessageRef
	answered map[string]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, answered: map[string]string{}}
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, text string, opts domain.SendOptions) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sent{ChatID: chatID, Text: text, Opts: opts})
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(_ context.Context, ref domain.MessageRef, text string, opts domain.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, edited{Ref: ref, Text: text, Opts: opts})
	return nil
}

func (f *fakeMessenger) Delete(_ context.Context, ref domain.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered[id] = text
	return nil
}

func (f *fakeMessenger) InviteLink(context.Context, int64) (string, error) {
	return testInvite, nil
}

func (f *fakeMessenger) Username() string { return "FileGateBot" }

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.Text
	}
	return out
}

// fakeChat stands in for the chat platform behind the services.
type fakeChat struct {
	mu       sync.Mutex
	members  map[int64]bool
	channel  map[int64]domain.ChannelMessage
	fetchErr error
	copyErr  map[int64]error
	copies   []copied
}

type copied struct {
	To  int64
	Src domain.MessageRef
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		members: map[int64]bool{},
		channel: map[int64]domain.ChannelMessage{},
		copyErr: map[int64]error{},
	}
}

func (c *fakeChat) IsMember(_ context.Context, _, userID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members[userID], nil
}

func (c *fakeChat) FetchMessages(_ context.Context, _ int64, ids []int64) ([]domain.ChannelMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	var out []domain.ChannelMessage
	for _, id := range ids {
		if m, ok := c.channel[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *fakeChat) CopyMessage(_ context.Context, to int64, src domain.MessageRef, _ domain.CopyOptions) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.copyErr[to]; err != nil {
		return 0, err
	}
	c.copies = append(c.copies, copied{To: to, Src: src})
	return int64(len(c.copies)), nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	bot       *Bot
	msg       *fakeMessenger
	chat      *fakeChat
	store     *memory.Store
	tokens    *service.TokenService
	codec     *deeplink.Codec
	clock     *clock
	metrics   *metric.Registry
	scheduled []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		msg:     newFakeMessenger(),
		chat:    newFakeChat(),
		store:   memory.New(),
		clock:   &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		metrics: metric.NewRegistry(),
	}
	codec, err := deeplink.NewCodec(testChannel)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	h.codec = codec

	h.tokens = service.NewTokenService(h.store, &service.TokenServiceConfig{TTL: 24 * time.Hour, Now: h.clock.Now})
	gate := service.NewGate(h.chat, h.tokens, &service.GateConfig{
		ForceChannelID: forceChannel,
		Admins:         []int64{testAdmin},
	})

	b, err := New(Deps{
		Messenger: h.msg,
		Tokens:    h.tokens,
		Users:     service.NewUserService(h.store),
		Gate:      gate,
		Delivery: service.NewDeliveryService(codec, h.chat, h.chat, service.DeliveryConfig{
			ChannelID: testChannel,
			Interval:  -1,
		}),
		Broadcast: service.NewBroadcastService(h.store, h.chat, &service.BroadcastConfig{Interval: -1}),
		Metrics:   h.metrics,
		Logger:    logger.Nop(),
	}, Config{
		UnlockURL:      testUnlock,
		ForceChannelID: forceChannel,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.after = func(_ time.Duration, f func()) { h.scheduled = append(h.scheduled, f) }
	h.bot = b
	return h
}

// join registers uid, marks it a channel member and gives it a valid token.
func (h *harness) join(t *testing.T, uid int64) string {
	t.Helper()
	ctx := context.Background()
	h.chat.members[uid] = true
	if err := h.store.AddUser(ctx, uid); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	tok, err := h.tokens.Generate(ctx, uid)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return tok
}

func (h *harness) command(t *testing.T, uid int64, text string) {
	t.Helper()
	u := Update{Message: &Message{
		ID:      7,
		ChatID:  uid,
		Private: true,
		From:    domain.User{ID: uid, FirstName: "Alice", Username: "alice"},
		Text:    text,
	}}
	if err := h.bot.Handle(context.Background(), u); err != nil {
		t.Fatalf("Handle(%q) error = %v", text, err)
	}
}

var errBoom = errors.New("boom")
