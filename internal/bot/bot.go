package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yndnr/filegate/internal/core/service"
	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
)

// DefaultReplyErrorTTL is how long a usage error stays in the chat.
const DefaultReplyErrorTTL = 8 * time.Second

// Deps are the collaborators of a Bot.
type Deps struct {
	Messenger Messenger
	Tokens    *service.TokenService
	Users     *service.UserService
	Gate      *service.Gate
	Delivery  *service.DeliveryService
	Broadcast *service.BroadcastService

	// Metrics defaults to a private registry.
	Metrics *metric.Registry

	// Logger defaults to logger.Default().
	Logger logger.Logger
}

// Config holds configuration for Bot.
type Config struct {
	// UnlockURL is the target of the unlock button on the start message.
	// Empty hides the button.
	UnlockURL string

	// ForceChannelID is the channel named in the join prompt.
	ForceChannelID int64

	Templates Templates

	// ReplyErrorTTL is how long usage errors stay visible (default: 8s).
	ReplyErrorTTL time.Duration
}

// Bot routes updates to the command and callback handlers.
type Bot struct {
	msg       Messenger
	tokens    *service.TokenService
	users     *service.UserService
	gate      *service.Gate
	delivery  *service.DeliveryService
	broadcast *service.BroadcastService
	metrics   *metric.Registry
	log       logger.Logger

	unlockURL     string
	channelID     int64
	replyErrorTTL time.Duration
	templates     atomic.Pointer[Templates]

	after func(time.Duration, func())
}

// New creates a Bot.
func New(deps Deps, cfg Config) (*Bot, error) {
	switch {
	case deps.Messenger == nil:
		return nil, errors.New("bot: messenger is required")
	case deps.Tokens == nil, deps.Users == nil, deps.Gate == nil:
		return nil, errors.New("bot: token, user and gate services are required")
	case deps.Delivery == nil, deps.Broadcast == nil:
		return nil, errors.New("bot: delivery and broadcast services are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metric.NewRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if cfg.ReplyErrorTTL <= 0 {
		cfg.ReplyErrorTTL = DefaultReplyErrorTTL
	}

	b := &Bot{
		msg:           deps.Messenger,
		tokens:        deps.Tokens,
		users:         deps.Users,
		gate:          deps.Gate,
		delivery:      deps.Delivery,
		broadcast:     deps.Broadcast,
		metrics:       deps.Metrics,
		log:           deps.Logger,
		unlockURL:     cfg.UnlockURL,
		channelID:     cfg.ForceChannelID,
		replyErrorTTL: cfg.ReplyErrorTTL,
		after:         func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	b.SetTemplates(cfg.Templates)
	return b, nil
}

// SetTemplates replaces the message templates. Empty fields fall back to
// the defaults. Safe to call while updates are being handled.
func (b *Bot) SetTemplates(t Templates) {
	t = t.withDefaults()
	b.templates.Store(&t)
}

// Templates returns the templates in use.
func (b *Bot) Templates() Templates {
	return *b.templates.Load()
}

// Handle processes one update. Messages outside private chats are ignored.
func (b *Bot) Handle(ctx context.Context, u Update) error {
	if u.Callback != nil {
		return b.onCallback(ctx, u.Callback)
	}
	m := u.Message
	if m == nil || !m.Private {
		return nil
	}

	cmd, args := m.Command()
	switch cmd {
	case CmdStart:
		return b.onStart(ctx, m, args)
	case CmdCheck:
		return b.onCheck(ctx, m)
	case CmdToken:
		return b.onToken(ctx, m, args)
	case CmdUsers:
		if b.gate.IsAdmin(m.From.ID) {
			return b.onUsers(ctx, m)
		}
	case CmdBroadcast:
		if b.gate.IsAdmin(m.From.ID) {
			return b.onBroadcast(ctx, m)
		}
	}
	return nil
}

func (b *Bot) onCallback(ctx context.Context, cb *Callback) error {
	switch cb.Data {
	case CbStopProcess:
		if err := b.tokens.Reset(ctx, cb.From.ID); err != nil {
			return fmt.Errorf("reset token: %w", err)
		}
		b.metrics.IncTokenReset()
		return b.msg.AnswerCallback(ctx, cb.ID, textStopped)
	case CbAbout:
		return b.onAbout(ctx, cb)
	case CbClose:
		if err := b.msg.AnswerCallback(ctx, cb.ID, ""); err != nil {
			return err
		}
		if cb.Message == nil {
			return nil
		}
		return b.msg.Delete(ctx, *cb.Message)
	}
	return b.msg.AnswerCallback(ctx, cb.ID, "")
}
