package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/pkg/deeplink"
)

// DefaultDeliveryInterval is the pause between two copies to the same user.
const DefaultDeliveryInterval = 500 * time.Millisecond

// DeliveryConfig holds configuration for DeliveryService.
type DeliveryConfig struct {
	// ChannelID is the database channel holding the content.
	ChannelID int64

	// CustomCaption, when set, replaces the caption of document messages.
	// It may reference {previouscaption} and {filename}.
	CustomCaption string

	// KeepButtons copies the original inline keyboard along with the message.
	KeepButtons bool

	// Protect forbids forwarding and saving delivered copies.
	Protect bool

	// Interval is the pause between copies (default: 500ms, negative disables).
	Interval time.Duration
}

// DeliveryReport tallies one delivery request.
type DeliveryReport struct {
	Total     int
	Delivered int
	Failed    int

	// Stopped is set when the recipient became unreachable mid-way.
	Stopped bool
}

// DeliveryService resolves deep links and copies channel content to users.
type DeliveryService struct {
	codec   *deeplink.Codec
	fetcher ContentFetcher
	copier  MessageCopier
	config  DeliveryConfig
	sleep   func(context.Context, time.Duration) error
}

// NewDeliveryService creates a DeliveryService.
func NewDeliveryService(codec *deeplink.Codec, fetcher ContentFetcher, copier MessageCopier, config DeliveryConfig) *DeliveryService {
	if config.Interval == 0 {
		config.Interval = DefaultDeliveryInterval
	}
	return &DeliveryService{
		codec:   codec,
		fetcher: fetcher,
		copier:  copier,
		config:  config,
		sleep:   sleepCtx,
	}
}

// Resolve decodes a start payload into message ids.
func (s *DeliveryService) Resolve(payload string) ([]int64, error) {
	p, err := s.codec.Decode(payload)
	if errors.Is(err, deeplink.ErrRangeTooLarge) {
		return nil, domain.ErrLinkRangeTooLarge.WithCause(err)
	}
	if err != nil {
		return nil, domain.ErrLinkMalformed.WithCause(err)
	}
	return p.IDs(), nil
}

// Fetch reads the addressed messages from the database channel.
func (s *DeliveryService) Fetch(ctx context.Context, ids []int64) ([]domain.ChannelMessage, error) {
	msgs, err := s.fetcher.FetchMessages(ctx, s.config.ChannelID, ids)
	if err != nil {
		return nil, domain.ErrMessagingError.WithDetails("fetch channel messages").WithCause(err)
	}
	return msgs, nil
}

// Deliver copies msgs to the user in order.
//
// A flood wait sleeps for the signalled delay and retries that message
// once. A blocked or deactivated recipient stops the delivery. Any other
// failure is counted and the next message is tried. The returned error is
// non-nil only when ctx ends.
func (s *DeliveryService) Deliver(ctx context.Context, userID int64, msgs []domain.ChannelMessage) (DeliveryReport, error) {
	report := DeliveryReport{Total: len(msgs)}
	limiter := newPacer(s.config.Interval)

	for _, msg := range msgs {
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		src := domain.MessageRef{ChatID: s.config.ChannelID, MessageID: msg.ID}
		opts := s.copyOptions(msg)

		err := s.copyWithRetry(ctx, userID, src, opts)
		if err == nil {
			report.Delivered++
			continue
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		report.Failed++
		if kind, _ := domain.DeliveryKindOf(err); kind.Permanent() {
			report.Stopped = true
			return report, nil
		}
	}
	return report, nil
}

func (s *DeliveryService) copyWithRetry(ctx context.Context, userID int64, src domain.MessageRef, opts domain.CopyOptions) error {
	_, err := s.copier.CopyMessage(ctx, userID, src, opts)
	kind, wait := domain.DeliveryKindOf(err)
	if err == nil || kind != domain.DeliveryFloodWait {
		return err
	}
	if err := s.sleep(ctx, wait); err != nil {
		return err
	}
	_, err = s.copier.CopyMessage(ctx, userID, src, opts)
	return err
}

// copyOptions applies the caption and button policy to one message.
func (s *DeliveryService) copyOptions(msg domain.ChannelMessage) domain.CopyOptions {
	opts := domain.CopyOptions{
		HTML:    true,
		Protect: s.config.Protect,
	}
	if s.config.KeepButtons {
		opts.Keyboard = msg.Keyboard
	}

	caption := msg.Caption
	if s.config.CustomCaption != "" && msg.HasDocument {
		caption = RenderCaption(s.config.CustomCaption, msg.Caption, msg.FileName)
	}
	if msg.HasMedia {
		opts.Caption = &caption
	}
	return opts
}

// RenderCaption fills {previouscaption} and {filename} in tmpl.
func RenderCaption(tmpl, previous, fileName string) string {
	return strings.NewReplacer(
		"{previouscaption}", previous,
		"{filename}", fileName,
	).Replace(tmpl)
}

// newPacer returns a limiter allowing one event per interval.
// A non-positive interval never waits.
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
