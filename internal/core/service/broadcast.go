package service

import (
	"context"
	"time"

	"github.com/yndnr/filegate/internal/core/domain"
)

// DefaultBroadcastInterval is the pause between two broadcast recipients.
const DefaultBroadcastInterval = 50 * time.Millisecond

// BroadcastReport tallies one broadcast.
// Successful + Blocked + Deleted + Unsuccessful always equals Total.
type BroadcastReport struct {
	Total        int
	Successful   int
	Blocked      int
	Deleted      int
	Unsuccessful int
}

// BroadcastConfig holds configuration for BroadcastService.
type BroadcastConfig struct {
	// Interval is the pause between recipients (default: 50ms, negative disables).
	Interval time.Duration
}

// BroadcastService copies one message to every known user.
type BroadcastService struct {
	users    UserRepository
	copier   MessageCopier
	interval time.Duration
	sleep    func(context.Context, time.Duration) error
}

// NewBroadcastService creates a BroadcastService.
func NewBroadcastService(users UserRepository, copier MessageCopier, config *BroadcastConfig) *BroadcastService {
	interval := DefaultBroadcastInterval
	if config != nil && config.Interval != 0 {
		interval = config.Interval
	}
	return &BroadcastService{
		users:    users,
		copier:   copier,
		interval: interval,
		sleep:    sleepCtx,
	}
}

// Broadcast copies src to every user, one at a time.
//
// A flood wait sleeps for the signalled delay and retries exactly once; a
// failed retry counts as unsuccessful. Blocked and deactivated users are
// removed from the registry. A store error while removing a user aborts the
// broadcast and returns the report so far together with the error.
func (s *BroadcastService) Broadcast(ctx context.Context, src domain.MessageRef) (BroadcastReport, error) {
	var report BroadcastReport

	ids, err := s.users.ListUsers(ctx)
	if err != nil {
		return report, storageErr(err)
	}

	limiter := newPacer(s.interval)
	for _, chatID := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return report, err
		}

		err := s.send(ctx, chatID, src)
		report.Total++

		kind, _ := domain.DeliveryKindOf(err)
		switch {
		case err == nil:
			report.Successful++
		case ctx.Err() != nil:
			report.Unsuccessful++
			return report, ctx.Err()
		case kind == domain.DeliveryBlocked:
			report.Blocked++
			if err := s.users.DeleteUser(ctx, chatID); err != nil {
				return report, storageErr(err)
			}
		case kind == domain.DeliveryDeactivated:
			report.Deleted++
			if err := s.users.DeleteUser(ctx, chatID); err != nil {
				return report, storageErr(err)
			}
		default:
			report.Unsuccessful++
		}
	}
	return report, nil
}

// send copies src to one recipient, retrying once after a flood wait.
// A failed retry is reported as a plain failure.
func (s *BroadcastService) send(ctx context.Context, chatID int64, src domain.MessageRef) error {
	_, err := s.copier.CopyMessage(ctx, chatID, src, domain.CopyOptions{})
	kind, wait := domain.DeliveryKindOf(err)
	if err == nil || kind != domain.DeliveryFloodWait {
		return err
	}
	if err := s.sleep(ctx, wait); err != nil {
		return err
	}
	if _, err := s.copier.CopyMessage(ctx, chatID, src, domain.CopyOptions{}); err != nil {
		return domain.NewDeliveryError(domain.DeliveryFailed, err)
	}
	return nil
}
