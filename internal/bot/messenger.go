package bot

import (
	"context"

	"github.com/yndnr/filegate/internal/core/domain"
)

// Messenger is the part of the chat client the handlers talk to directly.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string, opts domain.SendOptions) (int64, error)
	Edit(ctx context.Context, ref domain.MessageRef, text string, opts domain.SendOptions) error
	Delete(ctx context.Context, ref domain.MessageRef) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	InviteLink(ctx context.Context, channelID int64) (string, error)
	Username() string
}
