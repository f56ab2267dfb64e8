package telegram

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yndnr/filegate/internal/bot"
	"github.com/yndnr/filegate/internal/core/domain"
)

// UpdateHandler receives converted updates.
type UpdateHandler func(ctx context.Context, u bot.Update)

var allowedUpdates = []string{"message", "callback_query"}

const pollRetryDelay = 3 * time.Second

// Poll receives updates by long polling until ctx ends.
func (c *Client) Poll(ctx context.Context, handle UpdateHandler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(c.cfg.PollTimeout / time.Second)
	cfg.AllowedUpdates = allowedUpdates

	// A webhook left over from an earlier run blocks getUpdates.
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		c.logger.Warn("failed to delete webhook before polling", "error", scrub(err, c.cfg.Token))
	}

	c.logger.Info("polling for updates", "timeout", c.cfg.PollTimeout)
	for ctx.Err() == nil {
		updates, err := c.api.GetUpdates(cfg)
		if err != nil {
			if ctx.Err() != nil || c.ctx.Err() != nil {
				break
			}
			c.logger.Warn("failed to get updates, retrying", "error", scrub(err, c.cfg.Token), "delay", pollRetryDelay)
			if err := c.sleep(ctx, pollRetryDelay); err != nil {
				break
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= cfg.Offset {
				cfg.Offset = u.UpdateID + 1
			}
			if bu, ok := convertUpdate(u); ok {
				handle(ctx, bu)
			}
		}
	}
	c.logger.Info("polling stopped")
	return nil
}

// SetWebhook registers url with Telegram. Requests must then carry secret
// in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return err
	}
	if _, err := c.api.MakeRequest("setWebhook", params); err != nil {
		return c.err("setWebhook", err)
	}
	c.logger.Info("webhook registered", "url", url)
	return nil
}

// DeleteWebhook removes the webhook registration.
func (c *Client) DeleteWebhook() error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return c.err("deleteWebhook", err)
	}
	return nil
}

// WebhookHandler decodes webhook requests and hands them to handle with ctx.
// ctx outlives the request so handlers can keep working after the reply.
func (c *Client) WebhookHandler(ctx context.Context, secret string, handle UpdateHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		u, err := c.api.HandleUpdate(r)
		if err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)

		if bu, ok := convertUpdate(*u); ok {
			handle(ctx, bu)
		}
	})
}

// convertUpdate keeps messages and callback queries from users.
func convertUpdate(u tgbotapi.Update) (bot.Update, bool) {
	switch {
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil:
		return bot.Update{ID: u.UpdateID, Message: convertMessage(u.Message)}, true

	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		q := u.CallbackQuery
		cb := &bot.Callback{ID: q.ID, From: convertUser(q.From), Data: q.Data}
		if q.Message != nil && q.Message.Chat != nil {
			cb.Message = &domain.MessageRef{ChatID: q.Message.Chat.ID, MessageID: int64(q.Message.MessageID)}
		}
		return bot.Update{ID: u.UpdateID, Callback: cb}, true
	}
	return bot.Update{}, false
}

func convertMessage(m *tgbotapi.Message) *bot.Message {
	msg := &bot.Message{
		ID:      int64(m.MessageID),
		ChatID:  m.Chat.ID,
		Private: m.Chat.IsPrivate(),
		From:    convertUser(m.From),
		Text:    m.Text,
	}
	if m.ReplyToMessage != nil {
		msg.ReplyTo = &domain.MessageRef{ChatID: m.Chat.ID, MessageID: int64(m.ReplyToMessage.MessageID)}
	}
	return msg
}

func convertUser(u *tgbotapi.User) domain.User {
	return domain.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
