package telegram

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yndnr/filegate/internal/core/domain"
	"github.com/yndnr/filegate/internal/infra/buildinfo"
	"github.com/yndnr/filegate/internal/telemetry/logger"
)

// Config configures the Bot API client.
type Config struct {
	// Token is the bot token issued by BotFather.
	Token string

	// APIEndpoint overrides the Bot API URL format (tgbotapi.APIEndpoint).
	APIEndpoint string

	// RootCAs verifies the Bot API server. Nil uses the system roots.
	RootCAs *x509.CertPool

	// ScratchChatID receives forwarded channel messages while they are read.
	// The bot must be able to post and delete there.
	ScratchChatID int64

	// InviteLink is the join link for the force-subscribe channel.
	// When empty it is exported from the channel on first use.
	InviteLink string

	// PollTimeout is the long-polling timeout.
	PollTimeout time.Duration

	// Debug makes the client log every request.
	Debug bool
}

// Client implements the messaging ports on top of *tgbotapi.BotAPI.
type Client struct {
	api    *tgbotapi.BotAPI
	cfg    Config
	logger logger.Logger

	// Outstanding HTTP calls are aborted when the client closes.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	invites map[int64]string
	sleep   func(context.Context, time.Duration) error
}

// ctxClient binds every request to the client's lifetime.
type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c *ctxClient) Do(req *http.Request) (*http.Response, error) {
	req = req.WithContext(c.ctx)
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	return c.client.Do(req)
}

// New creates a client and checks the token with getMe.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram: token is required")
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	hc := &http.Client{Timeout: cfg.PollTimeout + 15*time.Second}
	if cfg.RootCAs != nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{RootCAs: cfg.RootCAs, MinVersion: tls.VersionTLS12}
		hc.Transport = tr
	}
	httpClient := &ctxClient{ctx: ctx, client: hc}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, httpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("telegram: connect: %w", scrub(err, cfg.Token))
	}
	api.Debug = cfg.Debug

	c := &Client{
		api:     api,
		cfg:     cfg,
		logger:  log.With("component", "telegram"),
		ctx:     ctx,
		cancel:  cancel,
		invites: make(map[int64]string),
		sleep:   sleepCtx,
	}
	c.logger.Info("telegram client ready", "bot", api.Self.UserName, "bot_id", api.Self.ID)
	return c, nil
}

// Username returns the bot's username without "@".
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Close aborts outstanding requests.
func (c *Client) Close() {
	c.cancel()
}

func (c *Client) err(op string, err error) error {
	return fmt.Errorf("telegram: %s: %w", op, classify(scrub(err, c.cfg.Token)))
}

func inlineKeyboard(kb domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func domainKeyboard(m *tgbotapi.InlineKeyboardMarkup) domain.Keyboard {
	if m == nil || len(m.InlineKeyboard) == 0 {
		return nil
	}
	kb := make(domain.Keyboard, 0, len(m.InlineKeyboard))
	for _, row := range m.InlineKeyboard {
		out := make([]domain.Button, 0, len(row))
		for _, b := range row {
			btn := domain.Button{Text: b.Text}
			switch {
			case b.URL != nil:
				btn.URL = *b.URL
			case b.CallbackData != nil:
				btn.Data = *b.CallbackData
			default:
				continue
			}
			out = append(out, btn)
		}
		if len(out) > 0 {
			kb = append(kb, out)
		}
	}
	return kb
}

// Send sends a text message and returns its id.
func (c *Client) Send(ctx context.Context, chatID int64, text string, opts domain.SendOptions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if opts.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if kb := inlineKeyboard(opts.Keyboard); kb != nil {
		msg.ReplyMarkup = kb
	}
	msg.ReplyToMessageID = int(opts.ReplyTo)
	msg.AllowSendingWithoutReply = true
	msg.DisableWebPagePreview = opts.DisablePreview

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, c.err("sendMessage", err)
	}
	return int64(sent.MessageID), nil
}

// Edit replaces the text of a message sent by the bot.
func (c *Client) Edit(ctx context.Context, ref domain.MessageRef, text string, opts domain.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(ref.ChatID, int(ref.MessageID), text)
	if opts.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	edit.ReplyMarkup = inlineKeyboard(opts.Keyboard)
	edit.DisableWebPagePreview = opts.DisablePreview

	if _, err := c.api.Request(edit); err != nil && !isNotModified(err) {
		return c.err("editMessageText", err)
	}
	return nil
}

// Delete deletes a message.
func (c *Client) Delete(ctx context.Context, ref domain.MessageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, int(ref.MessageID))); err != nil {
		return c.err("deleteMessage", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, showing text as a toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return c.err("answerCallbackQuery", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the channel.
func (c *Client) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: channelID, UserID: userID},
	})
	if err != nil {
		// Users who never interacted with the channel come back as 400.
		if isBadRequest(err) {
			return false, nil
		}
		return false, c.err("getChatMember", err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		return member.IsMember, nil
	default:
		return false, nil
	}
}

// InviteLink returns the configured invite link, or exports one for the
// channel and caches it.
func (c *Client) InviteLink(ctx context.Context, channelID int64) (string, error) {
	if c.cfg.InviteLink != "" {
		return c.cfg.InviteLink, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if link, ok := c.invites[channelID]; ok {
		return link, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	link, err := c.api.GetInviteLink(tgbotapi.ChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: channelID},
	})
	if err != nil {
		return "", c.err("exportChatInviteLink", err)
	}
	c.invites[channelID] = link
	return link, nil
}

// CopyMessage copies src into the chat and returns the new message id.
//
// The request is built by hand because the client's CopyMessageConfig
// cannot clear a caption or set protect_content.
func (c *Client) CopyMessage(ctx context.Context, toChatID int64, src domain.MessageRef, opts domain.CopyOptions) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	params := tgbotapi.Params{}
	params["chat_id"] = strconv.FormatInt(toChatID, 10)
	params["from_chat_id"] = strconv.FormatInt(src.ChatID, 10)
	params["message_id"] = strconv.FormatInt(src.MessageID, 10)
	if opts.Caption != nil {
		params["caption"] = *opts.Caption
		if opts.HTML {
			params["parse_mode"] = tgbotapi.ModeHTML
		}
	}
	params.AddBool("protect_content", opts.Protect)
	if kb := inlineKeyboard(opts.Keyboard); kb != nil {
		if err := params.AddInterface("reply_markup", kb); err != nil {
			return 0, fmt.Errorf("telegram: encode keyboard: %w", err)
		}
	}

	resp, err := c.api.MakeRequest("copyMessage", params)
	if err != nil {
		return 0, c.err("copyMessage", err)
	}
	var id tgbotapi.MessageID
	if err := json.Unmarshal(resp.Result, &id); err != nil {
		return 0, fmt.Errorf("telegram: decode copyMessage result: %w", err)
	}
	return int64(id.MessageID), nil
}

// FetchMessages reads channel messages by forwarding them to the scratch
// chat and deleting the forwarded copies. Ids that no longer exist are
// skipped.
func (c *Client) FetchMessages(ctx context.Context, channelID int64, ids []int64) ([]domain.ChannelMessage, error) {
	if c.cfg.ScratchChatID == 0 {
		return nil, errors.New("telegram: scratch chat is not configured")
	}

	msgs := make([]domain.ChannelMessage, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fwd, err := c.forward(ctx, channelID, id)
		if isBadRequest(err) {
			c.logger.Debug("channel message not found", "channel_id", channelID, "message_id", id)
			continue
		}
		if err != nil {
			return nil, c.err("forwardMessage", err)
		}
		msgs = append(msgs, channelMessage(id, fwd))

		ref := domain.MessageRef{ChatID: c.cfg.ScratchChatID, MessageID: int64(fwd.MessageID)}
		if err := c.Delete(ctx, ref); err != nil {
			c.logger.Warn("failed to delete scratch copy", "message_id", fwd.MessageID, "error", err)
		}
	}
	return msgs, nil
}

// forward forwards one message, retrying once after a flood wait.
func (c *Client) forward(ctx context.Context, channelID, id int64) (tgbotapi.Message, error) {
	cfg := tgbotapi.NewForward(c.cfg.ScratchChatID, channelID, int(id))
	cfg.DisableNotification = true

	msg, err := c.api.Send(cfg)
	if kind, wait := domain.DeliveryKindOf(classify(err)); err != nil && kind == domain.DeliveryFloodWait {
		if serr := c.sleep(ctx, wait); serr != nil {
			return msg, serr
		}
		msg, err = c.api.Send(cfg)
	}
	return msg, err
}

// channelMessage converts a forwarded copy of channel message id.
func channelMessage(id int64, m tgbotapi.Message) domain.ChannelMessage {
	cm := domain.ChannelMessage{
		ID:       id,
		HasMedia: len(m.Photo) > 0 || m.Video != nil || m.Document != nil || m.Audio != nil || m.Animation != nil || m.Voice != nil,
		Keyboard: domainKeyboard(m.ReplyMarkup),
	}
	if m.Caption != "" {
		cm.Caption = entitiesHTML(m.Caption, m.CaptionEntities)
	}
	if m.Document != nil {
		cm.HasDocument = true
		cm.FileName = m.Document.FileName
	}
	return cm
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
